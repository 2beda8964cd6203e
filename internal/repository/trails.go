package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trailmap/trail-explorer/internal/models"
)

// Add stores t at the given catalog position. The full record is kept as
// JSON so pass-through attributes and malformed coordinates survive.
func (s *DB) Add(ctx context.Context, position int, t *models.Trail) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("error encoding trail %q: %w", t.Name, err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO trails (position, name, doc, created_at)
		VALUES (?, ?, ?, ?)`),
		position, t.Name, string(doc), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error inserting trail %q: %w", t.Name, err)
	}
	return nil
}

// List returns trails in catalog order.
func (s *DB) List(ctx context.Context, opts Filter) ([]models.Trail, error) {
	query := `SELECT doc FROM trails ORDER BY position, id`
	var args []any
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying trails: %w", err)
	}
	defer rows.Close()

	trails := []models.Trail{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("error scanning trail: %w", err)
		}
		var t models.Trail
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			return nil, fmt.Errorf("error decoding trail: %w", err)
		}
		trails = append(trails, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trails: %w", err)
	}
	return trails, nil
}

func (s *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trails`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting trails: %w", err)
	}
	return n, nil
}
