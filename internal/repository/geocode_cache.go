package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trailmap/trail-explorer/internal/models"
)

func (s *DB) GetGeocode(ctx context.Context, query string) (models.Coordinates, bool, error) {
	var c models.Coordinates
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT longitude, latitude FROM geocode_cache WHERE query = ?`), query,
	).Scan(&c.Longitude, &c.Latitude)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Coordinates{}, false, nil
	}
	if err != nil {
		return models.Coordinates{}, false, fmt.Errorf("error reading geocode cache: %w", err)
	}
	return c, true, nil
}

func (s *DB) PutGeocode(ctx context.Context, query string, c models.Coordinates) error {
	if strings.TrimSpace(query) == "" {
		return errors.New("geocode cache: empty query key")
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO geocode_cache (query, longitude, latitude, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (query) DO UPDATE SET
			longitude = excluded.longitude,
			latitude = excluded.latitude,
			created_at = excluded.created_at`),
		query, c.Longitude, c.Latitude, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error writing geocode cache %q: %w", query, err)
	}
	return nil
}
