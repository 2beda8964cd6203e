// Package ingestion loads the trail catalog into the store once, at startup.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/trailmap/trail-explorer/internal/catalog"
	"github.com/trailmap/trail-explorer/internal/models"
	"github.com/trailmap/trail-explorer/internal/repository"
	"github.com/trailmap/trail-explorer/internal/worker"
)

type seedJob struct {
	position int
	trail    *models.Trail
}

type Seeder struct {
	repo       repository.TrailRepository
	source     catalog.Fetcher
	workers    int
	bufferSize int
}

func NewSeeder(repo repository.TrailRepository, source catalog.Fetcher, workers, bufferSize int) *Seeder {
	return &Seeder{
		repo:       repo,
		source:     source,
		workers:    workers,
		bufferSize: bufferSize,
	}
}

// Seed copies the source catalog into an empty store and reports how many
// trails were written. A store that already holds trails is left alone, so
// the catalog stays fixed across restarts.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	existing, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting trails: %w", err)
	}
	if existing > 0 {
		slog.Info("trail store already seeded", "count", existing)
		return 0, nil
	}

	trails, err := s.source.FetchTrails(ctx)
	if err != nil {
		return 0, err
	}

	var (
		added  atomic.Int64
		failed atomic.Int64
	)
	processor := func(ctx context.Context, job seedJob) error {
		if err := s.repo.Add(ctx, job.position, job.trail); err != nil {
			failed.Add(1)
			return err
		}
		added.Add(1)
		return nil
	}

	pool := worker.NewWorkerPool("seed", s.workers, s.bufferSize, processor)
	pool.Start(ctx)

	for i := range trails {
		if _, err := trails[i].Point(); err != nil {
			// Stored anyway; the catalog is served exactly as received.
			slog.Warn("seeding trail with malformed coordinates", "trail", trails[i].Name, "position", i)
		}
		if err := pool.Submit(ctx, seedJob{position: i, trail: &trails[i]}); err != nil {
			pool.Stop()
			return int(added.Load()), fmt.Errorf("error queueing trail %d: %w", i, err)
		}
	}
	pool.Stop()

	if n := failed.Load(); n > 0 {
		return int(added.Load()), fmt.Errorf("%d of %d trails failed to store", n, len(trails))
	}

	slog.Info("trail store seeded", "count", added.Load())
	return int(added.Load()), nil
}
