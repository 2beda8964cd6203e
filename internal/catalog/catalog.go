// Package catalog holds the trail catalog, fetched once per process.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/trailmap/trail-explorer/internal/models"
)

type LoadState int

const (
	StateUninitialized LoadState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Fetcher retrieves the full trail catalog.
type Fetcher interface {
	FetchTrails(ctx context.Context) ([]models.Trail, error)
}

type Catalog struct {
	fetcher Fetcher
	once    sync.Once

	mu     sync.RWMutex
	state  LoadState
	trails []models.Trail
	err    error
}

func New(fetcher Fetcher) *Catalog {
	return &Catalog{fetcher: fetcher}
}

// Load performs the one fetch of this catalog's lifetime. Concurrent and later
// callers get the outcome of that single fetch. Fetcher errors that are not
// already a *FetchError are wrapped in one.
func (c *Catalog) Load(ctx context.Context) ([]models.Trail, error) {
	c.once.Do(func() {
		c.setState(StateLoading)
		slog.Info("loading trail catalog")

		trails, err := c.fetcher.FetchTrails(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			var fe *FetchError
			if !errors.As(err, &fe) {
				err = &FetchError{Err: err}
			}
			c.state = StateFailed
			c.err = err
			slog.Error("trail catalog load failed", "error", err)
			return
		}
		if trails == nil {
			trails = []models.Trail{}
		}
		c.state = StateReady
		c.trails = trails
		slog.Info("trail catalog loaded", "count", len(trails))
	})

	return c.Trails()
}

// Trails returns the loaded catalog. Before the load completes it returns an
// *UninitializedCatalogError; after a failed load it returns the *FetchError.
// The returned slice must be treated as read-only.
func (c *Catalog) Trails() ([]models.Trail, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.state {
	case StateReady:
		return c.trails, nil
	case StateFailed:
		return nil, c.err
	default:
		return nil, &UninitializedCatalogError{State: c.state}
	}
}

func (c *Catalog) State() LoadState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Err returns the load failure, if any.
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Catalog) setState(s LoadState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
