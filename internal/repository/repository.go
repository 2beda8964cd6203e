package repository

import (
	"context"

	"github.com/trailmap/trail-explorer/internal/models"
)

type Filter struct {
	Limit  int // 0 means no limit
	Offset int
}

// TrailRepository stores the catalog in its original order.
type TrailRepository interface {
	Add(ctx context.Context, position int, t *models.Trail) error
	List(ctx context.Context, opts Filter) ([]models.Trail, error)
	Count(ctx context.Context) (int, error)
}

// GeocodeCache maps normalized address queries to coordinates.
type GeocodeCache interface {
	GetGeocode(ctx context.Context, query string) (models.Coordinates, bool, error)
	PutGeocode(ctx context.Context, query string, c models.Coordinates) error
}
