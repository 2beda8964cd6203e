// Package viewport owns the single authoritative map viewport and merges the
// updates coming from map interaction and from the geocoder.
package viewport

import (
	"log/slog"
	"sync"

	"github.com/trailmap/trail-explorer/internal/models"
	"github.com/trailmap/trail-explorer/internal/ranking"
)

type State int

const (
	StateUninitialized State = iota
	StateInitialized
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	default:
		return "uninitialized"
	}
}

// DefaultGeocoderTransitionMS is the animation length forced onto every geocoder jump.
const DefaultGeocoderTransitionMS = 1000

// DefaultInitial centers the map on the University District, Seattle.
var DefaultInitial = models.Viewport{
	Latitude:  47.67894,
	Longitude: -122.317768,
	Zoom:      10,
}

// Selection is the outcome of the last committed location choice.
type Selection struct {
	Ranked      []models.RankedTrail
	ShowMarkers bool
	ShowPopups  bool
}

type Controller struct {
	mu        sync.Mutex
	state     State
	current   models.Viewport
	overrides models.PartialViewport
	selection Selection
}

type Option func(*Controller)

// WithGeocoderOverrides replaces the fields applied after every geocoder update.
func WithGeocoderOverrides(p models.PartialViewport) Option {
	return func(c *Controller) {
		c.overrides = p
	}
}

// NewController returns an uninitialized controller. initial is the base the
// first update is merged onto.
func NewController(initial models.Viewport, opts ...Option) *Controller {
	c := &Controller{
		current: initial,
		overrides: models.PartialViewport{
			TransitionDuration: models.Ptr(DefaultGeocoderTransitionMS),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ApplyUpdate merges partial onto the current viewport and returns the new value.
func (c *Controller) ApplyUpdate(partial models.PartialViewport) models.Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(partial)
}

// ApplyGeocoderUpdate merges partial and then the configured geocoder
// overrides, so geocoder jumps animate the same way whatever the widget sent.
func (c *Controller) ApplyGeocoderUpdate(partial models.PartialViewport) models.Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(partial.Overlay(c.overrides))
}

func (c *Controller) apply(partial models.PartialViewport) models.Viewport {
	if c.state == StateUninitialized {
		c.state = StateInitialized
		slog.Debug("viewport initialized")
	}
	c.current = c.current.Merge(partial)
	return c.current
}

// OnLocationSelected ranks trails against the current center. It must only
// be called for a committed selection, never for incremental pan or zoom.
// Once a selection succeeds the marker and popup flags stay on.
func (c *Controller) OnLocationSelected(trails []models.Trail) ([]models.RankedTrail, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ranked, err := ranking.Rank(c.current.Longitude, c.current.Latitude, trails)
	if err != nil {
		return nil, err
	}

	c.selection = Selection{
		Ranked:      ranked,
		ShowMarkers: true,
		ShowPopups:  true,
	}

	slog.Info("location selected",
		"longitude", c.current.Longitude,
		"latitude", c.current.Latitude,
		"ranked", len(ranked),
	)
	return ranked, nil
}

func (c *Controller) Viewport() models.Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}
