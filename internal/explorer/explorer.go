// Package explorer drives the map session: it loads the catalog in the
// background, applies widget and search events one at a time and publishes a
// rendered frame after each of them.
package explorer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/trailmap/trail-explorer/internal/broadcast"
	"github.com/trailmap/trail-explorer/internal/catalog"
	"github.com/trailmap/trail-explorer/internal/models"
	"github.com/trailmap/trail-explorer/internal/ranking"
	"github.com/trailmap/trail-explorer/internal/render"
	"github.com/trailmap/trail-explorer/internal/viewport"
	"github.com/trailmap/trail-explorer/internal/worker"
)

var ErrNoGeocoder = errors.New("address search is not configured")

// Geocoder resolves a free-form address to a viewport update.
type Geocoder interface {
	Forward(ctx context.Context, query string) (models.PartialViewport, error)
}

type Config struct {
	TopK       int
	BufferSize int
}

type Explorer struct {
	catalog    *catalog.Catalog
	controller *viewport.Controller
	geocoder   Geocoder
	frames     *broadcast.Broadcaster
	topK       int

	queue  *worker.WorkerPool[Event]
	loaded chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires an explorer. geo may be nil, in which case search events fail.
func New(cat *catalog.Catalog, ctrl *viewport.Controller, geo Geocoder, frames *broadcast.Broadcaster, cfg Config) *Explorer {
	if cfg.TopK <= 0 {
		cfg.TopK = ranking.DefaultTopK
	}
	e := &Explorer{
		catalog:    cat,
		controller: ctrl,
		geocoder:   geo,
		frames:     frames,
		topK:       cfg.TopK,
		loaded:     make(chan struct{}),
	}
	// One worker keeps event handling strictly sequential.
	e.queue = worker.NewWorkerPool("explorer-events", 1, cfg.BufferSize, e.Handle)
	return e
}

// Start publishes the initial loading frame, starts the event queue and
// begins the catalog fetch.
func (e *Explorer) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	e.publish(ctx, nil)
	e.queue.Start(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(e.loaded)
		if _, err := e.catalog.Load(ctx); err != nil {
			slog.Warn("catalog unavailable", "error", err)
		}
		if err := e.queue.Submit(ctx, Event{Type: eventLoaded}); err != nil {
			slog.Debug("catalog load result not queued", "error", err)
		}
	}()
}

// Loaded is closed once the catalog fetch has settled, either way, and its
// frame has been queued. Events submitted after that see the final load state.
func (e *Explorer) Loaded() <-chan struct{} {
	return e.loaded
}

// Submit queues ev behind every event submitted before it.
func (e *Explorer) Submit(ctx context.Context, ev Event) error {
	return e.queue.Submit(ctx, ev)
}

// Stop drains queued events, then abandons any catalog fetch still in flight.
func (e *Explorer) Stop() {
	e.queue.Stop()
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

// Handle applies one event and publishes the resulting frame. It is the
// queue's processor and must not be called concurrently with it.
func (e *Explorer) Handle(ctx context.Context, ev Event) error {
	err := e.apply(ctx, ev)
	if err != nil {
		slog.Warn("event rejected", "type", ev.Type, "error", err)
	}
	e.publish(ctx, err)
	return err
}

func (e *Explorer) apply(ctx context.Context, ev Event) error {
	switch ev.Type {
	case eventLoaded:
		return nil
	case EventResize:
		if ev.Viewport == nil {
			return ErrMissingUpdate
		}
		e.controller.ApplyUpdate(models.PartialViewport{
			Width:  ev.Viewport.Width,
			Height: ev.Viewport.Height,
		})
		return nil
	case EventViewport:
		if ev.Viewport == nil {
			return ErrMissingUpdate
		}
		e.controller.ApplyUpdate(*ev.Viewport)
		return nil
	case EventGeocoder:
		if ev.Viewport == nil {
			return ErrMissingUpdate
		}
		e.controller.ApplyGeocoderUpdate(*ev.Viewport)
		return nil
	case EventSearch:
		if e.geocoder == nil {
			return ErrNoGeocoder
		}
		update, err := e.geocoder.Forward(ctx, ev.Query)
		if err != nil {
			return err
		}
		e.controller.ApplyGeocoderUpdate(update)
		return nil
	case EventSelect, EventClear:
		trails, err := e.catalog.Trails()
		if err != nil {
			return err
		}
		_, err = e.controller.OnLocationSelected(trails)
		return err
	default:
		return ErrUnknownEvent
	}
}

func (e *Explorer) publish(ctx context.Context, eventErr error) {
	f := render.NewFrame(
		e.catalog.State(),
		e.catalog.Err(),
		e.controller.Viewport(),
		e.controller.Selection(),
		e.topK,
	)
	if eventErr != nil && f.Status == render.StatusReady {
		f.Message = eventErr.Error()
	}
	e.frames.PublishContext(ctx, f)
}
