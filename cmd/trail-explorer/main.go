package main

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/trailmap/trail-explorer/internal/broadcast"
	"github.com/trailmap/trail-explorer/internal/catalog"
	"github.com/trailmap/trail-explorer/internal/config"
	"github.com/trailmap/trail-explorer/internal/explorer"
	"github.com/trailmap/trail-explorer/internal/geocoder"
	"github.com/trailmap/trail-explorer/internal/logging"
	"github.com/trailmap/trail-explorer/internal/models"
	"github.com/trailmap/trail-explorer/internal/repository"
	"github.com/trailmap/trail-explorer/internal/viewport"
)

// trail-explorer reads map widget events as JSON lines on stdin and writes
// one rendered frame per event as JSON lines on stdout. Stdin is not read
// until the catalog fetch has settled.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	ec := cfg.Explorer

	slog.Info("Explorer starting", "catalog_url", ec.CatalogURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var geo explorer.Geocoder
	if ec.MapboxToken != "" {
		opts := []geocoder.ClientOption{
			geocoder.WithBaseURL(ec.GeocoderURL),
			geocoder.WithTimeout(ec.GeocoderTimeout),
			geocoder.WithZoom(ec.GeocoderZoom),
		}
		if ec.GeocodeCachePath != "" {
			cache, err := repository.NewSQLiteDB(ec.GeocodeCachePath)
			if err != nil {
				logging.Fatalf("Failed to open geocode cache: %v", err)
			}
			defer cache.Close()
			opts = append(opts, geocoder.WithCache(cache))
		}
		geo = geocoder.NewClient(ec.MapboxToken, opts...)
	} else {
		slog.Warn("MAPBOX_TOKEN not set, address search disabled")
	}

	initial := models.Viewport{
		Latitude:  ec.InitialLatitude,
		Longitude: ec.InitialLongitude,
		Zoom:      ec.InitialZoom,
	}
	controller := viewport.NewController(initial, viewport.WithGeocoderOverrides(models.PartialViewport{
		TransitionDuration: models.Ptr(int(ec.TransitionDuration.Milliseconds())),
	}))

	frames := broadcast.NewBroadcaster(ec.EventBufferSize)
	// stdout is the only renderer, so it gets every frame.
	_, sub := frames.SubscribeBlocking()

	written := make(chan struct{})
	go func() {
		defer close(written)
		enc := json.NewEncoder(os.Stdout)
		for f := range sub {
			if err := enc.Encode(f); err != nil {
				slog.Error("failed to write frame", "error", err)
			}
		}
	}()

	exp := explorer.New(
		catalog.New(catalog.NewHTTPFetcher(ec.CatalogURL, ec.CatalogTimeout)),
		controller,
		geo,
		frames,
		explorer.Config{TopK: ec.TopK, BufferSize: ec.EventBufferSize},
	)
	exp.Start(ctx)

	eof := make(chan struct{})
	go func() {
		defer close(eof)
		// Input waits in the pipe until the catalog settles, so a batch of
		// events read from a file is not answered with "loading" frames.
		select {
		case <-exp.Loaded():
		case <-ctx.Done():
			return
		}
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			ev, err := explorer.DecodeEvent(line)
			if err != nil {
				slog.Warn("skipping event", "error", err)
				continue
			}
			if err := exp.Submit(ctx, ev); err != nil {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Error("reading events", "error", err)
		}
	}()

	select {
	case <-eof:
	case <-ctx.Done():
		slog.Info("shutting down...")
	}

	exp.Stop()
	frames.Close()
	<-written

	slog.Info("shutdown complete", "dropped_frames", frames.Dropped())
}
