package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/trailmap/trail-explorer/internal/api"
	"github.com/trailmap/trail-explorer/internal/catalog"
	"github.com/trailmap/trail-explorer/internal/config"
	"github.com/trailmap/trail-explorer/internal/ingestion"
	"github.com/trailmap/trail-explorer/internal/logging"
	"github.com/trailmap/trail-explorer/internal/metrics"
	"github.com/trailmap/trail-explorer/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "db_driver", cfg.DB.Driver)

	db, err := repository.Open(cfg.DB.Driver, cfg.DB.DSN())
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Seed.Path != "" {
		seeder := ingestion.NewSeeder(db, catalog.NewFileFetcher(cfg.Seed.Path), cfg.Seed.Workers, cfg.Seed.BufferSize)
		n, err := seeder.Seed(ctx)
		if err != nil {
			logging.Fatalf("Failed to seed trail catalog: %v", err)
		}
		slog.Info("seed complete", "path", cfg.Seed.Path, "inserted", n)
	}

	m, err := metrics.NewCollector(nil)
	if err != nil {
		logging.Fatalf("Failed to register metrics: %v", err)
	}
	if count, err := db.Count(ctx); err == nil {
		m.CatalogTrails.Set(float64(count))
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestIDMiddleware())
	router.Use(m.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", api.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", api.RequestIDHeader},
		AllowCredentials: false, // must stay false with wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	handler := api.NewHandler(db, m)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
