package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	DB       DatabaseConfig
	Seed     SeedConfig
	Explorer ExplorerConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	RateLimitRPS   int
	RateLimitBurst int // 0 means RateLimitRPS
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver string // sqlite or pgx
	Path   string // sqlite file
	URL    string // postgres connection string
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "pgx" {
		return d.URL
	}
	return d.Path
}

type SeedConfig struct {
	Path       string
	Workers    int
	BufferSize int
}

type ExplorerConfig struct {
	CatalogURL         string
	CatalogTimeout     time.Duration // 0 waits indefinitely
	MapboxToken        string
	GeocoderURL        string
	GeocoderTimeout    time.Duration
	GeocoderZoom       float64
	GeocodeCachePath   string
	InitialLatitude    float64
	InitialLongitude   float64
	InitialZoom        float64
	TransitionDuration time.Duration
	TopK               int
	EventBufferSize    int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "localhost"),
			Port:           getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 5),
			RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 0),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		DB: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			Path:   getEnv("DB_PATH", "./data/trails.db"),
			URL:    getEnv("DATABASE_URL", ""),
		},
		Seed: SeedConfig{
			Path:       getEnv("SEED_PATH", "./data/trails.json"),
			Workers:    getEnvInt("SEED_WORKERS", 2),
			BufferSize: getEnvInt("SEED_BUFFER_SIZE", 20),
		},
		Explorer: ExplorerConfig{
			CatalogURL:         getEnv("CATALOG_URL", "http://localhost:8080/api/trails"),
			CatalogTimeout:     getEnvDuration("CATALOG_FETCH_TIMEOUT", 0),
			MapboxToken:        getEnv("MAPBOX_TOKEN", ""),
			GeocoderURL:        getEnv("GEOCODER_URL", "https://api.mapbox.com"),
			GeocoderTimeout:    getEnvDuration("GEOCODER_TIMEOUT", 10*time.Second),
			GeocoderZoom:       getEnvFloat("GEOCODER_ZOOM", 10),
			GeocodeCachePath:   getEnv("GEOCODE_CACHE_PATH", "./data/geocode-cache.db"),
			InitialLatitude:    getEnvFloat("INITIAL_LATITUDE", 47.67894),
			InitialLongitude:   getEnvFloat("INITIAL_LONGITUDE", -122.317768),
			InitialZoom:        getEnvFloat("INITIAL_ZOOM", 10),
			TransitionDuration: getEnvDuration("TRANSITION_DURATION", time.Second),
			TopK:               getEnvInt("TOP_K", 5),
			EventBufferSize:    getEnvInt("EVENT_BUFFER_SIZE", 32),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 req/s, got %d", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit burst cannot be negative, got %d", c.Server.RateLimitBurst)
	}

	switch c.DB.Driver {
	case "sqlite":
	case "pgx":
		if c.DB.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=pgx")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", c.DB.Driver)
	}

	if c.Seed.Workers < 1 {
		return fmt.Errorf("seed workers must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	e := c.Explorer
	if e.CatalogTimeout < 0 {
		return fmt.Errorf("catalog fetch timeout cannot be negative")
	}
	if e.InitialLatitude < -90 || e.InitialLatitude > 90 {
		return fmt.Errorf("invalid initial latitude: %v", e.InitialLatitude)
	}
	if e.InitialLongitude < -180 || e.InitialLongitude > 180 {
		return fmt.Errorf("invalid initial longitude: %v", e.InitialLongitude)
	}
	if e.TopK < 1 {
		return fmt.Errorf("top k must be at least 1, got %d", e.TopK)
	}
	if e.EventBufferSize < 1 {
		return fmt.Errorf("event buffer size must be at least 1")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
