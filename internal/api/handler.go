package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trailmap/trail-explorer/internal/metrics"
	"github.com/trailmap/trail-explorer/internal/ranking"
	"github.com/trailmap/trail-explorer/internal/repository"
)

const maxNearestLimit = 100

type Handler struct {
	repo    repository.TrailRepository
	metrics *metrics.Collector
}

// NewHandler wires the trail routes. m may be nil to disable metrics.
func NewHandler(repo repository.TrailRepository, m *metrics.Collector) *Handler {
	return &Handler{
		repo:    repo,
		metrics: m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/trails", h.getTrails)
	r.GET("/api/trails/nearest", h.getNearest)
	r.GET("/health", h.health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
}

// getTrails serves the whole catalog in its original order.
func (h *Handler) getTrails(c *gin.Context) {
	trails, err := h.repo.List(c.Request.Context(), repository.Filter{})
	if err != nil {
		slog.Error("failed to list trails", "request_id", requestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch trails",
		})
		return
	}
	if h.metrics != nil {
		h.metrics.CatalogTrails.Set(float64(len(trails)))
	}

	c.JSON(http.StatusOK, trails)
}

func (h *Handler) getNearest(c *gin.Context) {
	lon, err := parseCoordinate(c.Query("lon"), 180)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lon: " + err.Error()})
		return
	}
	lat, err := parseCoordinate(c.Query("lat"), 90)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat: " + err.Error()})
		return
	}

	limit := ranking.DefaultTopK
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxNearestLimit {
			limit = n
		}
	}

	trails, err := h.repo.List(c.Request.Context(), repository.Filter{})
	if err != nil {
		slog.Error("failed to list trails", "request_id", requestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch trails",
		})
		return
	}

	ranked, err := ranking.Rank(lon, lat, trails)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveRanking(len(trails), len(ranked))
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toGeoJSON(ranking.TopK(ranked, limit)))
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var errMissing = errors.New("required")

func parseCoordinate(s string, bound float64) (float64, error) {
	if s == "" {
		return 0, errMissing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.Abs(v) > bound {
		return 0, errors.New("out of range")
	}
	return v, nil
}
