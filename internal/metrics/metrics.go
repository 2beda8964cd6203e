// Package metrics exposes Prometheus instrumentation for the trail API.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	gatherer prometheus.Gatherer

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CatalogTrails   prometheus.Gauge
	RankedTrails    prometheus.Histogram
	MalformedTrails prometheus.Counter
}

// NewCollector registers the metrics against reg, or the default registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trail_api_requests_total",
		Help: "HTTP requests handled, by route, method and status code.",
	}, []string{"route", "method", "code"}))
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trail_api_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route", "method"}))
	if err != nil {
		return nil, err
	}

	catalog, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trail_catalog_size",
		Help: "Number of trails in the served catalog.",
	}))
	if err != nil {
		return nil, err
	}

	ranked, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trail_ranking_size",
		Help:    "Number of trails returned by a proximity ranking.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 6),
	}))
	if err != nil {
		return nil, err
	}

	malformed, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trail_ranking_excluded_total",
		Help: "Trails excluded from ranking because of malformed coordinates.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		Requests:        requests,
		RequestDuration: durations,
		CatalogTrails:   catalog,
		RankedTrails:    ranked,
		MalformedTrails: malformed,
	}, nil
}

// Middleware records count and latency for every request, labeled by route template.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.Requests.WithLabelValues(route, ctx.Request.Method, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.RequestDuration.WithLabelValues(route, ctx.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// ObserveRanking records one ranking over catalogSize trails that produced ranked entries.
func (c *Collector) ObserveRanking(catalogSize, ranked int) {
	c.RankedTrails.Observe(float64(ranked))
	if excluded := catalogSize - ranked; excluded > 0 {
		c.MalformedTrails.Add(float64(excluded))
	}
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector already registered with incompatible type: %T", are.ExistingCollector)
		}
		var zero T
		return zero, err
	}
	return collector, nil
}
