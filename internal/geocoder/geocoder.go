// Package geocoder resolves free-text addresses to map positions using the
// Mapbox forward geocoding API.
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trailmap/trail-explorer/internal/models"
)

const (
	DefaultBaseURL = "https://api.mapbox.com"
	DefaultZoom    = 10
	defaultTimeout = 10 * time.Second
)

var (
	ErrEmptyQuery = errors.New("geocoder: empty query")
	ErrNoResults  = errors.New("geocoder: no results")
	ErrNoToken    = errors.New("geocoder: access token not configured")
)

// Cache stores resolved queries. Keys are normalized by the client.
type Cache interface {
	GetGeocode(ctx context.Context, query string) (models.Coordinates, bool, error)
	PutGeocode(ctx context.Context, query string, c models.Coordinates) error
}

// Error is a failed request to the geocoding service.
type Error struct {
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("geocoder error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("geocoder error: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	zoom       float64
	cache      Cache
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithZoom sets the zoom level reported with every result.
func WithZoom(zoom float64) ClientOption {
	return func(c *Client) {
		c.zoom = zoom
	}
}

func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		token:      token,
		zoom:       DefaultZoom,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type placesResponse struct {
	Features []struct {
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"` // [lon, lat]
	} `json:"features"`
}

// Forward resolves query to a viewport update centered on the best match.
func (c *Client) Forward(ctx context.Context, query string) (models.PartialViewport, error) {
	key := normalize(query)
	if key == "" {
		return models.PartialViewport{}, ErrEmptyQuery
	}

	if c.cache != nil {
		coords, ok, err := c.cache.GetGeocode(ctx, key)
		if err != nil {
			slog.Warn("geocode cache lookup failed", "query", key, "error", err)
		} else if ok {
			slog.Debug("geocode cache hit", "query", key)
			return c.viewportFor(coords), nil
		}
	}

	coords, err := c.lookup(ctx, key)
	if err != nil {
		return models.PartialViewport{}, err
	}

	if c.cache != nil {
		if err := c.cache.PutGeocode(ctx, key, coords); err != nil {
			slog.Warn("geocode cache store failed", "query", key, "error", err)
		}
	}
	return c.viewportFor(coords), nil
}

func (c *Client) lookup(ctx context.Context, query string) (models.Coordinates, error) {
	if c.token == "" {
		return models.Coordinates{}, ErrNoToken
	}

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json", c.baseURL, url.PathEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Coordinates{}, &Error{Err: fmt.Errorf("error creating request: %w", err)}
	}
	q := req.URL.Query()
	q.Set("access_token", c.token)
	q.Set("limit", "1")
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Coordinates{}, &Error{Err: fmt.Errorf("error doing request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Coordinates{}, &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	var decoded placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.Coordinates{}, &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("error decoding resp.Body: %w", err)}
	}
	if len(decoded.Features) == 0 || len(decoded.Features[0].Center) != 2 {
		return models.Coordinates{}, fmt.Errorf("%w for %q", ErrNoResults, query)
	}

	best := decoded.Features[0]
	slog.Debug("geocoded", "query", query, "place", best.PlaceName, "center", best.Center)
	return models.Coordinates{Longitude: best.Center[0], Latitude: best.Center[1]}, nil
}

func (c *Client) viewportFor(coords models.Coordinates) models.PartialViewport {
	return models.PartialViewport{
		Longitude: models.Ptr(coords.Longitude),
		Latitude:  models.Ptr(coords.Latitude),
		Zoom:      models.Ptr(c.zoom),
	}
}

func normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
