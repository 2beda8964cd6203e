package geocoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailmap/trail-explorer/internal/models"
)

type memCache struct {
	mu   sync.Mutex
	data map[string]models.Coordinates
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]models.Coordinates)}
}

func (m *memCache) GetGeocode(ctx context.Context, query string) (models.Coordinates, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data[query]
	return c, ok, nil
}

func (m *memCache) PutGeocode(ctx context.Context, query string, c models.Coordinates) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[query] = c
	return nil
}

func mapboxServer(t *testing.T, hits *atomic.Int64, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Contains(t, r.URL.Path, "/geocoding/v5/mapbox.places/")
		assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestForward_ReturnsCenterAndZoom(t *testing.T) {
	var hits atomic.Int64
	srv := mapboxServer(t, &hits, `{"features":[{"place_name":"Seattle, Washington","center":[-122.3301,47.6038]}]}`)
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL), WithZoom(11))

	p, err := c.Forward(context.Background(), "Seattle, WA")
	require.NoError(t, err)

	require.NotNil(t, p.Longitude)
	require.NotNil(t, p.Latitude)
	require.NotNil(t, p.Zoom)
	assert.Equal(t, -122.3301, *p.Longitude)
	assert.Equal(t, 47.6038, *p.Latitude)
	assert.Equal(t, 11.0, *p.Zoom)
	assert.Nil(t, p.TransitionDuration)
}

func TestForward_UsesCache(t *testing.T) {
	var hits atomic.Int64
	srv := mapboxServer(t, &hits, `{"features":[{"center":[-121.0,47.0]}]}`)
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL), WithCache(newMemCache()))

	_, err := c.Forward(context.Background(), "North Bend")
	require.NoError(t, err)
	p, err := c.Forward(context.Background(), "  north   BEND ")
	require.NoError(t, err)

	assert.Equal(t, int64(1), hits.Load())
	assert.Equal(t, -121.0, *p.Longitude)
}

func TestForward_NoResults(t *testing.T) {
	var hits atomic.Int64
	srv := mapboxServer(t, &hits, `{"features":[]}`)
	defer srv.Close()

	_, err := NewClient("test-token", WithBaseURL(srv.URL)).Forward(context.Background(), "nowhere at all")

	assert.ErrorIs(t, err, ErrNoResults)
}

func TestForward_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient("test-token", WithBaseURL(srv.URL)).Forward(context.Background(), "Issaquah")

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusUnauthorized, gerr.StatusCode)
}

func TestForward_InvalidInput(t *testing.T) {
	_, err := NewClient("test-token").Forward(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = NewClient("").Forward(context.Background(), "Seattle")
	assert.ErrorIs(t, err, ErrNoToken)
}
