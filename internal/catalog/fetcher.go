package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/trailmap/trail-explorer/internal/models"
)

// HTTPFetcher loads the catalog from the trails endpoint (GET /api/trails).
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPFetcher returns a fetcher for url. A zero timeout leaves the request
// unbounded; cancel ctx to give up on it.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) FetchTrails(ctx context.Context) ([]models.Trail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: fmt.Errorf("error creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: fmt.Errorf("error doing request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:        f.url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", resp.Status),
		}
	}

	trails, err := decodeTrails(resp.Body, f.url)
	if err != nil {
		return nil, &FetchError{URL: f.url, StatusCode: resp.StatusCode, Err: fmt.Errorf("error decoding resp.Body: %w", err)}
	}
	return trails, nil
}

// FileFetcher loads the catalog from a JSON file holding the same array the
// trails endpoint serves.
type FileFetcher struct {
	path string
}

func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

func (f *FileFetcher) FetchTrails(ctx context.Context) ([]models.Trail, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, &FetchError{URL: f.path, Err: fmt.Errorf("error opening catalog file: %w", err)}
	}
	defer file.Close()

	trails, err := decodeTrails(file, f.path)
	if err != nil {
		return nil, &FetchError{URL: f.path, Err: fmt.Errorf("error decoding catalog file: %w", err)}
	}
	return trails, nil
}

// decodeTrails reads a JSON array of trails. Only a body that is not an array
// fails; elements that are not trail objects are logged and skipped.
func decodeTrails(r io.Reader, source string) ([]models.Trail, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	trails := make([]models.Trail, 0, len(raw))
	for i, elem := range raw {
		var t models.Trail
		if err := json.Unmarshal(elem, &t); err != nil {
			slog.Warn("skipping catalog entry", "source", source, "index", i, "error", err)
			continue
		}
		trails = append(trails, t)
	}
	return trails, nil
}
