package catalog

import "fmt"

// FetchError reports a failed catalog load: transport, HTTP status or decode.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog fetch %s failed (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("catalog fetch %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UninitializedCatalogError is returned when trails are requested before the
// catalog has finished loading.
type UninitializedCatalogError struct {
	State LoadState
}

func (e *UninitializedCatalogError) Error() string {
	return fmt.Sprintf("catalog not ready (state: %s)", e.State)
}
