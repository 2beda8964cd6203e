// Package render turns ranked trails and viewport state into the GeoJSON
// annotations and frames consumed by the map layer.
package render

import (
	"github.com/paulmach/orb/geojson"

	"github.com/trailmap/trail-explorer/internal/catalog"
	"github.com/trailmap/trail-explorer/internal/models"
	"github.com/trailmap/trail-explorer/internal/ranking"
	"github.com/trailmap/trail-explorer/internal/viewport"
)

const (
	KindMarker = "marker"
	KindPopup  = "popup"

	MarkerSymbol = "⛰️"
	popupAnchor  = "top"
	popupTipSize = 5
)

// DetailFields are the trail card attributes copied into popups.
var DetailFields = []string{"image", "length_roundtrip", "gain", "rating", "parking_pass", "link"}

type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// Frame is everything the map layer needs to draw after one event.
type Frame struct {
	Status      Status                     `json:"status"`
	Message     string                     `json:"message,omitempty"`
	Viewport    *models.Viewport           `json:"viewport,omitempty"`
	ShowMarkers bool                       `json:"show_markers"`
	ShowPopups  bool                       `json:"show_popups"`
	Annotations *geojson.FeatureCollection `json:"annotations,omitempty"`
}

// NewFrame renders the current state. A failed catalog produces an error
// frame with no map; an unfinished one produces a loading frame.
func NewFrame(state catalog.LoadState, loadErr error, v models.Viewport, sel viewport.Selection, k int) Frame {
	switch state {
	case catalog.StateFailed:
		msg := "Error..."
		if loadErr != nil {
			msg += loadErr.Error()
		}
		return Frame{Status: StatusError, Message: msg}
	case catalog.StateReady:
	default:
		return Frame{Status: StatusLoading, Message: "Loading..."}
	}

	f := Frame{
		Status:      StatusReady,
		Viewport:    &v,
		ShowMarkers: sel.ShowMarkers,
		ShowPopups:  sel.ShowPopups,
	}
	if sel.ShowMarkers || sel.ShowPopups {
		f.Annotations = Annotations(sel.Ranked, k, sel.ShowMarkers, sel.ShowPopups)
	}
	return f
}

// Annotations builds the marker and popup features for the nearest
// min(k, len(ranked)) trails.
func Annotations(ranked []models.RankedTrail, k int, markers, popups bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	top := ranking.TopK(ranked, k)

	if popups {
		for i, r := range top {
			if f := popup(i, r); f != nil {
				fc.Append(f)
			}
		}
	}
	if markers {
		for i, r := range top {
			if f := marker(i, r); f != nil {
				fc.Append(f)
			}
		}
	}
	return fc
}

func marker(i int, r models.RankedTrail) *geojson.Feature {
	p, err := r.Trail.Point()
	if err != nil {
		return nil
	}
	f := geojson.NewFeature(p)
	f.Properties["kind"] = KindMarker
	f.Properties["rank"] = i + 1
	f.Properties["trail_name"] = r.Trail.Name
	f.Properties["distance"] = r.Distance
	f.Properties["symbol"] = MarkerSymbol
	return f
}

func popup(i int, r models.RankedTrail) *geojson.Feature {
	p, err := r.Trail.Point()
	if err != nil {
		return nil
	}
	f := geojson.NewFeature(p)
	f.Properties["kind"] = KindPopup
	f.Properties["rank"] = i + 1
	f.Properties["title"] = r.Trail.Name
	f.Properties["anchor"] = popupAnchor
	f.Properties["tip_size"] = popupTipSize
	for k, v := range Detail(r.Trail) {
		f.Properties[k] = v
	}
	return f
}

// Detail returns the trail card attributes present on t, as raw JSON.
func Detail(t *models.Trail) map[string]any {
	out := make(map[string]any, len(DetailFields))
	for _, key := range DetailFields {
		if raw, ok := t.Attributes[key]; ok {
			out[key] = raw
		}
	}
	return out
}
