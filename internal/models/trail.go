package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Trail is a single catalog record. Only Name and Coordinates are interpreted;
// everything else travels in Attributes exactly as it arrived.
type Trail struct {
	Name        string
	Coordinates []float64 // [lon, lat]
	Attributes  map[string]json.RawMessage
}

// RankedTrail pairs a catalog trail with its distance from a reference location.
type RankedTrail struct {
	Trail    *Trail
	Distance float64 // degree-space, not kilometers
}

// MalformedTrailError reports a trail whose coordinates cannot be used for ranking.
type MalformedTrailError struct {
	Name        string
	Coordinates []float64
}

func (e *MalformedTrailError) Error() string {
	return fmt.Sprintf("trail %q has malformed coordinates %v", e.Name, e.Coordinates)
}

// Point returns the trail location as an orb.Point, or a *MalformedTrailError
// when the coordinates are not exactly two finite numbers.
func (t *Trail) Point() (orb.Point, error) {
	if len(t.Coordinates) != 2 {
		return orb.Point{}, &MalformedTrailError{Name: t.Name, Coordinates: t.Coordinates}
	}
	lon, lat := t.Coordinates[0], t.Coordinates[1]
	if !isFinite(lon) || !isFinite(lat) {
		return orb.Point{}, &MalformedTrailError{Name: t.Name, Coordinates: t.Coordinates}
	}
	return orb.Point{lon, lat}, nil
}

// Attribute decodes a pass-through attribute into v. It reports false when the
// attribute is absent or does not decode into v.
func (t *Trail) Attribute(key string, v any) bool {
	raw, ok := t.Attributes[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (t *Trail) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*t = Trail{}
	if raw, ok := fields["trail_name"]; ok {
		// A non-string name stays in Attributes and Name is left empty.
		if err := json.Unmarshal(raw, &t.Name); err == nil {
			delete(fields, "trail_name")
		}
	}
	if raw, ok := fields["coordinates"]; ok {
		// Unusable coordinates stay in Attributes so the record round-trips;
		// ranking later excludes the trail instead of failing the whole catalog.
		var coords []float64
		if err := json.Unmarshal(raw, &coords); err == nil && coords != nil {
			t.Coordinates = coords
			delete(fields, "coordinates")
		}
	}
	if len(fields) > 0 {
		t.Attributes = fields
	}
	return nil
}

func (t Trail) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Attributes)+2)
	for k, v := range t.Attributes {
		out[k] = v
	}
	if _, raw := t.Attributes["trail_name"]; !raw || t.Name != "" {
		out["trail_name"] = t.Name
	}
	if t.Coordinates != nil {
		out["coordinates"] = t.Coordinates
	}
	return json.Marshal(out)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
