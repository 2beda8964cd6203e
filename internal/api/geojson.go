package api

import (
	"github.com/paulmach/orb/geojson"

	"github.com/trailmap/trail-explorer/internal/models"
	"github.com/trailmap/trail-explorer/internal/render"
)

// toGeoJSON renders ranked trails as Point features, nearest first.
func toGeoJSON(ranked []models.RankedTrail) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, r := range ranked {
		p, err := r.Trail.Point()
		if err != nil {
			continue
		}
		f := geojson.NewFeature(p)
		f.Properties["rank"] = i + 1
		f.Properties["trail_name"] = r.Trail.Name
		f.Properties["distance"] = r.Distance
		for k, v := range render.Detail(r.Trail) {
			f.Properties[k] = v
		}
		fc.Append(f)
	}

	return fc
}
