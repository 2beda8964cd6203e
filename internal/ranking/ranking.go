// Package ranking orders trails by proximity to a reference location.
//
// Distance is planar Euclidean distance in degree space:
//
//	sqrt((lon - refLon)^2 + (lat - refLat)^2)
//
// This is not a geodesic distance. It is adequate for a catalog spanning a
// small area and degrades toward the poles and across the antimeridian.
package ranking

import (
	"cmp"
	"errors"
	"log/slog"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/trailmap/trail-explorer/internal/models"
)

// DefaultTopK is the number of trails the map annotates after a selection.
const DefaultTopK = 5

var ErrInvalidReference = errors.New("reference location must be finite")

// Rank computes the distance from (refLon, refLat) to every well-formed trail
// and returns them nearest first. Trails with identical distances keep their
// catalog order. Malformed trails are left out. The result is never truncated.
func Rank(refLon, refLat float64, trails []models.Trail) ([]models.RankedTrail, error) {
	if !finite(refLon) || !finite(refLat) {
		return nil, ErrInvalidReference
	}

	ref := orb.Point{refLon, refLat}
	ranked := make([]models.RankedTrail, 0, len(trails))
	skipped := 0

	for i := range trails {
		p, err := trails[i].Point()
		if err != nil {
			skipped++
			slog.Debug("excluding trail from ranking", "trail", trails[i].Name, "error", err)
			continue
		}
		ranked = append(ranked, models.RankedTrail{
			Trail:    &trails[i],
			Distance: planar.Distance(ref, p),
		})
	}

	// Markers and popups are positional downstream, so ties must stay in catalog order.
	slices.SortStableFunc(ranked, func(a, b models.RankedTrail) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	if skipped > 0 {
		slog.Debug("ranking complete", "ranked", len(ranked), "skipped", skipped)
	}
	return ranked, nil
}

// TopK returns the first min(k, len(ranked)) entries. A non-positive k yields
// an empty slice.
func TopK(ranked []models.RankedTrail, k int) []models.RankedTrail {
	if k <= 0 {
		return ranked[:0:0]
	}
	return ranked[:min(k, len(ranked))]
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
