package assignment

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/tiffinarca/driver-server-sub000/internal/store"
)

// proximityFallbackScore is the fixed score for the crudest fallback path:
// no local match and no restaurant coordinates, so the least-loaded driver
// wins. The constant is deliberately disconnected from the rest of the
// scoring scale.
const proximityFallbackScore = 25

// GeographicStrategy prefers drivers whose service area matches the
// restaurant's city and state, scoring matches by coverage tightness,
// proximity, and current workload. Without a local match it degrades to a
// proximity-only pick, and without coordinates to a least-loaded pick.
type GeographicStrategy struct {
	logger *slog.Logger
}

func NewGeographicStrategy(logger *slog.Logger) *GeographicStrategy {
	return &GeographicStrategy{logger: logger}
}

func (g *GeographicStrategy) Name() string { return "geographic" }

func (g *GeographicStrategy) SelectDriver(_ context.Context, candidates []*store.DriverCandidate, req *RestaurantRequest, _ time.Time) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	type localMatch struct {
		candidate *store.DriverCandidate
		areas     []store.ServiceArea
	}
	var local []localMatch
	for _, c := range candidates {
		if areas := matchingAreas(c, req); len(areas) > 0 {
			local = append(local, localMatch{candidate: c, areas: areas})
		}
	}

	if len(local) == 0 {
		return g.selectByProximity(candidates, req), nil
	}

	best := local[0]
	bestScore := math.Inf(-1)
	for _, m := range local {
		score := 50.0 + math.Max(0, 50-minRadiusKm(m.areas)/2)
		if d, ok := nearestAreaKm(m.areas, req); ok {
			score += math.Max(0, 20-d)
		}
		score += math.Max(0, float64(10-m.candidate.CurrentAssignments)) / 10 * 10
		score = round2(clampScore(score))
		if score > bestScore {
			bestScore = score
			best = m
		}
	}

	g.logger.Debug("geographic selection",
		"restaurant_id", req.RestaurantID,
		"driver_id", best.candidate.ID,
		"local_matches", len(local),
		"score", bestScore,
	)
	return &Selection{Driver: best.candidate, Score: bestScore}, nil
}

// selectByProximity handles the no-local-match path: score by distance to
// the nearest service area when coordinates are known, otherwise pick the
// least-loaded driver at a fixed fallback score.
func (g *GeographicStrategy) selectByProximity(candidates []*store.DriverCandidate, req *RestaurantRequest) *Selection {
	if !req.HasCoordinates() {
		chosen := candidates[0]
		for _, c := range candidates[1:] {
			if c.CurrentAssignments < chosen.CurrentAssignments {
				chosen = c
			}
		}
		return &Selection{Driver: chosen, Score: proximityFallbackScore}
	}

	chosen := candidates[0]
	bestScore := math.Inf(-1)
	for _, c := range candidates {
		score := 0.0
		if d, ok := nearestAreaKm(c.ServiceAreas, req); ok {
			score = math.Max(0, 100-2*d)
		}
		score += math.Max(0, float64(10-c.CurrentAssignments)) / 10 * 20
		score = round2(clampScore(score))
		if score > bestScore {
			bestScore = score
			chosen = c
		}
	}
	return &Selection{Driver: chosen, Score: bestScore}
}
