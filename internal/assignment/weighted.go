package assignment

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tiffinarca/driver-server-sub000/internal/store"
)

// WeightedStrategy is the primary multi-criteria strategy: four component
// scores (location, proximity, performance, workload), each 0-100, combined
// with normalized weights. Weights are mutable at runtime and re-normalized
// on every update.
type WeightedStrategy struct {
	mu      sync.RWMutex
	weights WeightConfig
	logger  *slog.Logger
}

func NewWeightedStrategy(weights WeightConfig, logger *slog.Logger) (*WeightedStrategy, error) {
	normalized, err := weights.Normalized()
	if err != nil {
		return nil, err
	}
	return &WeightedStrategy{weights: normalized, logger: logger}, nil
}

func (ws *WeightedStrategy) Name() string { return "weighted-scoring" }

// Weights returns the current normalized weight configuration.
func (ws *WeightedStrategy) Weights() WeightConfig {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.weights
}

// SetWeights replaces the weight configuration, normalizing it first.
func (ws *WeightedStrategy) SetWeights(weights WeightConfig) error {
	normalized, err := weights.Normalized()
	if err != nil {
		return err
	}
	ws.mu.Lock()
	ws.weights = normalized
	ws.mu.Unlock()
	ws.logger.Info("scoring weights updated",
		"location", normalized.Location,
		"proximity", normalized.Proximity,
		"performance", normalized.Performance,
		"workload", normalized.Workload,
	)
	return nil
}

func (ws *WeightedStrategy) SelectDriver(_ context.Context, candidates []*store.DriverCandidate, req *RestaurantRequest, _ time.Time) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	pool := ws.localPool(candidates, req)

	var chosen *store.DriverCandidate
	var chosenScore float64
	best := math.Inf(-1)
	for _, c := range pool {
		s := ws.ScoreCandidate(c, req)
		if s.TotalScore > best {
			best = s.TotalScore
			chosen = c
			chosenScore = s.TotalScore
		}
	}

	ws.logger.Debug("weighted selection",
		"restaurant_id", req.RestaurantID,
		"driver_id", chosen.ID,
		"score", chosenScore,
	)
	return &Selection{Driver: chosen, Score: chosenScore}, nil
}

// DetailedScoring returns the full breakdown for every candidate, sorted
// descending by total score. Unlike SelectDriver it never narrows the pool:
// the read path reports every candidate it is given.
func (ws *WeightedStrategy) DetailedScoring(candidates []*store.DriverCandidate, req *RestaurantRequest) []DriverScore {
	scores := make([]DriverScore, 0, len(candidates))
	for _, c := range candidates {
		scores = append(scores, ws.ScoreCandidate(c, req))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})
	return scores
}

// localPool narrows candidates to exact service-area matches, falling back
// to the full set when nobody serves the restaurant's city.
func (ws *WeightedStrategy) localPool(candidates []*store.DriverCandidate, req *RestaurantRequest) []*store.DriverCandidate {
	var local []*store.DriverCandidate
	for _, c := range candidates {
		if len(matchingAreas(c, req)) > 0 {
			local = append(local, c)
		}
	}
	if len(local) > 0 {
		return local
	}
	return candidates
}

// ScoreCandidate computes the four component scores and their weighted total
// for one candidate.
func (ws *WeightedStrategy) ScoreCandidate(c *store.DriverCandidate, req *RestaurantRequest) DriverScore {
	breakdown := ScoreBreakdown{
		Location:    locationScore(c, req),
		Proximity:   proximityScore(c, req),
		Performance: performanceScore(c),
		Workload:    workloadScore(c),
	}

	w := ws.Weights()
	total := breakdown.Location*w.Location +
		breakdown.Proximity*w.Proximity +
		breakdown.Performance*w.Performance +
		breakdown.Workload*w.Workload

	return DriverScore{
		DriverID:   c.ID,
		DriverName: c.Name,
		TotalScore: round2(clampScore(total)),
		Breakdown:  breakdown,
	}
}

// locationScore is 0 without an area match; a match starts at 80 with a
// bonus for tight coverage radii, capped at 100.
func locationScore(c *store.DriverCandidate, req *RestaurantRequest) float64 {
	areas := matchingAreas(c, req)
	if len(areas) == 0 {
		return 0
	}
	score := 80.0
	switch radius := minRadiusKm(areas); {
	case radius <= 10:
		score += 20
	case radius <= 20:
		score += 15
	case radius <= 35:
		score += 10
	default:
		score += 5
	}
	return math.Min(score, 100)
}

// proximityScore bands the distance from the restaurant to the nearest
// service area. Without restaurant coordinates it is a neutral 50.
func proximityScore(c *store.DriverCandidate, req *RestaurantRequest) float64 {
	d, ok := nearestAreaKm(c.ServiceAreas, req)
	if !ok {
		return 50
	}
	switch {
	case d <= 5:
		return 100
	case d <= 10:
		return 90
	case d <= 20:
		return 75
	case d <= 50:
		return 50
	default:
		return math.Max(0, 30-(d-50)/10)
	}
}

// performanceScore blends completion rate with delivery experience.
func performanceScore(c *store.DriverCandidate) float64 {
	d := c.RecentDeliveries
	var experience float64
	switch {
	case d >= 15 && d <= 30:
		experience = 100
	case d < 15:
		experience = d / 15 * 80
	default:
		experience = math.Max(0, 100-(d-30)*2)
	}
	return clampScore(c.CompletionRate*0.6 + experience*0.4)
}

// workloadScore rewards free capacity; a driver at 5 or more assignments
// for the date scores 0.
func workloadScore(c *store.DriverCandidate) float64 {
	if c.CurrentAssignments >= 5 {
		return 0
	}
	return math.Round(float64(5-c.CurrentAssignments) / 5 * 100)
}
