package assignment

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/tiffinarca/driver-server-sub000/internal/store"
)

// WorkloadStrategy spreads work by recent history: drivers with fewer recent
// and current assignments score higher, with smaller bonuses for completion
// rate, delivery experience, and serving the restaurant's area.
type WorkloadStrategy struct {
	store        store.Store
	lookbackDays int
	logger       *slog.Logger
}

func NewWorkloadStrategy(s store.Store, lookbackDays int, logger *slog.Logger) *WorkloadStrategy {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &WorkloadStrategy{store: s, lookbackDays: lookbackDays, logger: logger}
}

func (w *WorkloadStrategy) Name() string { return "workload-balancing" }

func (w *WorkloadStrategy) SelectDriver(ctx context.Context, candidates []*store.DriverCandidate, req *RestaurantRequest, date time.Time) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var chosen *store.DriverCandidate
	bestScore := math.Inf(-1)
	for _, c := range candidates {
		hist, err := w.fetchHistory(ctx, c, date)
		if err != nil {
			return nil, err
		}
		score := w.compositeScore(c, hist, req)
		if score > bestScore {
			bestScore = score
			chosen = c
		}
	}

	w.logger.Debug("workload selection",
		"restaurant_id", req.RestaurantID,
		"driver_id", chosen.ID,
		"score", bestScore,
	)
	return &Selection{Driver: chosen, Score: bestScore}, nil
}

// Distribution is the read-only workload report for a set of drivers: the
// same composite score each would receive plus the raw inputs behind it,
// sorted descending by score.
func (w *WorkloadStrategy) Distribution(ctx context.Context, drivers []*store.DriverCandidate, date time.Time) ([]WorkloadReport, error) {
	reports := make([]WorkloadReport, 0, len(drivers))
	for _, c := range drivers {
		hist, err := w.fetchHistory(ctx, c, date)
		if err != nil {
			return nil, err
		}
		reports = append(reports, WorkloadReport{
			DriverID:             c.ID,
			DriverName:           c.Name,
			Score:                w.compositeScore(c, hist, nil),
			RecentAssignments:    hist.TotalAssignments,
			CompletedAssignments: hist.CompletedAssignments,
			AverageDeliveries:    hist.AverageDeliveries,
			CompletionRate:       completionRate(hist),
			CurrentAssignments:   c.CurrentAssignments,
		})
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Score > reports[j].Score
	})
	return reports, nil
}

func (w *WorkloadStrategy) fetchHistory(ctx context.Context, c *store.DriverCandidate, date time.Time) (*store.DriverWorkload, error) {
	start := date.AddDate(0, 0, -w.lookbackDays)
	return w.store.FetchDriverWorkload(ctx, c.ID, start, date)
}

// compositeScore combines recent volume, current load, completion rate,
// delivery experience, and geography. req may be nil for the distribution
// report, in which case the geography bonus is skipped.
func (w *WorkloadStrategy) compositeScore(c *store.DriverCandidate, hist *store.DriverWorkload, req *RestaurantRequest) float64 {
	score := math.Max(0, float64(20-hist.TotalAssignments)/20*40)
	score += math.Max(0, float64(5-c.CurrentAssignments)/5*30)
	score += completionRate(hist) / 100 * 15
	score += experienceScore(hist.AverageDeliveries)

	if req != nil {
		if areas := matchingAreas(c, req); len(areas) > 0 {
			score += 5 + math.Max(0, 5-minRadiusKm(areas)/10)
		}
	}
	return round2(clampScore(score))
}

// experienceScore peaks at 10 points when mean recent deliveries fall in the
// 15-30 band, scaling down linearly below and losing a point per 10 extra
// deliveries above.
func experienceScore(avgDeliveries float64) float64 {
	switch {
	case avgDeliveries >= 15 && avgDeliveries <= 30:
		return 10
	case avgDeliveries < 15:
		return avgDeliveries / 15 * 10
	default:
		return math.Max(0, 10-(avgDeliveries-30)/10)
	}
}

func completionRate(hist *store.DriverWorkload) float64 {
	if hist.TotalAssignments == 0 {
		return 100
	}
	return float64(hist.CompletedAssignments) / float64(hist.TotalAssignments) * 100
}
