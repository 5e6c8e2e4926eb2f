package assignment

import (
	"context"
	"log/slog"
	"time"

	"github.com/tiffinarca/driver-server-sub000/internal/store"
)

// SimpleStrategy is pure load balancing: pick the candidate with the fewest
// assignments already held for the date.
type SimpleStrategy struct {
	maxPerDriver int
	logger       *slog.Logger
}

// NewSimpleStrategy creates a SimpleStrategy. maxPerDriver caps how many
// assignments a driver may hold before being filtered out; zero disables
// the cap.
func NewSimpleStrategy(maxPerDriver int, logger *slog.Logger) *SimpleStrategy {
	return &SimpleStrategy{maxPerDriver: maxPerDriver, logger: logger}
}

func (s *SimpleStrategy) Name() string { return "simple" }

func (s *SimpleStrategy) SelectDriver(_ context.Context, candidates []*store.DriverCandidate, req *RestaurantRequest, _ time.Time) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	pool := candidates
	if s.maxPerDriver > 0 {
		var below []*store.DriverCandidate
		for _, c := range candidates {
			if c.CurrentAssignments < s.maxPerDriver {
				below = append(below, c)
			}
		}
		// All drivers at the cap: fall back to the full set rather than
		// leaving the restaurant unserved.
		if len(below) > 0 {
			pool = below
		}
	}

	chosen := pool[0]
	maxAssignments := pool[0].CurrentAssignments
	for _, c := range pool[1:] {
		if c.CurrentAssignments < chosen.CurrentAssignments {
			chosen = c
		}
		if c.CurrentAssignments > maxAssignments {
			maxAssignments = c.CurrentAssignments
		}
	}

	denom := maxAssignments
	if denom < 1 {
		denom = 1
	}
	score := round2(float64(maxAssignments-chosen.CurrentAssignments) / float64(denom) * 100)

	s.logger.Debug("simple selection",
		"restaurant_id", req.RestaurantID,
		"driver_id", chosen.ID,
		"current_assignments", chosen.CurrentAssignments,
		"score", score,
	)
	return &Selection{Driver: chosen, Score: score}, nil
}
