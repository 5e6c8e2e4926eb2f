package assignment

import (
	"context"
	"log/slog"
	"time"

	"github.com/tiffinarca/driver-server-sub000/internal/events"
	"github.com/tiffinarca/driver-server-sub000/internal/store"
)

// DefaultLookbackDays is the trailing window over which driver history is
// aggregated when the request does not override it.
const DefaultLookbackDays = 7

const (
	errNoAvailableDrivers = "No available drivers found"
	errNoSuitableDriver   = "No suitable driver found"
)

// Engine runs one assignment batch against a strategy: it fetches and
// enriches candidates, delegates the pick to the strategy, persists the
// chosen assignment, and aggregates the per-restaurant outcomes.
type Engine struct {
	store        store.Store
	events       events.Publisher
	lookbackDays int
	logger       *slog.Logger
}

func NewEngine(s store.Store, ev events.Publisher, lookbackDays int, logger *slog.Logger) *Engine {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Engine{
		store:        s,
		events:       ev,
		lookbackDays: lookbackDays,
		logger:       logger,
	}
}

// AssignDrivers processes every restaurant in the request sequentially.
// Restaurants must not be processed in parallel: later restaurants in the
// same run have to see the workload counts produced by earlier assignments.
// A per-restaurant failure never aborts the run; it is recorded inline and
// the loop continues.
func (e *Engine) AssignDrivers(ctx context.Context, strategy Strategy, req *Request) *AlgorithmResult {
	start := time.Now()

	result := &AlgorithmResult{
		Algorithm:      strategy.Name(),
		Date:           req.Date,
		TotalRequested: len(req.Restaurants),
		Results:        make([]AssignmentResult, 0, len(req.Restaurants)),
	}

	var scoreSum float64
	var scoreCount int
	for i := range req.Restaurants {
		r := e.assignOne(ctx, strategy, req, &req.Restaurants[i])
		result.Results = append(result.Results, r)
		if r.Success {
			result.SuccessfulAssignments++
		} else {
			result.FailedAssignments++
		}
		if r.Score != nil {
			scoreSum += *r.Score
			scoreCount++
		}
	}

	if scoreCount > 0 {
		avg := round2(scoreSum / float64(scoreCount))
		result.AverageScore = &avg
	}
	result.ExecutionMs = float64(time.Since(start).Microseconds()) / 1000.0

	e.logger.Info("assignment run complete",
		"algorithm", strategy.Name(),
		"date", req.Date.Format("2006-01-02"),
		"requested", result.TotalRequested,
		"successful", result.SuccessfulAssignments,
		"failed", result.FailedAssignments,
		"execution_ms", result.ExecutionMs,
	)
	return result
}

func (e *Engine) assignOne(ctx context.Context, strategy Strategy, req *Request, restaurant *RestaurantRequest) AssignmentResult {
	fail := func(reason string) AssignmentResult {
		e.logger.Warn("assignment failed",
			"algorithm", strategy.Name(),
			"restaurant_id", restaurant.RestaurantID,
			"reason", reason,
		)
		if e.events != nil {
			_ = e.events.Publish(events.SubjectAssignmentUnmatched(restaurant.RestaurantID.String()), events.AssignmentUnmatchedEvent{
				RestaurantID: restaurant.RestaurantID.String(),
				Date:         req.Date.Format("2006-01-02"),
				Algorithm:    strategy.Name(),
				Reason:       reason,
			})
		}
		return AssignmentResult{RestaurantID: restaurant.RestaurantID, Success: false, Error: reason}
	}

	candidates, err := e.EligibleCandidates(ctx, req.Date, req.Config, restaurant)
	if err != nil {
		return fail(err.Error())
	}
	if len(candidates) == 0 {
		return fail(errNoAvailableDrivers)
	}

	sel, err := strategy.SelectDriver(ctx, candidates, restaurant, req.Date)
	if err != nil {
		return fail(err.Error())
	}
	if sel == nil {
		return fail(errNoSuitableDriver)
	}

	created, err := e.store.CreateAssignment(ctx, store.CreateAssignmentParams{
		DriverID:            sel.Driver.ID,
		RestaurantID:        restaurant.RestaurantID,
		Date:                req.Date,
		PickupTime:          restaurant.PickupTime,
		EstimatedDeliveries: restaurant.EstimatedDeliveries,
		PaymentRate:         restaurant.PaymentRate,
		PaymentType:         restaurant.PaymentType,
		AlgorithmScore:      sel.Score,
	})
	if err != nil {
		return fail(err.Error())
	}
	if !created.Success {
		return fail(created.Error)
	}

	if e.events != nil {
		_ = e.events.Publish(events.SubjectAssignmentCreated(restaurant.RestaurantID.String()), events.AssignmentCreatedEvent{
			RestaurantID: restaurant.RestaurantID.String(),
			DriverID:     sel.Driver.ID.String(),
			Date:         req.Date.Format("2006-01-02"),
			Algorithm:    strategy.Name(),
			Score:        sel.Score,
		})
	}

	score := sel.Score
	return AssignmentResult{
		RestaurantID: restaurant.RestaurantID,
		Success:      true,
		DriverID:     sel.Driver.ID,
		DriverName:   sel.Driver.Name,
		Score:        &score,
	}
}

// EligibleCandidates fetches the eligible driver set for the date, enriches
// each candidate from the historical lookback window, and applies the
// optional geographic pre-filter. An empty pre-filter result falls back to
// the full enriched set; the strategy may still reject all of them.
func (e *Engine) EligibleCandidates(ctx context.Context, date time.Time, cfg RunConfig, restaurant *RestaurantRequest) ([]*store.DriverCandidate, error) {
	candidates, err := e.store.FetchEligibleDrivers(ctx, date)
	if err != nil {
		return nil, err
	}

	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = e.lookbackDays
	}
	start := date.AddDate(0, 0, -lookback)

	for _, c := range candidates {
		w, err := e.store.FetchDriverWorkload(ctx, c.ID, start, date)
		if err != nil {
			return nil, err
		}
		c.RecentDeliveries = w.AverageDeliveries
		if w.TotalAssignments == 0 {
			c.CompletionRate = 100
		} else {
			c.CompletionRate = float64(w.CompletedAssignments) / float64(w.TotalAssignments) * 100
		}
	}

	if cfg.GeoPrefilter && restaurant != nil {
		var local []*store.DriverCandidate
		for _, c := range candidates {
			if len(matchingAreas(c, restaurant)) > 0 {
				local = append(local, c)
			}
		}
		if len(local) > 0 {
			return local, nil
		}
	}
	return candidates, nil
}

// Lookback returns the engine's default lookback window in days.
func (e *Engine) Lookback() int {
	return e.lookbackDays
}
