package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tiffinarca/driver-server-sub000/internal/assignment"
	"github.com/tiffinarca/driver-server-sub000/internal/store"
)

// strategyOrder is the static list of available strategy names.
var strategyOrder = []string{"simple", "geographic", "workload-balancing", "weighted-scoring"}

// Options configures the strategies the registry constructs at startup.
type Options struct {
	DefaultStrategy string
	Weights         assignment.WeightConfig
	LookbackDays    int
	MaxPerDriver    int
}

// Registry holds one instance of every selection strategy and fronts the
// engine: single-run execution, concurrent comparison, benchmarking,
// detailed scoring, workload distribution, weight management, and the
// cumulative per-strategy metrics table.
type Registry struct {
	engine      *assignment.Engine
	store       store.Store
	strategies  map[string]assignment.Strategy
	defaultName string
	weighted    *assignment.WeightedStrategy
	workload    *assignment.WorkloadStrategy
	metrics     *MetricsStore
	logger      *slog.Logger
}

// New builds the strategy table explicitly. The metrics store is injected
// so tests can use a fresh one per test.
func New(e *assignment.Engine, s store.Store, opts Options, metrics *MetricsStore, logger *slog.Logger) (*Registry, error) {
	weights := opts.Weights
	if weights.Sum() == 0 {
		weights = assignment.DefaultWeights()
	}
	weighted, err := assignment.NewWeightedStrategy(weights, logger)
	if err != nil {
		return nil, fmt.Errorf("weighted strategy: %w", err)
	}
	workload := assignment.NewWorkloadStrategy(s, opts.LookbackDays, logger)

	strategies := map[string]assignment.Strategy{
		"simple":             assignment.NewSimpleStrategy(opts.MaxPerDriver, logger),
		"geographic":         assignment.NewGeographicStrategy(logger),
		"workload-balancing": workload,
		"weighted-scoring":   weighted,
	}

	defaultName := opts.DefaultStrategy
	if defaultName == "" {
		defaultName = "weighted-scoring"
	}
	if _, ok := strategies[defaultName]; !ok {
		return nil, fmt.Errorf("unknown default strategy %q", defaultName)
	}

	return &Registry{
		engine:      e,
		store:       s,
		strategies:  strategies,
		defaultName: defaultName,
		weighted:    weighted,
		workload:    workload,
		metrics:     metrics,
		logger:      logger,
	}, nil
}

// AvailableStrategies returns the static strategy name list.
func AvailableStrategies() []string {
	out := make([]string, len(strategyOrder))
	copy(out, strategyOrder)
	return out
}

func (r *Registry) strategy(name string) (assignment.Strategy, string, error) {
	if name == "" {
		name = r.defaultName
	}
	s, ok := r.strategies[name]
	if !ok {
		return nil, "", fmt.Errorf("unknown strategy %q", name)
	}
	return s, name, nil
}

// ExecuteAssignment runs one batch with the named (or default) strategy and
// folds the outcome into that strategy's running metrics.
func (r *Registry) ExecuteAssignment(ctx context.Context, req *assignment.Request, strategyName string) (*assignment.AlgorithmResult, error) {
	s, name, err := r.strategy(strategyName)
	if err != nil {
		return nil, err
	}
	result := r.engine.AssignDrivers(ctx, s, req)
	r.metrics.Record(name, result)
	return result, nil
}

// CompareAlgorithms runs the requested strategies concurrently, each against
// its own deep copy of the request. A strategy that panics mid-run is
// recorded as a zero-success result instead of aborting its siblings.
func (r *Registry) CompareAlgorithms(ctx context.Context, req *assignment.Request, strategyNames []string) (map[string]*assignment.AlgorithmResult, error) {
	if len(strategyNames) == 0 {
		strategyNames = AvailableStrategies()
	}
	selected := make([]assignment.Strategy, 0, len(strategyNames))
	for _, name := range strategyNames {
		s, ok := r.strategies[name]
		if !ok {
			return nil, fmt.Errorf("unknown strategy %q", name)
		}
		selected = append(selected, s)
	}

	results := make(map[string]*assignment.AlgorithmResult, len(selected))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i, s := range selected {
		wg.Add(1)
		go func(name string, s assignment.Strategy) {
			defer wg.Done()
			result := r.runIsolated(ctx, s, req.Clone())
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(strategyNames[i], s)
	}
	wg.Wait()
	return results, nil
}

// runIsolated executes one strategy, converting a panic into a zero-success
// result so comparison and benchmarking batches always complete.
func (r *Registry) runIsolated(ctx context.Context, s assignment.Strategy, req *assignment.Request) (result *assignment.AlgorithmResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("strategy panicked during run", "algorithm", s.Name(), "panic", rec)
			result = &assignment.AlgorithmResult{
				Algorithm:         s.Name(),
				Date:              req.Date,
				TotalRequested:    len(req.Restaurants),
				FailedAssignments: len(req.Restaurants),
			}
		}
	}()
	return r.engine.AssignDrivers(ctx, s, req)
}

// BenchmarkSummary aggregates one strategy's performance across the sample
// requests that completed.
type BenchmarkSummary struct {
	MeanExecutionMs float64 `json:"mean_execution_ms"`
	MeanSuccessRate float64 `json:"mean_success_rate"`
	MeanScore       float64 `json:"mean_score"`
	TotalRuns       int     `json:"total_runs"`
}

// BenchmarkAlgorithms runs every requested strategy against every sample
// request, sequentially per strategy, and averages the results. Samples that
// panic are skipped; a strategy with no completed sample runs is omitted
// from the output entirely.
func (r *Registry) BenchmarkAlgorithms(ctx context.Context, samples []*assignment.Request, strategyNames []string) (map[string]*BenchmarkSummary, error) {
	if len(strategyNames) == 0 {
		strategyNames = AvailableStrategies()
	}
	for _, name := range strategyNames {
		if _, ok := r.strategies[name]; !ok {
			return nil, fmt.Errorf("unknown strategy %q", name)
		}
	}

	out := make(map[string]*BenchmarkSummary)
	for _, name := range strategyNames {
		s := r.strategies[name]

		var runs int
		var execSum, rateSum, scoreSum float64
		var scoredRuns int
		for _, sample := range samples {
			result := r.benchmarkOne(ctx, s, sample.Clone())
			if result == nil {
				continue
			}
			runs++
			execSum += result.ExecutionMs
			if result.TotalRequested > 0 {
				rateSum += float64(result.SuccessfulAssignments) / float64(result.TotalRequested) * 100
			}
			if result.AverageScore != nil {
				scoredRuns++
				scoreSum += *result.AverageScore
			}
		}
		if runs == 0 {
			continue
		}
		summary := &BenchmarkSummary{
			MeanExecutionMs: execSum / float64(runs),
			MeanSuccessRate: rateSum / float64(runs),
			TotalRuns:       runs,
		}
		if scoredRuns > 0 {
			summary.MeanScore = scoreSum / float64(scoredRuns)
		}
		out[name] = summary
	}
	return out, nil
}

func (r *Registry) benchmarkOne(ctx context.Context, s assignment.Strategy, req *assignment.Request) (result *assignment.AlgorithmResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("benchmark sample skipped", "algorithm", s.Name(), "panic", rec)
			result = nil
		}
	}()
	return r.engine.AssignDrivers(ctx, s, req)
}

// DetailedScoring returns every candidate's weighted-scoring breakdown per
// restaurant, optionally restricted to the given driver IDs. It delegates to
// the weighted-scoring strategy only.
func (r *Registry) DetailedScoring(ctx context.Context, req *assignment.Request, driverIDs []uuid.UUID) (map[uuid.UUID][]assignment.DriverScore, error) {
	if r.weighted == nil {
		return nil, fmt.Errorf("weighted-scoring strategy unavailable")
	}

	out := make(map[uuid.UUID][]assignment.DriverScore, len(req.Restaurants))
	for i := range req.Restaurants {
		restaurant := &req.Restaurants[i]
		candidates, err := r.engine.EligibleCandidates(ctx, req.Date, req.Config, restaurant)
		if err != nil {
			return nil, fmt.Errorf("restaurant %s: %w", restaurant.RestaurantID, err)
		}
		candidates = filterDrivers(candidates, driverIDs)
		out[restaurant.RestaurantID] = r.weighted.DetailedScoring(candidates, restaurant)
	}
	return out, nil
}

// WorkloadDistribution reports the workload-balancing view of the eligible
// drivers for a date, optionally restricted to the given driver IDs.
func (r *Registry) WorkloadDistribution(ctx context.Context, date time.Time, driverIDs []uuid.UUID) ([]assignment.WorkloadReport, error) {
	drivers, err := r.store.FetchEligibleDrivers(ctx, date)
	if err != nil {
		return nil, err
	}
	return r.workload.Distribution(ctx, filterDrivers(drivers, driverIDs), date)
}

// Weights returns the weighted-scoring strategy's current configuration.
func (r *Registry) Weights() assignment.WeightConfig {
	return r.weighted.Weights()
}

// UpdateWeights replaces the weighted-scoring weights, re-normalizing them.
func (r *Registry) UpdateWeights(w assignment.WeightConfig) error {
	return r.weighted.SetWeights(w)
}

// Metrics returns a snapshot of every tracked strategy entry.
func (r *Registry) Metrics() map[string]AlgorithmMetrics {
	return r.metrics.All()
}

// StrategyMetrics returns one strategy's snapshot.
func (r *Registry) StrategyMetrics(name string) (AlgorithmMetrics, bool) {
	return r.metrics.Get(name)
}

// ResetMetrics clears one strategy's metrics, or all of them when name is
// empty.
func (r *Registry) ResetMetrics(name string) {
	r.metrics.Reset(name)
	r.logger.Info("metrics reset", "strategy", name)
}

// Health reports the facade's readiness: strategy count and how many
// strategies have accumulated metrics.
type Health struct {
	Status         string `json:"status"`
	StrategyCount  int    `json:"strategy_count"`
	TrackedMetrics int    `json:"tracked_metrics"`
}

func (r *Registry) Health() Health {
	return Health{
		Status:         "ok",
		StrategyCount:  len(r.strategies),
		TrackedMetrics: r.metrics.Len(),
	}
}

func filterDrivers(candidates []*store.DriverCandidate, driverIDs []uuid.UUID) []*store.DriverCandidate {
	if len(driverIDs) == 0 {
		return candidates
	}
	want := make(map[uuid.UUID]bool, len(driverIDs))
	for _, id := range driverIDs {
		want[id] = true
	}
	var out []*store.DriverCandidate
	for _, c := range candidates {
		if want[c.ID] {
			out = append(out, c)
		}
	}
	return out
}
