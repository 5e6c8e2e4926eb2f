package registry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tiffinarca/driver-server-sub000/internal/assignment"
)

var (
	assignmentRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignment_runs_total",
			Help: "Total number of assignment runs executed",
		},
		[]string{"algorithm"},
	)

	assignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignments_total",
			Help: "Total number of per-restaurant assignment outcomes",
		},
		[]string{"algorithm", "outcome"}, // created, failed
	)
)

// AlgorithmMetrics is the cumulative running statistics for one strategy.
// Averages are running means over all recorded runs; AvgScore averages only
// the runs that produced a mean score.
type AlgorithmMetrics struct {
	TotalRuns      int     `json:"total_runs"`
	AvgExecutionMs float64 `json:"avg_execution_ms"`
	AvgSuccessRate float64 `json:"avg_success_rate"`
	AvgScore       float64 `json:"avg_score"`
	ScoredRuns     int     `json:"scored_runs"`
}

// MetricsStore holds per-strategy running metrics. It is the only shared
// mutable state across runs; a single mutex guards all entries.
type MetricsStore struct {
	mu      sync.Mutex
	entries map[string]*AlgorithmMetrics
}

func NewMetricsStore() *MetricsStore {
	return &MetricsStore{entries: make(map[string]*AlgorithmMetrics)}
}

// Record folds one run result into the strategy's running statistics.
func (s *MetricsStore) Record(name string, result *assignment.AlgorithmResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.entries[name]
	if !ok {
		m = &AlgorithmMetrics{}
		s.entries[name] = m
	}

	m.TotalRuns++
	n := float64(m.TotalRuns)
	m.AvgExecutionMs += (result.ExecutionMs - m.AvgExecutionMs) / n

	var rate float64
	if result.TotalRequested > 0 {
		rate = float64(result.SuccessfulAssignments) / float64(result.TotalRequested) * 100
	}
	m.AvgSuccessRate += (rate - m.AvgSuccessRate) / n

	if result.AverageScore != nil {
		m.ScoredRuns++
		m.AvgScore += (*result.AverageScore - m.AvgScore) / float64(m.ScoredRuns)
	}

	assignmentRunsTotal.WithLabelValues(name).Inc()
	assignmentsTotal.WithLabelValues(name, "created").Add(float64(result.SuccessfulAssignments))
	assignmentsTotal.WithLabelValues(name, "failed").Add(float64(result.FailedAssignments))
}

// Get returns a copy of one strategy's metrics.
func (s *MetricsStore) Get(name string) (AlgorithmMetrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.entries[name]
	if !ok {
		return AlgorithmMetrics{}, false
	}
	return *m, true
}

// All returns a copy of every tracked entry.
func (s *MetricsStore) All() map[string]AlgorithmMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]AlgorithmMetrics, len(s.entries))
	for name, m := range s.entries {
		out[name] = *m
	}
	return out
}

// Reset clears one strategy's entry, or every entry when name is empty.
func (s *MetricsStore) Reset(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		s.entries = make(map[string]*AlgorithmMetrics)
		return
	}
	delete(s.entries, name)
}

// Len reports how many strategies have recorded metrics.
func (s *MetricsStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
