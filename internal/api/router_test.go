package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiffinarca/driver-server-sub000/internal/assignment"
	"github.com/tiffinarca/driver-server-sub000/internal/registry"
	"github.com/tiffinarca/driver-server-sub000/internal/store"
)

type fakeStore struct {
	drivers []*store.DriverCandidate
	created []store.CreateAssignmentParams
}

func (f *fakeStore) FetchEligibleDrivers(_ context.Context, date time.Time) ([]*store.DriverCandidate, error) {
	day := date.Format("2006-01-02")
	out := make([]*store.DriverCandidate, 0, len(f.drivers))
	for _, d := range f.drivers {
		c := *d
		c.ServiceAreas = append([]store.ServiceArea(nil), d.ServiceAreas...)
		for _, p := range f.created {
			if p.DriverID == d.ID && p.Date.Format("2006-01-02") == day {
				c.CurrentAssignments++
			}
		}
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeStore) FetchDriverWorkload(context.Context, uuid.UUID, time.Time, time.Time) (*store.DriverWorkload, error) {
	return &store.DriverWorkload{}, nil
}

func (f *fakeStore) CreateAssignment(_ context.Context, params store.CreateAssignmentParams) (*store.CreateAssignmentResult, error) {
	f.created = append(f.created, params)
	return &store.CreateAssignmentResult{Success: true, AssignmentID: uuid.New()}, nil
}

func (f *fakeStore) Close() error { return nil }

func testDriver(name string) *store.DriverCandidate {
	return &store.DriverCandidate{
		ID:   uuid.New(),
		Name: name,
		ServiceAreas: []store.ServiceArea{{
			Name:      "Seattle-WA",
			City:      "Seattle",
			State:     "WA",
			Latitude:  47.6062,
			Longitude: -122.3321,
			RadiusKm:  10,
		}},
		CompletionRate: 100,
	}
}

func newTestRouter(t *testing.T, adminToken string) (http.Handler, *fakeStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fs := &fakeStore{drivers: []*store.DriverCandidate{testDriver("ana"), testDriver("ben")}}
	engine := assignment.NewEngine(fs, nil, 7, logger)
	reg, err := registry.New(engine, fs, registry.Options{}, registry.NewMetricsStore(), logger)
	require.NoError(t, err)
	return NewRouter(reg, true, adminToken, logger), fs
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func executeBody(restaurants ...map[string]any) map[string]any {
	if len(restaurants) == 0 {
		restaurants = []map[string]any{{
			"restaurant_id":        uuid.NewString(),
			"city":                 "Seattle",
			"state":                "WA",
			"estimated_deliveries": 10,
			"pickup_time":          "11:30",
			"payment_rate":         25,
			"payment_type":         "hourly",
		}}
	}
	return map[string]any{
		"date":        "2025-06-02",
		"restaurants": restaurants,
	}
}

func TestExecuteAssignment(t *testing.T) {
	h, fs := newTestRouter(t, "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/assignments/execute", executeBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result assignment.AlgorithmResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "weighted-scoring", result.Algorithm)
	assert.Equal(t, 1, result.SuccessfulAssignments)
	assert.Len(t, fs.created, 1)
}

func TestExecuteAssignmentWithStrategy(t *testing.T) {
	h, _ := newTestRouter(t, "")

	body := executeBody()
	body["strategy"] = "simple"
	rec := doJSON(t, h, http.MethodPost, "/api/v1/assignments/execute", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result assignment.AlgorithmResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "simple", result.Algorithm)
}

func TestExecuteAssignmentValidation(t *testing.T) {
	h, _ := newTestRouter(t, "")

	t.Run("invalid date", func(t *testing.T) {
		body := executeBody()
		body["date"] = "June 2nd"
		rec := doJSON(t, h, http.MethodPost, "/api/v1/assignments/execute", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty restaurants", func(t *testing.T) {
		body := map[string]any{"date": "2025-06-02", "restaurants": []any{}}
		rec := doJSON(t, h, http.MethodPost, "/api/v1/assignments/execute", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		body := executeBody()
		body["strategy"] = "round-robin"
		rec := doJSON(t, h, http.MethodPost, "/api/v1/assignments/execute", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/execute", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCompareAssignments(t *testing.T) {
	h, _ := newTestRouter(t, "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/assignments/compare", executeBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results map[string]assignment.AlgorithmResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results, 4)
	for name, res := range results {
		assert.Equal(t, name, res.Algorithm)
		assert.Equal(t, 1, res.TotalRequested)
	}
}

func TestBenchmarkAssignments(t *testing.T) {
	h, _ := newTestRouter(t, "")

	body := map[string]any{
		"samples":    []any{executeBody(), executeBody()},
		"strategies": []string{"simple", "geographic"},
	}
	rec := doJSON(t, h, http.MethodPost, "/api/v1/assignments/benchmark", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results map[string]registry.BenchmarkSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)
	for _, summary := range results {
		assert.Equal(t, 2, summary.TotalRuns)
		assert.Equal(t, float64(100), summary.MeanSuccessRate)
	}
}

func TestBenchmarkRequiresSamples(t *testing.T) {
	h, _ := newTestRouter(t, "")
	rec := doJSON(t, h, http.MethodPost, "/api/v1/assignments/benchmark", map[string]any{"samples": []any{}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetailedScoring(t *testing.T) {
	h, _ := newTestRouter(t, "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/scoring/detailed", executeBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var scores map[string][]assignment.DriverScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scores))
	require.Len(t, scores, 1)
	for _, list := range scores {
		assert.Len(t, list, 2)
	}
}

func TestWeightsEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, "hunter2")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/scoring/weights", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var weights assignment.WeightConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &weights))
	assert.InDelta(t, 1.0, weights.Sum(), 1e-9)

	update := map[string]any{"location": 1, "proximity": 1, "performance": 1, "workload": 1}

	t.Run("rejected without token", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/api/v1/scoring/weights", update, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepted with token", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/api/v1/scoring/weights", update, map[string]string{
			"Authorization": "Bearer hunter2",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated assignment.WeightConfig
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.InDelta(t, 0.25, updated.Location, 1e-9)
	})

	t.Run("all-zero rejected", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/api/v1/scoring/weights", map[string]any{}, map[string]string{
			"Authorization": "Bearer hunter2",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWorkloadDistributionEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, "")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/workload/distribution?date=2025-06-02", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var reports []assignment.WorkloadReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	assert.Len(t, reports, 2)

	t.Run("missing date", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/v1/workload/distribution", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad driver id", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/v1/workload/distribution?date=2025-06-02&driver_ids=nope", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStrategiesEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, "")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/strategies", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Strategies []string `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"simple", "geographic", "workload-balancing", "weighted-scoring"}, body.Strategies)
}

func TestMetricsEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, "hunter2")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/metrics/algorithms/simple", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := executeBody()
	body["strategy"] = "simple"
	rec = doJSON(t, h, http.MethodPost, "/api/v1/assignments/execute", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/metrics/algorithms/simple", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var m registry.AlgorithmMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, 1, m.TotalRuns)

	t.Run("reset requires token", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/metrics/reset?strategy=simple", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("reset clears metrics", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/metrics/reset?strategy=simple", nil, map[string]string{
			"Authorization": "Bearer hunter2",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/api/v1/metrics/algorithms/simple", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, "")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health registry.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 4, health.StrategyCount)
}
