package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tiffinarca/driver-server-sub000/internal/registry"
)

func NewRouter(reg *registry.Registry, geoPrefilterDefault bool, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(PrometheusMiddleware)
	r.Use(RateLimitMiddleware(120))

	assignments := NewAssignmentsHandler(reg, geoPrefilterDefault)
	scoring := NewScoringHandler(reg, geoPrefilterDefault)
	admin := NewAdminHandler(reg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/assignments/execute", assignments.Execute)
		r.Post("/assignments/compare", assignments.Compare)
		r.Post("/assignments/benchmark", assignments.Benchmark)

		r.Post("/scoring/detailed", scoring.Detailed)
		r.Get("/scoring/weights", scoring.GetWeights)

		r.Get("/workload/distribution", scoring.WorkloadDistribution)

		r.Get("/strategies", admin.Strategies)
		r.Get("/metrics/algorithms", admin.Metrics)
		r.Get("/metrics/algorithms/{name}", admin.StrategyMetrics)
		r.Get("/health", admin.Health)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Put("/scoring/weights", scoring.UpdateWeights)
			r.Post("/metrics/reset", admin.ResetMetrics)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
