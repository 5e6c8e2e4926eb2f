package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tiffinarca/driver-server-sub000/internal/registry"
)

type AdminHandler struct {
	registry *registry.Registry
}

func NewAdminHandler(r *registry.Registry) *AdminHandler {
	return &AdminHandler{registry: r}
}

// Strategies handles GET /api/v1/strategies
func (h *AdminHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": registry.AvailableStrategies(),
	})
}

// Metrics handles GET /api/v1/metrics/algorithms
func (h *AdminHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Metrics())
}

// StrategyMetrics handles GET /api/v1/metrics/algorithms/{name}
func (h *AdminHandler) StrategyMetrics(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	m, ok := h.registry.StrategyMetrics(name)
	if !ok {
		writeError(w, http.StatusNotFound, "no metrics recorded for strategy "+name)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ResetMetrics handles POST /api/v1/metrics/reset?strategy=name
func (h *AdminHandler) ResetMetrics(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("strategy")
	h.registry.ResetMetrics(name)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Health handles GET /api/v1/health
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Health())
}
