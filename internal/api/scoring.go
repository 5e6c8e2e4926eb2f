package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tiffinarca/driver-server-sub000/internal/assignment"
	"github.com/tiffinarca/driver-server-sub000/internal/registry"
)

type ScoringHandler struct {
	registry            *registry.Registry
	geoPrefilterDefault bool
}

func NewScoringHandler(r *registry.Registry, geoPrefilterDefault bool) *ScoringHandler {
	return &ScoringHandler{registry: r, geoPrefilterDefault: geoPrefilterDefault}
}

// Detailed handles POST /api/v1/scoring/detailed
func (h *ScoringHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssignmentRequestBody
		DriverIDs []uuid.UUID `json:"driver_ids,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ah := AssignmentsHandler{registry: h.registry, geoPrefilterDefault: h.geoPrefilterDefault}
	req, err := ah.parseRequest(body.AssignmentRequestBody)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	scores, err := h.registry.DetailedScoring(r.Context(), req, body.DriverIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

// GetWeights handles GET /api/v1/scoring/weights
func (h *ScoringHandler) GetWeights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Weights())
}

// UpdateWeights handles PUT /api/v1/scoring/weights
func (h *ScoringHandler) UpdateWeights(w http.ResponseWriter, r *http.Request) {
	var weights assignment.WeightConfig
	if err := json.NewDecoder(r.Body).Decode(&weights); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.registry.UpdateWeights(weights); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.registry.Weights())
}

// WorkloadDistribution handles GET /api/v1/workload/distribution?date=YYYY-MM-DD&driver_ids=a,b
func (h *ScoringHandler) WorkloadDistribution(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing date, expected YYYY-MM-DD")
		return
	}

	var driverIDs []uuid.UUID
	if raw := r.URL.Query()["driver_ids"]; len(raw) > 0 {
		for _, v := range raw {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid driver id: "+v)
				return
			}
			driverIDs = append(driverIDs, id)
		}
	}

	reports, err := h.registry.WorkloadDistribution(r.Context(), date, driverIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reports == nil {
		reports = []assignment.WorkloadReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}
