package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tiffinarca/driver-server-sub000/internal/assignment"
	"github.com/tiffinarca/driver-server-sub000/internal/registry"
)

const dateLayout = "2006-01-02"

type AssignmentsHandler struct {
	registry            *registry.Registry
	geoPrefilterDefault bool
}

func NewAssignmentsHandler(r *registry.Registry, geoPrefilterDefault bool) *AssignmentsHandler {
	return &AssignmentsHandler{registry: r, geoPrefilterDefault: geoPrefilterDefault}
}

// AssignmentRequestBody is the wire shape of one assignment batch.
type AssignmentRequestBody struct {
	Date        string                         `json:"date"`
	Restaurants []assignment.RestaurantRequest `json:"restaurants"`
	Config      *assignment.RunConfig          `json:"config,omitempty"`
}

func (h *AssignmentsHandler) parseRequest(body AssignmentRequestBody) (*assignment.Request, error) {
	date, err := time.Parse(dateLayout, body.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", body.Date)
	}
	if len(body.Restaurants) == 0 {
		return nil, fmt.Errorf("restaurants must not be empty")
	}
	cfg := assignment.RunConfig{GeoPrefilter: h.geoPrefilterDefault}
	if body.Config != nil {
		cfg = *body.Config
	}
	return &assignment.Request{
		Date:        date,
		Restaurants: body.Restaurants,
		Config:      cfg,
	}, nil
}

// Execute handles POST /api/v1/assignments/execute
func (h *AssignmentsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssignmentRequestBody
		Strategy string `json:"strategy,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := h.parseRequest(body.AssignmentRequestBody)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.registry.ExecuteAssignment(r.Context(), req, body.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Compare handles POST /api/v1/assignments/compare
func (h *AssignmentsHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssignmentRequestBody
		Strategies []string `json:"strategies,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := h.parseRequest(body.AssignmentRequestBody)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.registry.CompareAlgorithms(r.Context(), req, body.Strategies)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Benchmark handles POST /api/v1/assignments/benchmark
func (h *AssignmentsHandler) Benchmark(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Samples    []AssignmentRequestBody `json:"samples"`
		Strategies []string                `json:"strategies,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "samples must not be empty")
		return
	}

	samples := make([]*assignment.Request, 0, len(body.Samples))
	for i, s := range body.Samples {
		req, err := h.parseRequest(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("sample %d: %s", i, err))
			return
		}
		samples = append(samples, req)
	}

	results, err := h.registry.BenchmarkAlgorithms(r.Context(), samples, body.Strategies)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}
