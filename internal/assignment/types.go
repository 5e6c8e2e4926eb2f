package assignment

import (
	"time"

	"github.com/google/uuid"
)

// RestaurantRequest is one unit of work: a restaurant needing a driver for
// the assignment date. Immutable once handed to the engine.
type RestaurantRequest struct {
	RestaurantID        uuid.UUID `json:"restaurant_id"`
	Name                string    `json:"name,omitempty"`
	City                string    `json:"city"`
	State               string    `json:"state"`
	Latitude            *float64  `json:"latitude,omitempty"`
	Longitude           *float64  `json:"longitude,omitempty"`
	EstimatedDeliveries int       `json:"estimated_deliveries"`
	PickupTime          string    `json:"pickup_time"`
	PaymentRate         float64   `json:"payment_rate"`
	PaymentType         string    `json:"payment_type"`
	Priority            int       `json:"priority,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (r *RestaurantRequest) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// RunConfig carries the per-run knobs of the assignment engine. A zero
// LookbackDays means "use the engine default".
type RunConfig struct {
	GeoPrefilter bool `json:"geo_prefilter"`
	LookbackDays int  `json:"lookback_days,omitempty"`
}

// Request is one full assignment batch: every restaurant needing a driver
// for one date.
type Request struct {
	Date        time.Time           `json:"date"`
	Restaurants []RestaurantRequest `json:"restaurants"`
	Config      RunConfig           `json:"config"`
}

// Clone returns a deep copy. Comparison runs hand each strategy its own
// copy so that no run can perturb a sibling's input.
func (r *Request) Clone() *Request {
	out := &Request{
		Date:        r.Date,
		Config:      r.Config,
		Restaurants: make([]RestaurantRequest, len(r.Restaurants)),
	}
	for i, rr := range r.Restaurants {
		c := rr
		if rr.Latitude != nil {
			lat := *rr.Latitude
			c.Latitude = &lat
		}
		if rr.Longitude != nil {
			lon := *rr.Longitude
			c.Longitude = &lon
		}
		out.Restaurants[i] = c
	}
	return out
}

// ScoreBreakdown is the four component scores behind a total, each 0-100.
type ScoreBreakdown struct {
	Location    float64 `json:"location"`
	Proximity   float64 `json:"proximity"`
	Performance float64 `json:"performance"`
	Workload    float64 `json:"workload"`
}

// DriverScore is one candidate's total score with its breakdown.
type DriverScore struct {
	DriverID   uuid.UUID      `json:"driver_id"`
	DriverName string         `json:"driver_name,omitempty"`
	TotalScore float64        `json:"total_score"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
}

// AssignmentResult is the terminal per-restaurant outcome of one run.
type AssignmentResult struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Success      bool      `json:"success"`
	DriverID     uuid.UUID `json:"driver_id,omitempty"`
	DriverName   string    `json:"driver_name,omitempty"`
	Score        *float64  `json:"score,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// AlgorithmResult aggregates one engine run. It is never mutated after
// return and is safe to share read-only.
type AlgorithmResult struct {
	Algorithm             string             `json:"algorithm"`
	Date                  time.Time          `json:"date"`
	Results               []AssignmentResult `json:"results"`
	TotalRequested        int                `json:"total_requested"`
	SuccessfulAssignments int                `json:"successful_assignments"`
	FailedAssignments     int                `json:"failed_assignments"`
	AverageScore          *float64           `json:"average_score,omitempty"`
	ExecutionMs           float64            `json:"execution_ms"`
}

// WorkloadReport is one row of the workload-balancing strategy's read-only
// distribution report: the composite score plus the raw inputs behind it.
type WorkloadReport struct {
	DriverID             uuid.UUID `json:"driver_id"`
	DriverName           string    `json:"driver_name"`
	Score                float64   `json:"score"`
	RecentAssignments    int       `json:"recent_assignments"`
	CompletedAssignments int       `json:"completed_assignments"`
	AverageDeliveries    float64   `json:"average_deliveries"`
	CompletionRate       float64   `json:"completion_rate"`
	CurrentAssignments   int       `json:"current_assignments"`
}
