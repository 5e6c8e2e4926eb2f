package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ServiceArea is one named coverage zone a driver serves.
type ServiceArea struct {
	Name      string  `json:"name"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
}

// DriverCandidate is a driver eligible for assignment on a given date.
// CurrentAssignments reflects assignments already held for that date;
// RecentDeliveries and CompletionRate are filled in by enrichment from the
// historical workload window and are zero until then.
type DriverCandidate struct {
	ID           uuid.UUID     `json:"driver_id"`
	Name         string        `json:"name"`
	ServiceAreas []ServiceArea `json:"service_areas"`

	CurrentAssignments int `json:"current_assignments"`

	// Enrichment
	RecentDeliveries float64 `json:"recent_deliveries"`
	CompletionRate   float64 `json:"completion_rate"`
}

// DriverWorkload summarises a driver's assignment history over a window.
type DriverWorkload struct {
	TotalAssignments     int     `json:"total_assignments"`
	CompletedAssignments int     `json:"completed_assignments"`
	AverageDeliveries    float64 `json:"average_deliveries"`
}

// CreateAssignmentParams carries everything needed to persist one assignment.
type CreateAssignmentParams struct {
	DriverID            uuid.UUID `json:"driver_id"`
	RestaurantID        uuid.UUID `json:"restaurant_id"`
	Date                time.Time `json:"date"`
	PickupTime          string    `json:"pickup_time"`
	EstimatedDeliveries int       `json:"estimated_deliveries"`
	PaymentRate         float64   `json:"payment_rate"`
	PaymentType         string    `json:"payment_type"`
	AlgorithmScore      float64   `json:"algorithm_score"`
}

// CreateAssignmentResult reports the outcome of an assignment write. Domain
// validation failures (duplicate driver+restaurant+date, driver no longer
// eligible) surface here with Success=false; transport and query errors are
// returned as ordinary errors instead.
type CreateAssignmentResult struct {
	Success      bool      `json:"success"`
	AssignmentID uuid.UUID `json:"assignment_id,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Store is the persistence collaborator consumed by the assignment engine.
// Implementations must treat FetchEligibleDrivers as a point-in-time read:
// drivers that are active, scheduled for the date's weekday, and not blocked
// for the specific date, with per-date assignment counts included.
type Store interface {
	FetchEligibleDrivers(ctx context.Context, date time.Time) ([]*DriverCandidate, error)
	FetchDriverWorkload(ctx context.Context, driverID uuid.UUID, startDate, endDate time.Time) (*DriverWorkload, error)
	CreateAssignment(ctx context.Context, params CreateAssignmentParams) (*CreateAssignmentResult, error)

	Close() error
}
