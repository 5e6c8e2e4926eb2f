package events

// Subjects for assignment lifecycle events.
const (
	StreamName   = "TIFFIN_ASSIGNMENTS"
	StreamMaxAge = "168h"
)

func SubjectAssignmentCreated(restaurantID string) string {
	return "tiffin.assignment." + restaurantID + ".created"
}

func SubjectAssignmentUnmatched(restaurantID string) string {
	return "tiffin.assignment." + restaurantID + ".unmatched"
}

// AssignmentCreatedEvent is published when the engine persists an assignment.
type AssignmentCreatedEvent struct {
	RestaurantID string  `json:"restaurant_id"`
	DriverID     string  `json:"driver_id"`
	Date         string  `json:"date"`
	Algorithm    string  `json:"algorithm"`
	Score        float64 `json:"score"`
}

// AssignmentUnmatchedEvent is published when a restaurant cannot be served.
type AssignmentUnmatchedEvent struct {
	RestaurantID string `json:"restaurant_id"`
	Date         string `json:"date"`
	Algorithm    string `json:"algorithm"`
	Reason       string `json:"reason"`
}
