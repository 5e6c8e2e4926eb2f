package assignment

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/tiffinarca/driver-server-sub000/internal/geo"
	"github.com/tiffinarca/driver-server-sub000/internal/store"
)

// Selection is one strategy's pick for a restaurant.
type Selection struct {
	Driver *store.DriverCandidate
	Score  float64
}

// Strategy is one interchangeable driver-selection policy. SelectDriver
// returns nil when no candidate is acceptable; candidates arrive enriched
// with recent-delivery and completion-rate history. Ties on score always go
// to the earlier candidate in the input order.
type Strategy interface {
	Name() string
	SelectDriver(ctx context.Context, candidates []*store.DriverCandidate, req *RestaurantRequest, date time.Time) (*Selection, error)
}

// matchingAreas returns the candidate's service areas whose city and state
// exactly equal the restaurant's, case-insensitive.
func matchingAreas(c *store.DriverCandidate, req *RestaurantRequest) []store.ServiceArea {
	var out []store.ServiceArea
	for _, a := range c.ServiceAreas {
		if strings.EqualFold(a.City, req.City) && strings.EqualFold(a.State, req.State) {
			out = append(out, a)
		}
	}
	return out
}

// minRadiusKm returns the smallest coverage radius among areas.
func minRadiusKm(areas []store.ServiceArea) float64 {
	min := math.Inf(1)
	for _, a := range areas {
		if a.RadiusKm < min {
			min = a.RadiusKm
		}
	}
	return min
}

// nearestAreaKm returns the distance from the restaurant to the closest of
// the given service areas. ok is false when the restaurant has no
// coordinates or there are no areas to measure against.
func nearestAreaKm(areas []store.ServiceArea, req *RestaurantRequest) (float64, bool) {
	if !req.HasCoordinates() || len(areas) == 0 {
		return 0, false
	}
	best := math.Inf(1)
	for _, a := range areas {
		d := geo.DistanceKm(*req.Latitude, *req.Longitude, a.Latitude, a.Longitude)
		if d < best {
			best = d
		}
	}
	return best, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
