package registry

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tiffinarca/driver-server-sub000/internal/assignment"
	"github.com/tiffinarca/driver-server-sub000/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory Store. FetchEligibleDrivers returns fresh
// copies with CurrentAssignments bumped by assignments created so far for
// the date, matching the real store's read-your-writes behavior.
type fakeStore struct {
	drivers   []*store.DriverCandidate
	workloads map[uuid.UUID]*store.DriverWorkload

	fetchErr error

	created []store.CreateAssignmentParams
}

func newFakeStore(drivers ...*store.DriverCandidate) *fakeStore {
	return &fakeStore{
		drivers:   drivers,
		workloads: make(map[uuid.UUID]*store.DriverWorkload),
	}
}

func (f *fakeStore) FetchEligibleDrivers(_ context.Context, date time.Time) ([]*store.DriverCandidate, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
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

func (f *fakeStore) FetchDriverWorkload(_ context.Context, driverID uuid.UUID, _, _ time.Time) (*store.DriverWorkload, error) {
	if w, ok := f.workloads[driverID]; ok {
		return w, nil
	}
	return &store.DriverWorkload{}, nil
}

func (f *fakeStore) CreateAssignment(_ context.Context, params store.CreateAssignmentParams) (*store.CreateAssignmentResult, error) {
	day := params.Date.Format("2006-01-02")
	for _, p := range f.created {
		if p.DriverID == params.DriverID && p.RestaurantID == params.RestaurantID && p.Date.Format("2006-01-02") == day {
			return &store.CreateAssignmentResult{
				Success: false,
				Error:   "driver already assigned to this restaurant for this date",
			}, nil
		}
	}
	f.created = append(f.created, params)
	return &store.CreateAssignmentResult{Success: true, AssignmentID: uuid.New()}, nil
}

func (f *fakeStore) Close() error { return nil }

// panicStore trips the panic-containment paths in compare and benchmark.
type panicStore struct {
	fakeStore
}

func (p *panicStore) FetchEligibleDrivers(context.Context, time.Time) ([]*store.DriverCandidate, error) {
	panic("store exploded")
}

// --- builders ---

func area(city, state string, lat, lon, radiusKm float64) store.ServiceArea {
	return store.ServiceArea{
		Name:      city + "-" + state,
		City:      city,
		State:     state,
		Latitude:  lat,
		Longitude: lon,
		RadiusKm:  radiusKm,
	}
}

func candidate(name string, current int, areas ...store.ServiceArea) *store.DriverCandidate {
	return &store.DriverCandidate{
		ID:                 uuid.New(),
		Name:               name,
		ServiceAreas:       areas,
		CurrentAssignments: current,
		CompletionRate:     100,
	}
}

func restaurant(city, state string) assignment.RestaurantRequest {
	return assignment.RestaurantRequest{
		RestaurantID:        uuid.New(),
		Name:                city + " Kitchen",
		City:                city,
		State:               state,
		EstimatedDeliveries: 10,
		PickupTime:          "11:30",
		PaymentRate:         25,
		PaymentType:         "hourly",
	}
}

func testDate() time.Time {
	return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
}

func testRequest(restaurants ...assignment.RestaurantRequest) *assignment.Request {
	return &assignment.Request{Date: testDate(), Restaurants: restaurants}
}

func newTestRegistry(s store.Store, opts Options) (*Registry, error) {
	logger := discardLogger()
	engine := assignment.NewEngine(s, nil, 7, logger)
	return New(engine, s, opts, NewMetricsStore(), logger)
}
