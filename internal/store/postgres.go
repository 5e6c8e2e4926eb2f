package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// FetchEligibleDrivers returns drivers that are active, have the date's
// weekday marked available in their weekly schedule, and have no
// date-specific availability block, together with their service areas and
// the number of assignments already held for the date.
func (s *PostgresStore) FetchEligibleDrivers(ctx context.Context, date time.Time) ([]*DriverCandidate, error) {
	weekday := int(date.Weekday())
	day := date.Format("2006-01-02")

	rows, err := s.pool.Query(ctx, `
		SELECT d.driver_id, d.name,
			COALESCE((
				SELECT COUNT(*) FROM assignments a
				WHERE a.driver_id = d.driver_id AND a.assignment_date = $2
			), 0) AS current_assignments
		FROM drivers d
		JOIN driver_schedules ds
			ON ds.driver_id = d.driver_id AND ds.weekday = $1 AND ds.available
		WHERE d.active
			AND NOT EXISTS (
				SELECT 1 FROM driver_availability_blocks b
				WHERE b.driver_id = d.driver_id AND b.block_date = $2
			)
		ORDER BY d.name ASC`, weekday, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*DriverCandidate
	for rows.Next() {
		c := &DriverCandidate{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CurrentAssignments); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range candidates {
		areas, err := s.serviceAreas(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.ServiceAreas = areas
	}
	return candidates, nil
}

func (s *PostgresStore) serviceAreas(ctx context.Context, driverID uuid.UUID) ([]ServiceArea, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, city, state, latitude, longitude, radius_km
		FROM driver_service_areas
		WHERE driver_id = $1
		ORDER BY name ASC`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []ServiceArea
	for rows.Next() {
		var a ServiceArea
		if err := rows.Scan(&a.Name, &a.City, &a.State, &a.Latitude, &a.Longitude, &a.RadiusKm); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// FetchDriverWorkload aggregates a driver's assignment history over
// [startDate, endDate] inclusive.
func (s *PostgresStore) FetchDriverWorkload(ctx context.Context, driverID uuid.UUID, startDate, endDate time.Time) (*DriverWorkload, error) {
	w := &DriverWorkload{}
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(delivery_count), 0)
		FROM assignments
		WHERE driver_id = $1
			AND assignment_date >= $2 AND assignment_date <= $3`,
		driverID, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"),
	).Scan(&w.TotalAssignments, &w.CompletedAssignments, &w.AverageDeliveries)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// CreateAssignment inserts one assignment row. The unique index on
// (driver_id, restaurant_id, assignment_date) is the idempotency guard;
// hitting it yields Success=false rather than an error.
func (s *PostgresStore) CreateAssignment(ctx context.Context, params CreateAssignmentParams) (*CreateAssignmentResult, error) {
	var active bool
	err := s.pool.QueryRow(ctx, `
		SELECT active FROM drivers WHERE driver_id = $1`, params.DriverID,
	).Scan(&active)
	if err == pgx.ErrNoRows {
		return &CreateAssignmentResult{Success: false, Error: "driver not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	if !active {
		return &CreateAssignmentResult{Success: false, Error: "driver is no longer active"}, nil
	}

	var id uuid.UUID
	err = s.pool.QueryRow(ctx, `
		INSERT INTO assignments (driver_id, restaurant_id, assignment_date,
			pickup_time, estimated_deliveries, payment_rate, payment_type,
			algorithm_score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'scheduled')
		RETURNING id`,
		params.DriverID, params.RestaurantID, params.Date.Format("2006-01-02"),
		params.PickupTime, params.EstimatedDeliveries, params.PaymentRate,
		params.PaymentType, params.AlgorithmScore,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &CreateAssignmentResult{
				Success: false,
				Error:   "driver already assigned to this restaurant for this date",
			}, nil
		}
		return nil, err
	}

	return &CreateAssignmentResult{Success: true, AssignmentID: id}, nil
}
