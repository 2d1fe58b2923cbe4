// Package repo contains all database access logic for the ELD Logbook API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
//
// Begin on a pgx.Tx opens a savepoint, so code that needs its own transaction
// still works when handed a test transaction.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id and created_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Trip, error)

	// ListPaged returns one page of trips, newest first, and the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// Delete removes a trip and, by cascade, its logs.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, current_location, pickup_location, dropoff_location,
		current_cycle_used, distance, estimated_duration, fuel_stops,
		route_geometry, created_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (current_location, pickup_location, dropoff_location,
		                   current_cycle_used, distance, estimated_duration,
		                   fuel_stops, route_geometry)
		VALUES (@current_location, @pickup_location, @dropoff_location,
		        @current_cycle_used, @distance, @estimated_duration,
		        @fuel_stops, @route_geometry)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"current_location":   trip.CurrentLocation,
		"pickup_location":    trip.PickupLocation,
		"dropoff_location":   trip.DropoffLocation,
		"current_cycle_used": trip.CurrentCycleUsed,
		"distance":           trip.Distance, // nil becomes NULL
		"estimated_duration": trip.EstimatedDuration,
		"fuel_stops":         trip.FuelStops,
		"route_geometry":     trip.RouteGeometry,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListPaged returns one page of trips ordered by created_at descending.
// The total is computed with a window function so one round-trip serves both.
func (r *pgTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const q = `
		SELECT ` + tripColumns + `, count(*) OVER () AS total
		FROM trips
		ORDER BY created_at DESC, id DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	var total int64
	for rows.Next() {
		t, err := scanTrip(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: rows: %w", err)
	}

	// A page past the end has no rows to carry the window total.
	if len(trips) == 0 && p.Page > 1 {
		if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trips`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", err)
		}
	}
	return trips, total, nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip. Any extra
// destinations are scanned after the trip columns.
func scanTrip(s scanner, extra ...any) (domain.Trip, error) {
	var (
		t        domain.Trip
		distance pgtype.Float8
		duration pgtype.Float8
	)

	dest := []any{
		&t.ID, &t.CurrentLocation, &t.PickupLocation, &t.DropoffLocation,
		&t.CurrentCycleUsed, &distance, &duration, &t.FuelStops,
		&t.RouteGeometry, &t.CreatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	if distance.Valid {
		d := distance.Float64
		t.Distance = &d
	}
	if duration.Valid {
		d := duration.Float64
		t.EstimatedDuration = &d
	}
	return t, nil
}
