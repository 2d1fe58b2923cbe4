package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// ActivityLogRepo persists generated log segments.
type ActivityLogRepo interface {
	// CreateMany writes one generation run atomically, in slice order, and
	// returns the persisted segments. Concurrent runs for the same trip are
	// serialised. Returns domain.ErrNotFound if the trip does not exist.
	CreateMany(ctx context.Context, tripID int64, segments []domain.ActivitySegment) ([]domain.ActivitySegment, error)

	// ListByTrip returns every segment of a trip, oldest run first and in
	// emission order within a run.
	ListByTrip(ctx context.Context, tripID int64) ([]domain.ActivitySegment, error)
}

type pgActivityLogRepo struct {
	db db
}

// NewActivityLogRepo constructs an ActivityLogRepo backed by the provided db connection.
func NewActivityLogRepo(db db) ActivityLogRepo {
	return &pgActivityLogRepo{db: db}
}

const activityLogColumns = `id, trip_id, run_id, seq, day, activity_type,
		start_time, end_time, location, hours, created_at`

func (r *pgActivityLogRepo) CreateMany(ctx context.Context, tripID int64, segments []domain.ActivitySegment) ([]domain.ActivitySegment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.ActivityLogRepo.CreateMany: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(@trip_id)`, pgx.NamedArgs{"trip_id": tripID}); err != nil {
		return nil, fmt.Errorf("repo.ActivityLogRepo.CreateMany: lock: %w", err)
	}

	// FOR SHARE keeps the trip from being deleted underneath the run.
	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trips WHERE id = @trip_id FOR SHARE)`,
		pgx.NamedArgs{"trip_id": tripID},
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("repo.ActivityLogRepo.CreateMany: check trip: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("repo.ActivityLogRepo.CreateMany: %w", domain.ErrNotFound)
	}

	const q = `
		INSERT INTO activity_logs (trip_id, run_id, seq, day, activity_type,
		                           start_time, end_time, location, hours)
		VALUES (@trip_id, @run_id, @seq, @day, @activity_type,
		        @start_time, @end_time, @location, @hours)
		RETURNING ` + activityLogColumns

	out := make([]domain.ActivitySegment, 0, len(segments))
	for _, s := range segments {
		args := pgx.NamedArgs{
			"trip_id":       tripID,
			"run_id":        s.RunID,
			"seq":           s.Seq,
			"day":           s.Day,
			"activity_type": string(s.ActivityType),
			"start_time":    s.StartTime,
			"end_time":      s.EndTime,
			"location":      s.Location, // nil becomes NULL
			"hours":         s.Hours,
		}
		saved, err := scanActivitySegment(tx.QueryRow(ctx, q, args))
		if err != nil {
			return nil, fmt.Errorf("repo.ActivityLogRepo.CreateMany: insert seq %d: %w", s.Seq, err)
		}
		out = append(out, saved)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repo.ActivityLogRepo.CreateMany: commit: %w", err)
	}
	return out, nil
}

func (r *pgActivityLogRepo) ListByTrip(ctx context.Context, tripID int64) ([]domain.ActivitySegment, error) {
	// Runs are written under a per-trip lock, so id order is run order
	// followed by seq order.
	const q = `
		SELECT ` + activityLogColumns + `
		FROM activity_logs
		WHERE trip_id = @trip_id
		ORDER BY id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ActivityLogRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	segments := []domain.ActivitySegment{}
	for rows.Next() {
		s, err := scanActivitySegment(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ActivityLogRepo.ListByTrip: scan: %w", err)
		}
		segments = append(segments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ActivityLogRepo.ListByTrip: rows: %w", err)
	}
	return segments, nil
}

// scanActivitySegment maps a single database row into a domain.ActivitySegment.
func scanActivitySegment(s scanner) (domain.ActivitySegment, error) {
	var (
		a        domain.ActivitySegment
		runID    pgtype.UUID
		activity string
		location pgtype.Text
	)

	err := s.Scan(&a.ID, &a.TripID, &runID, &a.Seq, &a.Day, &activity,
		&a.StartTime, &a.EndTime, &location, &a.Hours, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ActivitySegment{}, domain.ErrNotFound
		}
		return domain.ActivitySegment{}, err
	}

	a.RunID = runID.Bytes
	a.ActivityType = domain.ActivityType(activity)
	a.StartTime = a.StartTime.UTC()
	a.EndTime = a.EndTime.UTC()
	if location.Valid {
		l := location.String
		a.Location = &l
	}
	return a, nil
}
