package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pkordes/eld-logbook/internal/clock"
	"github.com/pkordes/eld-logbook/internal/domain"
	"github.com/pkordes/eld-logbook/internal/events"
	"github.com/pkordes/eld-logbook/internal/hos"
	"github.com/pkordes/eld-logbook/internal/metrics"
	"github.com/pkordes/eld-logbook/internal/repo"
)

// Generator plans a timed log. *hos.Generator satisfies it.
type Generator interface {
	Generate(in hos.Input) ([]domain.ActivitySegment, error)
}

// LogService generates and reads trips' activity logs.
type LogService struct {
	trips     repo.TripRepo
	logs      repo.ActivityLogRepo
	generator Generator
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	newRunID  func() uuid.UUID
	clock     clock.Clock
}

// LogServiceOption configures a LogService.
type LogServiceOption func(*LogService)

// WithEventClock sets the clock that stamps published events.
// The default is clock.Real.
func WithEventClock(c clock.Clock) LogServiceOption {
	return func(s *LogService) { s.clock = c }
}

// NewLogService wires a LogService. A nil publisher becomes events.Noop and
// nil metrics record nothing.
func NewLogService(
	trips repo.TripRepo,
	logs repo.ActivityLogRepo,
	gen Generator,
	pub events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...LogServiceOption,
) *LogService {
	if pub == nil {
		pub = events.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &LogService{
		trips:     trips,
		logs:      logs,
		generator: gen,
		publisher: pub,
		metrics:   m,
		logger:    logger,
		newRunID:  uuid.New,
		clock:     clock.Real{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate plans a new log run for the trip and persists it atomically.
// A missing trip yields domain.ErrNotFound with no side effects. A driver
// already at the cycle limit gets an empty run, which is not stored.
func (s *LogService) Generate(ctx context.Context, tripID int64) ([]domain.ActivitySegment, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		s.metrics.ObserveRun(outcomeFor(err), nil)
		return nil, fmt.Errorf("service.LogService.Generate: %w", err)
	}

	segments, err := s.generator.Generate(hos.Input{
		CycleHoursUsed:  trip.CurrentCycleUsed,
		PickupLocation:  trip.PickupLocation,
		DropoffLocation: trip.DropoffLocation,
	})
	if err != nil {
		s.metrics.ObserveRun(outcomeFor(err), nil)
		return nil, fmt.Errorf("service.LogService.Generate: %w", err)
	}
	if len(segments) == 0 {
		s.metrics.ObserveRun(metrics.OutcomeSuccess, nil)
		s.logger.InfoContext(ctx, "no log generated, cycle exhausted", "trip_id", trip.ID)
		return []domain.ActivitySegment{}, nil
	}

	runID := s.newRunID()
	for i := range segments {
		segments[i].TripID = trip.ID
		segments[i].RunID = runID
		segments[i].Seq = i
	}

	saved, err := s.logs.CreateMany(ctx, trip.ID, segments)
	if err != nil {
		s.metrics.ObserveRun(outcomeFor(err), nil)
		return nil, fmt.Errorf("service.LogService.Generate: %w", err)
	}
	s.metrics.ObserveRun(metrics.OutcomeSuccess, saved)

	s.logger.InfoContext(ctx, "log generated",
		"trip_id", trip.ID,
		"run_id", runID.String(),
		"segments", len(saved),
	)

	evt := events.NewLogsGenerated(trip.ID, runID, saved, s.clock.Now())
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.WarnContext(ctx, "publish event failed",
			"topic", evt.TopicName(),
			"trip_id", trip.ID,
			"error", err.Error(),
		)
	}
	return saved, nil
}

// ListByTrip returns every stored segment of a trip in run and emission order.
func (s *LogService) ListByTrip(ctx context.Context, tripID int64) ([]domain.ActivitySegment, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.LogService.ListByTrip: %w", err)
	}
	segs, err := s.logs.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.LogService.ListByTrip: %w", err)
	}
	return segs, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrValidation):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
