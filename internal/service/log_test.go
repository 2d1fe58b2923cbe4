package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eld-logbook/internal/clock"
	"github.com/pkordes/eld-logbook/internal/domain"
	"github.com/pkordes/eld-logbook/internal/events"
	"github.com/pkordes/eld-logbook/internal/hos"
	"github.com/pkordes/eld-logbook/internal/metrics"
	"github.com/pkordes/eld-logbook/internal/repo"
	"github.com/pkordes/eld-logbook/internal/service"
)

type mockActivityLogRepo struct {
	createMany func(ctx context.Context, tripID int64, segs []domain.ActivitySegment) ([]domain.ActivitySegment, error)
	listByTrip func(ctx context.Context, tripID int64) ([]domain.ActivitySegment, error)
}

func (m *mockActivityLogRepo) CreateMany(ctx context.Context, tripID int64, segs []domain.ActivitySegment) ([]domain.ActivitySegment, error) {
	return m.createMany(ctx, tripID, segs)
}
func (m *mockActivityLogRepo) ListByTrip(ctx context.Context, tripID int64) ([]domain.ActivitySegment, error) {
	return m.listByTrip(ctx, tripID)
}

var _ repo.ActivityLogRepo = (*mockActivityLogRepo)(nil)

type mockPublisher struct {
	published []events.Event
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, evt events.Event) error {
	m.published = append(m.published, evt)
	return m.err
}
func (m *mockPublisher) Close() error { return nil }

var logStart = time.Date(2025, 3, 21, 8, 0, 0, 0, time.UTC)

func newGenerator() *hos.Generator {
	return hos.NewGenerator(hos.WithClock(clock.NewMock(logStart)))
}

func tripRepoWith(trip domain.Trip) *mockTripRepo {
	return &mockTripRepo{getByID: func(_ context.Context, id int64) (domain.Trip, error) {
		if id != trip.ID {
			return domain.Trip{}, domain.ErrNotFound
		}
		return trip, nil
	}}
}

// savingRepo assigns IDs in order and remembers what it was given.
func savingRepo(got *[]domain.ActivitySegment) *mockActivityLogRepo {
	return &mockActivityLogRepo{
		createMany: func(_ context.Context, _ int64, segs []domain.ActivitySegment) ([]domain.ActivitySegment, error) {
			*got = append([]domain.ActivitySegment(nil), segs...)
			out := make([]domain.ActivitySegment, len(segs))
			for i, s := range segs {
				s.ID = int64(100 + i)
				out[i] = s
			}
			return out, nil
		},
	}
}

func TestLogService_Generate_FreshDriver(t *testing.T) {
	trip := domain.Trip{ID: 1, PickupLocation: "Des Moines, IA", DropoffLocation: "Denver, CO", CurrentCycleUsed: 0}
	var stored []domain.ActivitySegment
	pub := &mockPublisher{}
	m := metrics.New()
	svc := service.NewLogService(tripRepoWith(trip), savingRepo(&stored), newGenerator(), pub, m, discardLogger())

	got, err := svc.Generate(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, got, 13)
	assert.Len(t, stored, 13)

	runID := got[0].RunID
	assert.NotEqual(t, uuid.Nil, runID)
	for i, s := range got {
		assert.Equal(t, int64(1), s.TripID)
		assert.Equal(t, runID, s.RunID)
		assert.Equal(t, i, s.Seq)
		assert.Equal(t, int64(100+i), s.ID)
	}
	assert.Equal(t, domain.ActivityReset34H, got[12].ActivityType)

	require.Len(t, pub.published, 1)
	evt, ok := pub.published[0].(*events.LogsGenerated)
	require.True(t, ok)
	assert.Equal(t, int64(1), evt.TripID)
	assert.Equal(t, runID, evt.RunID)
	assert.Equal(t, 13, evt.Segments)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LogRunsTotal.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.LogSegmentsTotal.WithLabelValues("Driving")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LogSegmentsTotal.WithLabelValues("Reset34H")))
}

func TestLogService_Generate_EventStampedByClock(t *testing.T) {
	trip := domain.Trip{ID: 4, PickupLocation: "P", DropoffLocation: "D", CurrentCycleUsed: 50}
	var stored []domain.ActivitySegment
	pub := &mockPublisher{}
	eventAt := time.Date(2025, 3, 22, 14, 30, 0, 0, time.FixedZone("CST", -6*60*60))
	svc := service.NewLogService(tripRepoWith(trip), savingRepo(&stored), newGenerator(), pub, nil, discardLogger(),
		service.WithEventClock(clock.NewMock(eventAt)))

	_, err := svc.Generate(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	evt, ok := pub.published[0].(*events.LogsGenerated)
	require.True(t, ok)
	assert.True(t, eventAt.Equal(evt.GeneratedAt))
	assert.Equal(t, time.UTC, evt.GeneratedAt.Location())
}

func TestLogService_Generate_RestartFirst(t *testing.T) {
	trip := domain.Trip{ID: 2, PickupLocation: "P", DropoffLocation: "D", CurrentCycleUsed: 65}
	var stored []domain.ActivitySegment
	svc := service.NewLogService(tripRepoWith(trip), savingRepo(&stored), newGenerator(), nil, nil, discardLogger())

	got, err := svc.Generate(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, got, 11)
	assert.Equal(t, domain.ActivityReset34H, got[0].ActivityType)
	assert.Equal(t, 1, got[0].Day)
	assert.Equal(t, 3, got[1].Day)
}

func TestLogService_Generate_CycleExhausted(t *testing.T) {
	trip := domain.Trip{ID: 3, PickupLocation: "P", DropoffLocation: "D", CurrentCycleUsed: 70}
	logs := &mockActivityLogRepo{} // CreateMany would panic if called
	pub := &mockPublisher{}
	svc := service.NewLogService(tripRepoWith(trip), logs, newGenerator(), pub, nil, discardLogger())

	got, err := svc.Generate(context.Background(), 3)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, pub.published)
}

func TestLogService_Generate_TripNotFound(t *testing.T) {
	logs := &mockActivityLogRepo{} // any call would panic
	pub := &mockPublisher{}
	m := metrics.New()
	svc := service.NewLogService(tripRepoWith(domain.Trip{ID: 1}), logs, newGenerator(), pub, m, discardLogger())

	got, err := svc.Generate(context.Background(), 999)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, got)
	assert.Empty(t, pub.published)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LogRunsTotal.WithLabelValues(metrics.OutcomeNotFound)))
}

func TestLogService_Generate_InvalidStoredCycle(t *testing.T) {
	trip := domain.Trip{ID: 4, PickupLocation: "P", DropoffLocation: "D", CurrentCycleUsed: 80}
	svc := service.NewLogService(tripRepoWith(trip), &mockActivityLogRepo{}, newGenerator(), nil, nil, discardLogger())

	_, err := svc.Generate(context.Background(), 4)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLogService_Generate_PersistFailure(t *testing.T) {
	trip := domain.Trip{ID: 5, PickupLocation: "P", DropoffLocation: "D"}
	dbErr := errors.New("deadlock detected")
	logs := &mockActivityLogRepo{
		createMany: func(context.Context, int64, []domain.ActivitySegment) ([]domain.ActivitySegment, error) {
			return nil, dbErr
		},
	}
	pub := &mockPublisher{}
	svc := service.NewLogService(tripRepoWith(trip), logs, newGenerator(), pub, nil, discardLogger())

	got, err := svc.Generate(context.Background(), 5)

	assert.ErrorIs(t, err, dbErr)
	assert.Nil(t, got)
	assert.Empty(t, pub.published, "no event for a run that was not stored")
}

func TestLogService_Generate_PublishFailureIsNotFatal(t *testing.T) {
	trip := domain.Trip{ID: 6, PickupLocation: "P", DropoffLocation: "D", CurrentCycleUsed: 59.5}
	var stored []domain.ActivitySegment
	pub := &mockPublisher{err: errors.New("broker unavailable")}
	svc := service.NewLogService(tripRepoWith(trip), savingRepo(&stored), newGenerator(), pub, nil, discardLogger())

	got, err := svc.Generate(context.Background(), 6)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 10.5, got[0].Hours)
	assert.Len(t, pub.published, 1)
}

func TestLogService_Generate_NewRunEachCall(t *testing.T) {
	trip := domain.Trip{ID: 7, PickupLocation: "P", DropoffLocation: "D", CurrentCycleUsed: 40}
	var stored []domain.ActivitySegment
	svc := service.NewLogService(tripRepoWith(trip), savingRepo(&stored), newGenerator(), nil, nil, discardLogger())

	first, err := svc.Generate(context.Background(), 7)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), 7)
	require.NoError(t, err)

	assert.NotEqual(t, first[0].RunID, second[0].RunID)
}

func TestLogService_ListByTrip(t *testing.T) {
	trip := domain.Trip{ID: 8}
	want := []domain.ActivitySegment{{ID: 1, TripID: 8}, {ID: 2, TripID: 8}}
	logs := &mockActivityLogRepo{
		listByTrip: func(_ context.Context, tripID int64) ([]domain.ActivitySegment, error) {
			assert.Equal(t, int64(8), tripID)
			return want, nil
		},
	}
	svc := service.NewLogService(tripRepoWith(trip), logs, newGenerator(), nil, nil, discardLogger())

	got, err := svc.ListByTrip(context.Background(), 8)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLogService_ListByTrip_NotFound(t *testing.T) {
	svc := service.NewLogService(tripRepoWith(domain.Trip{ID: 1}), &mockActivityLogRepo{}, newGenerator(), nil, nil, discardLogger())

	_, err := svc.ListByTrip(context.Background(), 2)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
