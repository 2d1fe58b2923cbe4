package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eld-logbook/internal/domain"
	"github.com/pkordes/eld-logbook/internal/repo"
	"github.com/pkordes/eld-logbook/internal/service"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones your test needs.
type mockTripRepo struct {
	create    func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID   func(ctx context.Context, id int64) (domain.Trip, error)
	listPaged func(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	delete    func(ctx context.Context, id int64) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listPaged(ctx, p)
}
func (m *mockTripRepo) Delete(ctx context.Context, id int64) error {
	return m.delete(ctx, id)
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

// mockRouter records the locations it was asked to route.
type mockRouter struct {
	route func(ctx context.Context, locations ...string) (domain.Route, error)
}

func (m *mockRouter) Route(ctx context.Context, locations ...string) (domain.Route, error) {
	return m.route(ctx, locations...)
}

var _ service.Router = (*mockRouter)(nil)

// ---- helpers ---------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validTrip() domain.Trip {
	return domain.Trip{
		CurrentLocation:  "Chicago, IL",
		PickupLocation:   "Des Moines, IA",
		DropoffLocation:  "Denver, CO",
		CurrentCycleUsed: 20,
	}
}

// echoRepo returns whatever it receives, with an ID assigned.
func echoRepo() *mockTripRepo {
	return &mockTripRepo{
		create: func(_ context.Context, t domain.Trip) (domain.Trip, error) {
			t.ID = 1
			return t, nil
		},
	}
}

// ---- Create tests ----------------------------------------------------------

func TestTripService_Create_Unrouted(t *testing.T) {
	svc := service.NewTripService(echoRepo(), nil, discardLogger())

	got, err := svc.Create(context.Background(), validTrip())

	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Nil(t, got.Distance)
	assert.Nil(t, got.EstimatedDuration)
	assert.Zero(t, got.FuelStops)
}

func TestTripService_Create_TrimsLocations(t *testing.T) {
	svc := service.NewTripService(echoRepo(), nil, discardLogger())

	trip := validTrip()
	trip.PickupLocation = "  Des Moines, IA\t"

	got, err := svc.Create(context.Background(), trip)

	require.NoError(t, err)
	assert.Equal(t, "Des Moines, IA", got.PickupLocation)
}

func TestTripService_Create_MissingLocations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Trip)
	}{
		{"current", func(t *domain.Trip) { t.CurrentLocation = "" }},
		{"pickup", func(t *domain.Trip) { t.PickupLocation = "   " }},
		{"dropoff", func(t *domain.Trip) { t.DropoffLocation = "\n" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repoCalled := false
			r := &mockTripRepo{create: func(context.Context, domain.Trip) (domain.Trip, error) {
				repoCalled = true
				return domain.Trip{}, nil
			}}
			svc := service.NewTripService(r, nil, discardLogger())

			trip := validTrip()
			tc.mutate(&trip)
			_, err := svc.Create(context.Background(), trip)

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.False(t, repoCalled, "repo must not be called for invalid input")
		})
	}
}

func TestTripService_Create_CycleHoursBounds(t *testing.T) {
	tests := []struct {
		hours   float64
		wantErr bool
	}{
		{0, false},
		{70, false},
		{-0.5, true},
		{70.5, true},
	}

	for _, tc := range tests {
		svc := service.NewTripService(echoRepo(), nil, discardLogger())
		trip := validTrip()
		trip.CurrentCycleUsed = tc.hours

		_, err := svc.Create(context.Background(), trip)

		if tc.wantErr {
			assert.ErrorIs(t, err, domain.ErrValidation, "hours=%v", tc.hours)
		} else {
			assert.NoError(t, err, "hours=%v", tc.hours)
		}
	}
}

func TestTripService_Create_Routed(t *testing.T) {
	var gotLocations []string
	router := &mockRouter{route: func(_ context.Context, locations ...string) (domain.Route, error) {
		gotLocations = locations
		return domain.Route{
			DistanceMeters:  1609.34 * 1250,
			DurationSeconds: 20 * 3600,
			Geometry:        "_p~iF~ps|U",
		}, nil
	}}
	svc := service.NewTripService(echoRepo(), router, discardLogger())

	got, err := svc.Create(context.Background(), validTrip())

	require.NoError(t, err)
	assert.Equal(t, []string{"Chicago, IL", "Des Moines, IA", "Denver, CO"}, gotLocations)
	require.NotNil(t, got.Distance)
	assert.InDelta(t, 1250, *got.Distance, 1e-6)
	require.NotNil(t, got.EstimatedDuration)
	assert.InDelta(t, 20, *got.EstimatedDuration, 1e-9)
	assert.Equal(t, 1, got.FuelStops)
	assert.Equal(t, "_p~iF~ps|U", got.RouteGeometry)
}

func TestTripService_Create_RoutingFailureAborts(t *testing.T) {
	repoCalled := false
	r := &mockTripRepo{create: func(context.Context, domain.Trip) (domain.Trip, error) {
		repoCalled = true
		return domain.Trip{}, nil
	}}
	router := &mockRouter{route: func(context.Context, ...string) (domain.Route, error) {
		return domain.Route{}, domain.ErrUpstream
	}}
	svc := service.NewTripService(r, router, discardLogger())

	_, err := svc.Create(context.Background(), validTrip())

	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.False(t, repoCalled, "nothing is stored when routing fails")
}

func TestTripService_Create_IgnoresCallerRouteData(t *testing.T) {
	svc := service.NewTripService(echoRepo(), nil, discardLogger())

	trip := validTrip()
	bogus := 5.0
	trip.Distance = &bogus
	trip.FuelStops = 9

	got, err := svc.Create(context.Background(), trip)

	require.NoError(t, err)
	assert.Nil(t, got.Distance)
	assert.Zero(t, got.FuelStops)
}

func TestTripService_Create_RepoError(t *testing.T) {
	dbErr := errors.New("connection reset")
	r := &mockTripRepo{create: func(context.Context, domain.Trip) (domain.Trip, error) {
		return domain.Trip{}, dbErr
	}}
	svc := service.NewTripService(r, nil, discardLogger())

	_, err := svc.Create(context.Background(), validTrip())

	assert.ErrorIs(t, err, dbErr)
}

// ---- Read / delete tests ---------------------------------------------------

func TestTripService_GetByID_NotFound(t *testing.T) {
	r := &mockTripRepo{getByID: func(context.Context, int64) (domain.Trip, error) {
		return domain.Trip{}, domain.ErrNotFound
	}}
	svc := service.NewTripService(r, nil, discardLogger())

	_, err := svc.GetByID(context.Background(), 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_ListPaged(t *testing.T) {
	var gotParams domain.PaginationParams
	r := &mockTripRepo{listPaged: func(_ context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
		gotParams = p
		return []domain.Trip{{ID: 3}, {ID: 2}}, 7, nil
	}}
	svc := service.NewTripService(r, nil, discardLogger())

	trips, total, err := svc.ListPaged(context.Background(), domain.PaginationParams{Page: 2, Limit: 2})

	require.NoError(t, err)
	assert.Len(t, trips, 2)
	assert.EqualValues(t, 7, total)
	assert.Equal(t, domain.PaginationParams{Page: 2, Limit: 2}, gotParams)
}

func TestTripService_Delete(t *testing.T) {
	var deleted int64
	r := &mockTripRepo{delete: func(_ context.Context, id int64) error {
		deleted = id
		return nil
	}}
	svc := service.NewTripService(r, nil, discardLogger())

	require.NoError(t, svc.Delete(context.Background(), 5))
	assert.Equal(t, int64(5), deleted)
}

func TestTripService_Delete_NotFound(t *testing.T) {
	r := &mockTripRepo{delete: func(context.Context, int64) error { return domain.ErrNotFound }}
	svc := service.NewTripService(r, nil, discardLogger())

	assert.ErrorIs(t, svc.Delete(context.Background(), 5), domain.ErrNotFound)
}

func TestTripService_RoutePoints(t *testing.T) {
	r := &mockTripRepo{getByID: func(context.Context, int64) (domain.Trip, error) {
		return domain.Trip{ID: 1, RouteGeometry: "_p~iF~ps|U_ulLnnqC_mqNvxq`@"}, nil
	}}
	svc := service.NewTripService(r, nil, discardLogger())

	pts, err := svc.RoutePoints(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.InDelta(t, 38.5, pts[0].Lat, 1e-6)
}

func TestTripService_RoutePoints_Unrouted(t *testing.T) {
	r := &mockTripRepo{getByID: func(context.Context, int64) (domain.Trip, error) {
		return domain.Trip{ID: 1}, nil
	}}
	svc := service.NewTripService(r, nil, discardLogger())

	pts, err := svc.RoutePoints(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, pts)
}
