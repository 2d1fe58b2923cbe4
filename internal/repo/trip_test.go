package repo_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eld-logbook/internal/domain"
	"github.com/pkordes/eld-logbook/internal/repo"
	"github.com/pkordes/eld-logbook/testutil"
)

// newTestTx returns a transaction that is rolled back when the test finishes.
// Requires TEST_DATABASE_URL; TestMain applies the migrations.
func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	return testutil.NewTx(t)
}

func newTestRepo(t *testing.T) repo.TripRepo {
	t.Helper()
	return repo.NewTripRepo(newTestTx(t))
}

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture() domain.Trip {
	distance := 1003.2
	duration := 14.75
	return domain.Trip{
		CurrentLocation:   "Chicago, IL",
		PickupLocation:    "Des Moines, IA",
		DropoffLocation:   "Denver, CO",
		CurrentCycleUsed:  12.5,
		Distance:          &distance,
		EstimatedDuration: &duration,
		FuelStops:         1,
		RouteGeometry:     "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
	}
}

func TestTripRepo_Create(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	input := tripFixture()
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotZero(t, got.ID, "ID should be DB-generated")
	assert.Equal(t, input.CurrentLocation, got.CurrentLocation)
	assert.Equal(t, input.PickupLocation, got.PickupLocation)
	assert.Equal(t, input.DropoffLocation, got.DropoffLocation)
	assert.Equal(t, input.CurrentCycleUsed, got.CurrentCycleUsed)
	require.NotNil(t, got.Distance)
	assert.Equal(t, *input.Distance, *got.Distance)
	require.NotNil(t, got.EstimatedDuration)
	assert.Equal(t, *input.EstimatedDuration, *got.EstimatedDuration)
	assert.Equal(t, 1, got.FuelStops)
	assert.Equal(t, input.RouteGeometry, got.RouteGeometry)
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by DB")
}

func TestTripRepo_Create_Unrouted(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	input := tripFixture()
	input.Distance = nil
	input.EstimatedDuration = nil
	input.FuelStops = 0
	input.RouteGeometry = ""

	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.Nil(t, got.Distance, "Distance should be nil when not routed")
	assert.Nil(t, got.EstimatedDuration)
	assert.Empty(t, got.RouteGeometry)
}

func TestTripRepo_Create_RejectsCycleOutOfRange(t *testing.T) {
	r := newTestRepo(t)

	input := tripFixture()
	input.CurrentCycleUsed = 71

	_, err := r.Create(context.Background(), input)
	assert.Error(t, err, "check constraint should reject cycle hours above 70")
}

func TestTripRepo_GetByID(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.PickupLocation, got.PickupLocation)
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.GetByID(context.Background(), -1)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_ListPaged(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewTripRepo(tx)
	ctx := context.Background()

	// Start from an empty table inside this transaction.
	_, err := tx.Exec(ctx, `DELETE FROM trips`)
	require.NoError(t, err)

	for _, loc := range []string{"A", "B", "C"} {
		trip := tripFixture()
		trip.CurrentLocation = loc
		_, err := r.Create(ctx, trip)
		require.NoError(t, err)
	}

	page1, total, err := r.ListPaged(ctx, domain.PaginationParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page1, 2)
	// created_at ties within one transaction are broken by id DESC.
	assert.Equal(t, "C", page1[0].CurrentLocation)
	assert.Equal(t, "B", page1[1].CurrentLocation)

	page2, total, err := r.ListPaged(ctx, domain.PaginationParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page2, 1)
	assert.Equal(t, "A", page2[0].CurrentLocation)

	page5, total, err := r.ListPaged(ctx, domain.PaginationParams{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total, "total is reported even past the last page")
	assert.Empty(t, page5)
}

func TestTripRepo_Delete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, created.ID))

	_, err = r.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_Delete_NotFound(t *testing.T) {
	r := newTestRepo(t)

	err := r.Delete(context.Background(), -1)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
