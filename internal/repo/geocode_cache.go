package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// GeocodeCache stores resolved coordinates keyed by the normalised location
// text, so repeated trips between the same places skip the geocoder.
type GeocodeCache interface {
	// Get returns the cached coordinates and true, or false on a miss.
	Get(ctx context.Context, query string) (domain.Coordinates, bool, error)
	// Put stores or refreshes an entry.
	Put(ctx context.Context, query string, c domain.Coordinates) error
}

type pgGeocodeCache struct {
	db db
}

// NewGeocodeCache constructs a GeocodeCache backed by the provided db connection.
func NewGeocodeCache(db db) GeocodeCache {
	return &pgGeocodeCache{db: db}
}

func normaliseQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

func (c *pgGeocodeCache) Get(ctx context.Context, query string) (domain.Coordinates, bool, error) {
	const q = `SELECT lon, lat FROM geocode_cache WHERE query = @query`

	var coords domain.Coordinates
	err := c.db.QueryRow(ctx, q, pgx.NamedArgs{"query": normaliseQuery(query)}).Scan(&coords.Lon, &coords.Lat)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("repo.GeocodeCache.Get: %w", err)
	}
	return coords, true, nil
}

func (c *pgGeocodeCache) Put(ctx context.Context, query string, coords domain.Coordinates) error {
	const q = `
		INSERT INTO geocode_cache (query, lon, lat)
		VALUES (@query, @lon, @lat)
		ON CONFLICT (query) DO UPDATE
		SET lon = EXCLUDED.lon, lat = EXCLUDED.lat, created_at = now()`

	_, err := c.db.Exec(ctx, q, pgx.NamedArgs{
		"query": normaliseQuery(query),
		"lon":   coords.Lon,
		"lat":   coords.Lat,
	})
	if err != nil {
		return fmt.Errorf("repo.GeocodeCache.Put: %w", err)
	}
	return nil
}
