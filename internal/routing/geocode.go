package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkordes/eld-logbook/internal/domain"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseLatLon parses a "lat,lon" literal. ok is false when s is not one.
func ParseLatLon(s string) (c domain.Coordinates, ok bool) {
	latStr, lonStr, found := strings.Cut(s, ",")
	if !found {
		return domain.Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return domain.Coordinates{}, false
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.Coordinates{}, false
	}
	return domain.Coordinates{Lon: lon, Lat: lat}, true
}

// Geocode resolves a location to coordinates. "lat,lon" literals are parsed
// locally; anything else goes through the cache and then /geocode/search.
// An unknown place is a domain.ErrValidation.
func (c *Client) Geocode(ctx context.Context, location string) (_ domain.Coordinates, err error) {
	defer c.timed(ctx, "ors.geocode")(&err)

	norm := normalize(location)
	if norm == "" {
		return domain.Coordinates{}, fmt.Errorf("%w: location is required", domain.ErrValidation)
	}
	if coords, ok := ParseLatLon(norm); ok {
		return coords, nil
	}

	if c.cache != nil {
		coords, hit, err := c.cache.Get(ctx, norm)
		if err != nil {
			c.logger.WarnContext(ctx, "geocode cache read failed", "query", norm, "error", err.Error())
		} else if hit {
			return coords, nil
		}
	}

	endpoint := c.baseURL + "/geocode/search"
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, upstreamErr("routing.Client.Geocode", err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: routing.Client.Geocode: decode: %v", domain.ErrUpstream, err)
	}
	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("%w: unknown location %q", domain.ErrValidation, location)
	}
	pt := decoded.Features[0].Geometry.Coordinates
	if len(pt) < 2 {
		return domain.Coordinates{}, fmt.Errorf("%w: routing.Client.Geocode: malformed coordinates for %q", domain.ErrUpstream, location)
	}
	coords := domain.Coordinates{Lon: pt[0], Lat: pt[1]}

	if c.cache != nil {
		if err := c.cache.Put(ctx, norm, coords); err != nil {
			c.logger.WarnContext(ctx, "geocode cache write failed", "query", norm, "error", err.Error())
		}
	}
	return coords, nil
}
