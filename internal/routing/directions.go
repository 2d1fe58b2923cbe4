package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"github.com/pkordes/eld-logbook/internal/domain"
)

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
	Units       string      `json:"units"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"` // meters
			Duration float64 `json:"duration"` // seconds
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Directions measures the driving route through the given points in order.
func (c *Client) Directions(ctx context.Context, points []domain.Coordinates) (_ domain.Route, err error) {
	defer c.timed(ctx, "ors.directions")(&err)

	if len(points) < 2 {
		return domain.Route{}, fmt.Errorf("%w: a route needs at least two points", domain.ErrValidation)
	}

	body := directionsRequest{Units: "m"}
	for i, p := range points {
		if !finite(p.Lat) || !finite(p.Lon) {
			return domain.Route{}, fmt.Errorf("%w: point %d has non-finite coordinates", domain.ErrValidation, i)
		}
		body.Coordinates = append(body.Coordinates, p.LonLat())
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.Route{}, fmt.Errorf("routing.Client.Directions: encode: %w", err)
	}

	endpoint := c.baseURL + "/v2/directions/" + url.PathEscape(c.profile)
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return domain.Route{}, upstreamErr("routing.Client.Directions", err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Route{}, fmt.Errorf("%w: routing.Client.Directions: decode: %v", domain.ErrUpstream, err)
	}
	if len(decoded.Routes) == 0 {
		return domain.Route{}, fmt.Errorf("%w: no route between the given locations", domain.ErrValidation)
	}

	r := decoded.Routes[0]
	return domain.Route{
		DistanceMeters:  r.Summary.Distance,
		DurationSeconds: r.Summary.Duration,
		Geometry:        r.Geometry,
	}, nil
}

// Route geocodes each location and measures the route through them in order.
func (c *Client) Route(ctx context.Context, locations ...string) (domain.Route, error) {
	points := make([]domain.Coordinates, 0, len(locations))
	for _, loc := range locations {
		p, err := c.Geocode(ctx, loc)
		if err != nil {
			return domain.Route{}, err
		}
		points = append(points, p)
	}
	return c.Directions(ctx, points)
}
