package routing

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// DecodeGeometry expands an encoded polyline (precision 5, as ORS returns it)
// into coordinates. An empty geometry decodes to no points.
func DecodeGeometry(encoded string) ([]domain.Coordinates, error) {
	if encoded == "" {
		return []domain.Coordinates{}, nil
	}
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("routing.DecodeGeometry: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("routing.DecodeGeometry: %d trailing bytes", len(rest))
	}

	out := make([]domain.Coordinates, len(coords))
	for i, latLng := range coords {
		out[i] = domain.Coordinates{Lat: latLng[0], Lon: latLng[1]}
	}
	return out, nil
}
