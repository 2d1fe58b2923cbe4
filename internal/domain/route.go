package domain

import "math"

const (
	metersPerMile    = 1609.34
	milesPerFuelStop = 1000
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lon float64
	Lat float64
}

// LonLat returns the coordinates as [lon, lat], the order routing APIs expect.
func (c Coordinates) LonLat() []float64 { return []float64{c.Lon, c.Lat} }

// Route is the result of a routing lookup across a trip's waypoints.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        string // encoded polyline
}

// Miles returns the route distance in statute miles.
func (r Route) Miles() float64 { return r.DistanceMeters / metersPerMile }

// Hours returns the estimated driving time in hours.
func (r Route) Hours() float64 { return r.DurationSeconds / 3600 }

// FuelStops returns the number of refuelling stops needed, one per full
// 1,000 miles.
func (r Route) FuelStops() int {
	return max(0, int(math.Floor(r.Miles()/milesPerFuelStop)))
}
