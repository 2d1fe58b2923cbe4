// Package domain contains the core data types for the ELD Logbook application.
// This package has no dependencies on other internal packages and is imported
// by every layer (hos, repo, service, handler).
package domain

import "time"

// Trip is a single haul from the driver's current location, through the
// pickup, to the dropoff. Trips own their generated activity log.
type Trip struct {
	ID               int64
	CurrentLocation  string
	PickupLocation   string
	DropoffLocation  string
	CurrentCycleUsed float64 // hours already used in the 70-hour/8-day cycle

	// Routing results. Nil when the trip was stored without a routing provider.
	Distance          *float64 // miles
	EstimatedDuration *float64 // hours
	FuelStops         int
	RouteGeometry     string // encoded polyline, empty when unrouted

	CreatedAt time.Time
}
