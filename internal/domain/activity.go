package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType is the kind of duty interval recorded in a log.
type ActivityType string

const (
	ActivityDriving  ActivityType = "Driving"
	ActivityResting  ActivityType = "Resting"
	ActivityFueling  ActivityType = "Fueling"
	ActivityPickup   ActivityType = "Pickup"
	ActivityDropoff  ActivityType = "Dropoff"
	ActivityReset34H ActivityType = "Reset34H"
)

// ActivityTypes lists every valid ActivityType in declaration order.
var ActivityTypes = []ActivityType{
	ActivityDriving,
	ActivityResting,
	ActivityFueling,
	ActivityPickup,
	ActivityDropoff,
	ActivityReset34H,
}

// Valid reports whether a is one of the declared activity types.
func (a ActivityType) Valid() bool {
	for _, t := range ActivityTypes {
		if a == t {
			return true
		}
	}
	return false
}

// ActivitySegment is one scheduled interval of a trip's log.
// EndTime is always StartTime plus Hours.
type ActivitySegment struct {
	ID           int64
	TripID       int64
	RunID        uuid.UUID // shared by every segment of one generation call
	Seq          int       // 0-based emission index within the run
	Day          int
	ActivityType ActivityType
	StartTime    time.Time
	EndTime      time.Time
	Location     *string // nil for activities with no fixed place
	Hours        float64
	CreatedAt    time.Time
}

// HoursDuration converts a fractional hour count to a time.Duration.
func HoursDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
