package hos

import "github.com/pkordes/eld-logbook/internal/domain"

type endpoint int

const (
	atPickup endpoint = iota
	atDropoff
)

type placementKey struct {
	activity domain.ActivityType
	firstDay bool
}

// placement mirrors segment locations after day one: the driver heads out
// from pickup on day one and works back from the dropoff side afterwards.
var placement = map[placementKey]endpoint{
	{domain.ActivityDriving, true}:   atPickup,
	{domain.ActivityDriving, false}:  atDropoff,
	{domain.ActivityReset34H, true}:  atPickup,
	{domain.ActivityReset34H, false}: atDropoff,
	{domain.ActivityResting, true}:   atDropoff,
	{domain.ActivityResting, false}:  atPickup,
}

// locate returns the endpoint an activity on the given day is placed at, or
// "" for activities the planner does not place.
func (ep Endpoints) locate(a domain.ActivityType, day int) string {
	where, ok := placement[placementKey{a, day == 1}]
	if !ok {
		return ""
	}
	if where == atPickup {
		return ep.Pickup
	}
	return ep.Dropoff
}
