// Package hos plans a driver's Hours-of-Service log.
//
// The planner is a small state machine: Rules.Step advances a State by one
// day-iteration and returns the segments it planned. Generator drives the
// machine to completion and turns planned segments into timed
// domain.ActivitySegment values.
package hos

import (
	"fmt"
	"math"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// Rules holds the regulatory limits the planner enforces. All values are hours
// except MaxDay.
type Rules struct {
	CycleLimitHours    float64 // 70-hour/8-day cycle
	RestartThreshold   float64 // cycle usage that forces a restart
	RestartHours       float64 // length of a restart
	DailyDrivingLimit  float64 // longest single driving segment
	DrivingWindowHours float64 // window that forces a rest once reached
	RestHours          float64 // length of a daily rest
	MaxDay             int     // last day slot the planner may start
}

// DefaultRules returns the simplified property-carrying driver limits.
func DefaultRules() Rules {
	return Rules{
		CycleLimitHours:    70,
		RestartThreshold:   60,
		RestartHours:       34,
		DailyDrivingLimit:  11,
		DrivingWindowHours: 14,
		RestHours:          10,
		MaxDay:             7,
	}
}

// State is the planner's position between steps.
type State struct {
	TotalHours         float64 // cycle hours used since the last restart
	Day                int     // 1-indexed day slot
	DrivingWindowHours float64
}

// InitialState is the state before the first step of a trip whose driver has
// already used cycleHoursUsed hours.
func InitialState(cycleHoursUsed float64) State {
	return State{TotalHours: cycleHoursUsed, Day: 1}
}

// Endpoints are the trip locations segments are placed at.
type Endpoints struct {
	Pickup  string
	Dropoff string
}

// Planned is a segment before timestamps are assigned.
type Planned struct {
	Day          int
	ActivityType domain.ActivityType
	Hours        float64
	Location     string
}

// Validate checks that the rules can drive the planner to termination.
func (r Rules) Validate() error {
	switch {
	case r.CycleLimitHours <= 0:
		return fmt.Errorf("%w: cycle limit must be positive", domain.ErrValidation)
	case r.RestartThreshold <= 0 || r.RestartThreshold > r.CycleLimitHours:
		return fmt.Errorf("%w: restart threshold must be in (0, cycle limit]", domain.ErrValidation)
	case r.DailyDrivingLimit <= 0:
		return fmt.Errorf("%w: daily driving limit must be positive", domain.ErrValidation)
	case r.RestartHours <= 0 || r.RestHours <= 0:
		return fmt.Errorf("%w: rest lengths must be positive", domain.ErrValidation)
	case r.DrivingWindowHours <= 0:
		return fmt.Errorf("%w: driving window must be positive", domain.ErrValidation)
	case r.MaxDay < 1:
		return fmt.Errorf("%w: max day must be at least 1", domain.ErrValidation)
	}
	return nil
}

// ValidateCycleHours rejects cycle usage that is not a finite number in
// [0, CycleLimitHours].
func (r Rules) ValidateCycleHours(h float64) error {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return fmt.Errorf("%w: cycle hours used must be a finite number", domain.ErrValidation)
	}
	if h < 0 || h > r.CycleLimitHours {
		return fmt.Errorf("%w: cycle hours used must be between 0 and %g", domain.ErrValidation, r.CycleLimitHours)
	}
	return nil
}

// Active reports whether another step should run.
func (r Rules) Active(s State) bool {
	return s.TotalHours < r.CycleLimitHours && s.Day <= r.MaxDay
}

// Step performs one day-iteration and returns the next state together with
// the segments planned during it, in emission order.
func (r Rules) Step(s State, ep Endpoints) (State, []Planned) {
	if s.TotalHours >= r.RestartThreshold {
		restart := Planned{
			Day:          s.Day,
			ActivityType: domain.ActivityReset34H,
			Hours:        r.RestartHours,
			Location:     ep.locate(domain.ActivityReset34H, s.Day),
		}
		s.TotalHours = 0
		s.Day += 2
		return s, []Planned{restart}
	}

	if s.DrivingWindowHours >= r.DrivingWindowHours {
		s.DrivingWindowHours = 0
	}

	driving := min(r.DailyDrivingLimit, r.CycleLimitHours-s.TotalHours)
	planned := []Planned{{
		Day:          s.Day,
		ActivityType: domain.ActivityDriving,
		Hours:        driving,
		Location:     ep.locate(domain.ActivityDriving, s.Day),
	}}
	s.TotalHours += driving
	s.DrivingWindowHours += driving

	if driving == r.DailyDrivingLimit || s.DrivingWindowHours >= r.DrivingWindowHours {
		planned = append(planned, Planned{
			Day:          s.Day,
			ActivityType: domain.ActivityResting,
			Hours:        r.RestHours,
			Location:     ep.locate(domain.ActivityResting, s.Day),
		})
	}

	s.Day++
	return s, planned
}

// Plan runs Step from InitialState(cycleHoursUsed) until the rules go
// inactive. The day cap bounds the loop.
func (r Rules) Plan(cycleHoursUsed float64, ep Endpoints) []Planned {
	var out []Planned
	s := InitialState(cycleHoursUsed)
	for r.Active(s) {
		var step []Planned
		s, step = r.Step(s, ep)
		out = append(out, step...)
	}
	return out
}
