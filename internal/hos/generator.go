package hos

import (
	"fmt"
	"strings"

	"github.com/pkordes/eld-logbook/internal/clock"
	"github.com/pkordes/eld-logbook/internal/domain"
)

// TimestampMode controls how segment start times are assigned.
type TimestampMode int

const (
	// Chained reads the clock once; each segment starts where the previous
	// one ended.
	Chained TimestampMode = iota
	// WallClock reads the clock for every segment.
	WallClock
)

func (m TimestampMode) String() string {
	switch m {
	case Chained:
		return "chained"
	case WallClock:
		return "wallclock"
	default:
		return fmt.Sprintf("TimestampMode(%d)", int(m))
	}
}

// ParseTimestampMode parses "chained" or "wallclock" (case-insensitive).
// The empty string selects Chained.
func ParseTimestampMode(s string) (TimestampMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chained":
		return Chained, nil
	case "wallclock", "wall_clock":
		return WallClock, nil
	default:
		return Chained, fmt.Errorf("hos: unknown timestamp mode %q", s)
	}
}

// Input is what the generator needs to know about a trip.
type Input struct {
	CycleHoursUsed  float64
	PickupLocation  string
	DropoffLocation string
}

// Generator turns an Input into a timed log.
// It is stateless between calls and safe for concurrent use.
type Generator struct {
	rules Rules
	clock clock.Clock
	mode  TimestampMode
}

// Option configures a Generator.
type Option func(*Generator)

// WithRules overrides DefaultRules.
func WithRules(r Rules) Option {
	return func(g *Generator) { g.rules = r }
}

// WithClock sets the time source. Defaults to clock.Real.
func WithClock(c clock.Clock) Option {
	return func(g *Generator) { g.clock = c }
}

// WithTimestampMode selects Chained (default) or WallClock.
func WithTimestampMode(m TimestampMode) Option {
	return func(g *Generator) { g.mode = m }
}

// NewGenerator returns a Generator using DefaultRules and the system clock
// unless overridden.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rules: DefaultRules(),
		clock: clock.Real{},
		mode:  Chained,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Rules returns the limits the generator plans with.
func (g *Generator) Rules() Rules { return g.rules }

// Generate plans the log for in and assigns timestamps.
// Returned segments carry Seq but no ID, TripID or RunID.
// A driver already at the cycle limit gets an empty, non-nil log.
func (g *Generator) Generate(in Input) ([]domain.ActivitySegment, error) {
	if err := g.rules.Validate(); err != nil {
		return nil, fmt.Errorf("hos.Generator.Generate: %w", err)
	}
	if err := g.rules.ValidateCycleHours(in.CycleHoursUsed); err != nil {
		return nil, fmt.Errorf("hos.Generator.Generate: %w", err)
	}

	planned := g.rules.Plan(in.CycleHoursUsed, Endpoints{
		Pickup:  in.PickupLocation,
		Dropoff: in.DropoffLocation,
	})

	segments := make([]domain.ActivitySegment, 0, len(planned))
	cursor := g.clock.Now()
	for i, p := range planned {
		start := cursor
		if g.mode == WallClock && i > 0 {
			start = g.clock.Now()
		}
		end := start.Add(domain.HoursDuration(p.Hours))

		var loc *string
		if p.Location != "" {
			l := p.Location
			loc = &l
		}

		segments = append(segments, domain.ActivitySegment{
			Seq:          i,
			Day:          p.Day,
			ActivityType: p.ActivityType,
			StartTime:    start,
			EndTime:      end,
			Location:     loc,
			Hours:        p.Hours,
		})
		cursor = end
	}
	return segments, nil
}
