// Package events publishes domain events to a message broker.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/eld-logbook/internal/domain"
)

// Event is a message with a routing topic and a body encoding.
type Event interface {
	TopicName() string
	ContentType() string
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// LogsGenerated notifies that a generation run was persisted for a trip.
type LogsGenerated struct {
	TripID      int64     `json:"trip_id"`
	RunID       uuid.UUID `json:"run_id"`
	Segments    int       `json:"segments"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewLogsGenerated builds the event for a persisted run.
func NewLogsGenerated(tripID int64, runID uuid.UUID, segments []domain.ActivitySegment, at time.Time) *LogsGenerated {
	return &LogsGenerated{
		TripID:      tripID,
		RunID:       runID,
		Segments:    len(segments),
		GeneratedAt: at.UTC(),
	}
}

func (e *LogsGenerated) TopicName() string {
	return "eld.logs.generated"
}

func (e *LogsGenerated) ContentType() string {
	return "application/json"
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
