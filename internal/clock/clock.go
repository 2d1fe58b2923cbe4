// Package clock abstracts "now" so time-dependent code, such as log
// generation, can be tested against a fixed instant.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock in UTC.
type Real struct{}

// Now returns the current system time in UTC.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Mock is a controllable, thread-safe Clock for tests.
type Mock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewMock returns a Mock fixed at t.
func NewMock(t time.Time) *Mock {
	return &Mock{current: t}
}

// Now returns the mock's current time, then advances it by the configured
// auto-step (zero by default).
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.current
	m.current = m.current.Add(m.step)
	return now
}

// Set moves the mock to t.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}

// Advance moves the mock by d. Negative durations move it backwards.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// AutoStep makes every subsequent Now call advance the clock by d.
// Useful for observing how many times a caller reads the clock.
func (m *Mock) AutoStep(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = d
}
