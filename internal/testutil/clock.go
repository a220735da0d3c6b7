// Package testutil provides deterministic stand-ins for the engine's
// injected collaborators: a manually advanced clock, a scripted node
// directory, and fixed random/time/battery sources.
package testutil

import (
	"sync"
	"time"
)

// Clock is a manually advanced engine clock. Unlike the system clock it
// only moves when a test says so, which makes every timer in the engine
// exactly computable.
//
// Thread-safe: all methods lock, so a render goroutine in a test may read
// while the test advances.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// Base is the fixed instant test clocks start at: a mid-day hour so the
// night predicate stays false unless a test wants otherwise.
func Base() time.Time {
	return time.Date(2025, time.March, 12, 12, 0, 0, 0, time.UTC)
}

// NewClock returns a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current virtual instant. If a per-read step is set, the
// clock advances by it on every call, which lets tests drive the
// scheduler's over-budget path.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	if c.step > 0 {
		c.now = c.now.Add(c.step)
	}
	return t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// SetStep makes every Now call advance the clock by d. Zero disables.
func (c *Clock) SetStep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = d
}

// FixedRand is an engine random source returning a constant, ignoring the
// bound. With zero, blink intervals collapse to their minimum; with a huge
// value, blinks land past the end of any scenario.
type FixedRand struct {
	V int64
}

func (r FixedRand) Int63n(int64) int64 {
	return r.V
}
