package engine

import "time"

// countdown is a one-shot deadline. Zero value is disarmed.
type countdown struct {
	deadline time.Time
	armed    bool
}

func (c *countdown) arm(deadline time.Time) {
	c.deadline = deadline
	c.armed = true
}

func (c *countdown) clear() {
	c.armed = false
}

func (c *countdown) active() bool {
	return c.armed
}

// fired reports whether the deadline has been reached. The countdown stays
// armed; callers clear it when they act on the trigger.
func (c *countdown) fired(now time.Time) bool {
	return c.armed && !now.Before(c.deadline)
}

// cadence fires at a fixed period. due both checks and advances, so each
// period elapses at most one fire.
type cadence struct {
	last   time.Time
	period time.Duration
}

func newCadence(start time.Time, period time.Duration) cadence {
	return cadence{last: start, period: period}
}

// due reports whether a full period has elapsed since the last fire, and if
// so records now as the new anchor.
func (c *cadence) due(now time.Time) bool {
	if now.Sub(c.last) < c.period {
		return false
	}
	c.last = now
	return true
}

// reset re-anchors the cadence at now without firing.
func (c *cadence) reset(now time.Time) {
	c.last = now
}
