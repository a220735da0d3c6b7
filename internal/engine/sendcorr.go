package engine

import "time"

// sendCorrelator implements the two-path send-detection heuristic.
//
// The transport exposes no "message sent" event, only a monotonically
// increasing outbound-success counter. Two weak signals are correlated:
//
//  1. Observing a locally authored text packet arms a short window. If the
//     counter increments inside that window, the increment is attributed to
//     that send.
//  2. A counter increment of exactly one with no armed window is still
//     optimistically attributed to an unobserved local direct send, since
//     direct sends may bypass the observation path.
//
// This is best effort. Whether the single-increment fallback produces false
// positives under concurrent relay traffic is a known limitation of the
// source system, not something to silently "fix" here.
type sendCorrelator struct {
	lastTxGood uint32
	primed     bool

	pending   bool
	pendingAt time.Time
	window    time.Duration
}

func newSendCorrelator(window time.Duration) sendCorrelator {
	return sendCorrelator{window: window}
}

// Arm records that a locally authored text was just observed, opening the
// correlation window.
func (c *sendCorrelator) Arm(now time.Time) {
	c.pending = true
	c.pendingAt = now
}

// Clear drops any pending correlation. Called when the Sent state expires.
func (c *sendCorrelator) Clear() {
	c.pending = false
}

// Pending reports whether a correlation window is armed, regardless of
// whether it has expired.
func (c *sendCorrelator) Pending() bool {
	return c.pending
}

// Baseline absorbs the current counter value without attributing anything.
// Used while the Sent state is already showing.
func (c *sendCorrelator) Baseline(txGood uint32) {
	c.lastTxGood = txGood
	c.primed = true
}

// Sample observes the outbound counter and reports whether a local send
// should be attributed. The first sample only baselines; a counter that
// moved backwards (restart, wrap) re-baselines silently.
func (c *sendCorrelator) Sample(txGood uint32, now time.Time) bool {
	if !c.primed {
		c.primed = true
		c.lastTxGood = txGood
		return false
	}
	if txGood <= c.lastTxGood {
		c.lastTxGood = txGood
		return false
	}
	delta := txGood - c.lastTxGood
	c.lastTxGood = txGood

	if c.pending && now.Sub(c.pendingAt) < c.window {
		c.pending = false
		return true
	}
	// Optimistic single-increment fallback.
	return delta == 1
}
