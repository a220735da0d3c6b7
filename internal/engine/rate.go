package engine

import "time"

// rateRingSize is how many recent qualifying message times are remembered.
const rateRingSize = 5

// messageRate watches the arrival rate of qualifying inbound messages and
// flags bursts. A burst activates for a fixed hold and is never re-extended
// while active: a fifth message arriving after the rate window closed must
// not stretch the original burst.
//
// Bursts don't get their own emotional state; they shorten the requested
// inter-pass delay so the animation keeps up with heavy traffic.
type messageRate struct {
	times [rateRingSize]time.Time
	next  int

	window     time.Duration
	threshold  int
	hold       time.Duration
	burstUntil time.Time
}

func newMessageRate(window time.Duration, threshold int, hold time.Duration) messageRate {
	return messageRate{window: window, threshold: threshold, hold: hold}
}

// Observe records one qualifying message at now and activates a burst when
// the threshold is met inside the rate window.
func (r *messageRate) Observe(now time.Time) {
	r.times[r.next] = now
	r.next = (r.next + 1) % rateRingSize

	if r.Burst(now) {
		// An active burst holds its original deadline.
		return
	}
	if r.countWithin(now) >= r.threshold {
		r.burstUntil = now.Add(r.hold)
	}
}

// Burst reports whether a burst is currently active.
func (r *messageRate) Burst(now time.Time) bool {
	return now.Before(r.burstUntil)
}

func (r *messageRate) countWithin(now time.Time) int {
	cutoff := now.Add(-r.window)
	n := 0
	for _, t := range r.times {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
