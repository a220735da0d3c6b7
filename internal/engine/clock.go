// Package engine implements the companion's state-selection core: the
// priority-ordered state machine, the animation sub-cycles, the event
// classifiers, and the cooperative step scheduler that bounds how much work
// a single host invocation may do.
//
// CRITICAL: the engine is a single logical writer. All mutation happens
// inside HandlePacket and RunOnce, which the host calls from one cooperative
// thread of control; Frame takes the same lock so a render goroutine always
// sees a point-in-time snapshot.
package engine

import "time"

// Clock supplies the engine's notion of "now". Injected so tests and the
// replay harness can drive virtual time; production uses SystemClock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the wall-clock Clock used outside tests.
func SystemClock() Clock {
	return systemClock{}
}

// Rand is the uniform random source used to arm blink intervals. Satisfied
// by *math/rand.Rand; tests inject a fixed source instead of special-casing
// blink logic.
type Rand interface {
	Int63n(n int64) int64
}
