package engine

import (
	"time"

	"github.com/lorabot/lorabot/internal/pet"
)

// animCycle drives the faces shown while the outer state machine has
// nothing higher-priority to show. Three independent timers layered under
// the idle state:
//
//   - look cycle: LookLeft -> LookRight -> Idle on a fixed period while at
//     least one peer is known; held at the idle face otherwise
//   - blink: armed at a uniformly random interval, independent of the look
//     position
//   - caption rotation: its own period, decoupled from the look period
type animCycle struct {
	look     int // 0=left, 1=right, 2=idle face
	lookTick cadence
	rotating bool

	blinkAt    countdown
	blinkStart time.Time
	blinking   bool
	resumeLook int

	caption     int
	captionTick cadence

	rng      Rand
	blinkMin time.Duration
	blinkMax time.Duration
}

func newAnimCycle(now time.Time, tuning Tuning, rng Rand) animCycle {
	a := animCycle{
		look:        2,
		lookTick:    newCadence(now, tuning.LookPeriod),
		captionTick: newCadence(now, tuning.CaptionPeriod),
		rng:         rng,
		blinkMin:    tuning.BlinkMin,
		blinkMax:    tuning.BlinkMax,
	}
	a.armBlink(now)
	return a
}

// advance moves the look cycle and caption rotation forward. The cycle
// index keeps advancing even while a higher-priority state is showing, so
// the idle animation resumes where its clock says it should be. Blink is
// the exception: endBlink restores the pre-blink position.
func (a *animCycle) advance(now time.Time, peers int) {
	if peers > 0 {
		a.rotating = true
		if a.lookTick.due(now) {
			a.look = (a.look + 1) % 3
		}
	} else {
		a.rotating = false
	}
	if a.captionTick.due(now) {
		a.caption = (a.caption + 1) % len(pet.IdleCaptions)
	}
}

// idleState maps the cycle position to a state. With no peers known the
// face holds still.
func (a *animCycle) idleState() pet.State {
	if !a.rotating {
		return pet.Idle
	}
	switch a.look {
	case 0:
		return pet.LookLeft
	case 1:
		return pet.LookRight
	}
	return pet.Idle
}

// maybeBlink starts a blink when the armed deadline has passed and the
// state underneath is idle-family. A deadline reached during a
// higher-priority state stays armed and fires once the idle animation is
// back.
func (a *animCycle) maybeBlink(now time.Time, under pet.State) bool {
	if a.blinking || !under.IdleFamily() {
		return false
	}
	if !a.blinkAt.fired(now) {
		return false
	}
	a.blinkAt.clear()
	a.blinking = true
	a.blinkStart = now
	a.resumeLook = lookIndex(under)
	return true
}

// endBlink finishes the current blink and schedules the next one. The look
// position is restored to the sub-phase that was visible when the blink
// started, with its period re-anchored, so a look tick pending behind the
// blink can't rotate the face on the way out.
func (a *animCycle) endBlink(now time.Time) {
	a.blinking = false
	a.look = a.resumeLook
	a.lookTick.reset(now)
	a.armBlink(now)
}

// lookIndex maps an idle sub-phase back to its cycle position.
func lookIndex(s pet.State) int {
	switch s {
	case pet.LookLeft:
		return 0
	case pet.LookRight:
		return 1
	}
	return 2
}

func (a *animCycle) armBlink(now time.Time) {
	span := int64(a.blinkMax - a.blinkMin)
	jitter := time.Duration(0)
	if span > 0 {
		jitter = time.Duration(a.rng.Int63n(span))
	}
	a.blinkAt.arm(now.Add(a.blinkMin + jitter))
}

// resetLook clears the cycle position. Entering or leaving sleep calls this
// so a stale look-around phase never resumes.
func (a *animCycle) resetLook(now time.Time) {
	a.look = 2
	a.lookTick.reset(now)
}
