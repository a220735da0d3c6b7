package engine

import (
	"log/slog"
	"time"

	"github.com/lorabot/lorabot/internal/pet"
)

// desiredState walks the priority ladder, strict descending, first match
// wins. Each rung either re-affirms an active timed state still inside its
// duration, notices a trigger, or falls through. Expired timers are cleared
// here; timers of lower rungs stay armed while a higher rung wins, so they
// resume once it expires.
func (e *Engine) desiredState(now time.Time) pet.State {
	// 1. Blink: a timed micro-state interrupting the idle animation.
	if e.anim.blinking {
		if now.Sub(e.anim.blinkStart) < e.tuning.BlinkDuration {
			return pet.Blink
		}
		e.anim.endBlink(now)
	} else if e.anim.maybeBlink(now, e.current) {
		return pet.Blink
	}

	// 2. Sent: fixed short hold, explicit trigger only.
	if e.sentActive {
		if now.Sub(e.sentAt) < e.tuning.SentHold {
			return pet.Sent
		}
		e.sentActive = false
		e.sending = false
		e.corr.Clear()
	}

	// 3. Received/Grateful: two equal fixed-duration halves.
	if e.receivedActive {
		elapsed := now.Sub(e.receivedAt)
		switch {
		case elapsed < e.tuning.ReceivedHold:
			return pet.Received
		case elapsed < 2*e.tuning.ReceivedHold:
			return pet.Grateful
		default:
			e.receivedActive = false
		}
	}

	// 4. Sleep: holds while the predicate holds, alternating two faces.
	if e.nightTime() || e.lowBattery() {
		if !e.sleeping {
			e.sleeping = true
			e.sleepPhase = pet.Sleep1
			e.sleepTick.reset(now)
			e.anim.resetLook(now)
		}
		if e.sleepTick.due(now) {
			if e.sleepPhase == pet.Sleep1 {
				e.sleepPhase = pet.Sleep2
			} else {
				e.sleepPhase = pet.Sleep1
			}
		}
		return e.sleepPhase
	}
	if e.sleeping {
		// Predicate just turned false: wake immediately, no dwell floor,
		// and never resume a stale look-around phase.
		e.sleeping = false
		e.anim.resetLook(now)
		e.forceImmediate = true
	}

	// 5. Discovered: fixed window from a new-peer trigger.
	if e.discoveredActive {
		if now.Sub(e.discoveredAt) < e.tuning.DiscoveredHold {
			return pet.Discovered
		}
		e.discoveredActive = false
	}

	// 6. Demotivated: prolonged mesh silence.
	if e.personality.BoredAfter > 0 && now.Sub(e.lastActivity) >= e.personality.BoredAfter {
		return pet.Demotivated
	}

	// 7. Default: the idle look-around animation.
	e.anim.advance(now, e.peerCount)
	return e.anim.idleState()
}

// recomputeState applies the ladder's verdict, throttling non-preempting
// transitions so the idle sub-phases can't flicker. Preempting states, the
// Sleep1/Sleep2 alternation, and a forced sleep exit bypass the throttle.
func (e *Engine) recomputeState(now time.Time) {
	next := e.desiredState(now)
	force := e.forceImmediate
	e.forceImmediate = false

	if next == e.current {
		return
	}
	if !force &&
		!next.Preempting() && !e.current.Preempting() &&
		!(next.Sleeping() && e.current.Sleeping()) &&
		now.Sub(e.lastChange) < e.tuning.MinDwell {
		return
	}
	e.setState(now, next)
}

func (e *Engine) setState(now time.Time, s pet.State) {
	if s == e.current {
		return
	}
	e.previous = e.current
	e.current = s
	e.lastChange = now
	slog.Debug("state change",
		"from", e.previous.String(),
		"to", s.String(),
	)
}

// applyImmediate re-evaluates the ladder with the dwell throttle bypassed.
// Called by triggers so event reactions land the instant they occur.
func (e *Engine) applyImmediate(now time.Time) {
	e.forceImmediate = true
	e.recomputeState(now)
}

func (e *Engine) triggerReceived(now time.Time) {
	e.receivedAt = now
	e.receivedActive = true
	e.applyImmediate(now)
}

func (e *Engine) triggerSent(now time.Time) {
	e.sentAt = now
	e.sentActive = true
	e.sentCaption = 0
	e.sentCaptionTick.reset(now)
	e.applyImmediate(now)
}

func (e *Engine) triggerDiscovered(now time.Time, label string) {
	e.discoveredAt = now
	e.discoveredActive = true
	e.discoveryLabel = label
	e.applyImmediate(now)
}

// nightTime evaluates the night predicate. No clock means daytime, not an
// error.
func (e *Engine) nightTime() bool {
	if e.timeSrc == nil {
		return false
	}
	hour, ok := e.timeSrc.HourOfDay()
	if !ok {
		return false
	}
	start, end := e.personality.NightStartHour, e.personality.NightEndHour
	if start <= end {
		return hour >= start && hour < end
	}
	// Range wraps midnight, e.g. 23..6.
	return hour >= start || hour < end
}

// lowBattery evaluates the low-battery predicate. A reported level of zero
// means the source has no reading and is ignored.
func (e *Engine) lowBattery() bool {
	if e.battery == nil {
		return false
	}
	pct := e.battery.Percent()
	if pct <= 0 {
		return false
	}
	return pct < e.personality.LowBatteryPercent
}

// sendingActive reports whether a local transmission is believed to be in
// flight. The flag self-clears after a safety timeout so it can't wedge
// discovery suppression.
func (e *Engine) sendingActive(now time.Time) bool {
	if !e.sending {
		return false
	}
	if now.Sub(e.sendingSince) > e.tuning.SendFlagTimeout {
		e.sending = false
		slog.Debug("clearing stale sending flag")
		return false
	}
	return true
}
