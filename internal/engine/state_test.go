package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorabot/lorabot/internal/mesh"
	"github.com/lorabot/lorabot/internal/pet"
	"github.com/lorabot/lorabot/internal/testutil"
)

// farBlink pushes the random blink interval past any test horizon.
const farBlink = int64(1) << 50

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *testutil.Clock, *testutil.Directory) {
	t.Helper()
	clock := testutil.NewClock(testutil.Base())
	dir := testutil.NewDirectory(0x10)
	base := []Option{
		WithClock(clock),
		WithRand(testutil.FixedRand{V: farBlink}),
	}
	e := New(dir, append(base, opts...)...)
	return e, clock, dir
}

// TestEngine_ReceivedCycle tests the Received/Grateful two-phase hold and
// the return to idle.
func TestEngine_ReceivedCycle(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	now := clock.Now()

	e.triggerReceived(now)
	assert.Equal(t, pet.Received, e.current, "reaction lands the instant it occurs")

	e.recomputeState(now.Add(2900 * time.Millisecond))
	assert.Equal(t, pet.Received, e.current)

	e.recomputeState(now.Add(3 * time.Second))
	assert.Equal(t, pet.Grateful, e.current)

	e.recomputeState(now.Add(5900 * time.Millisecond))
	assert.Equal(t, pet.Grateful, e.current)

	e.recomputeState(now.Add(6 * time.Second))
	assert.Equal(t, pet.Idle, e.current, "cycle over, back to idle")
}

// TestEngine_SentOutranksReceived tests that an active Sent hold shows over
// a Received trigger, and that Received resumes once Sent expires.
func TestEngine_SentOutranksReceived(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	now := clock.Now()

	e.triggerSent(now)
	assert.Equal(t, pet.Sent, e.current)

	e.triggerReceived(now.Add(500 * time.Millisecond))
	assert.Equal(t, pet.Sent, e.current, "higher rung keeps showing")

	// Sent expires at 2.5s; the still-armed Received timer takes over.
	e.recomputeState(now.Add(2500 * time.Millisecond))
	assert.Equal(t, pet.Received, e.current)

	// Received runs from its own trigger time, not from the handover.
	e.recomputeState(now.Add(3500 * time.Millisecond))
	assert.Equal(t, pet.Grateful, e.current)
}

// TestEngine_SentExpiryClearsSendFlag tests that the Sent hold ending also
// clears the sending flag and any pending correlation.
func TestEngine_SentExpiryClearsSendFlag(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	now := clock.Now()

	e.sending = true
	e.sendingSince = now
	e.corr.Arm(now)
	e.triggerSent(now)

	e.recomputeState(now.Add(2500 * time.Millisecond))
	assert.NotEqual(t, pet.Sent, e.current)
	assert.False(t, e.sending)
	assert.False(t, e.corr.Pending())
}

// TestEngine_DiscoveredHold tests the fixed new-peer greeting window.
func TestEngine_DiscoveredHold(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	now := clock.Now()

	e.triggerDiscovered(now, "Hello Ridge Repeater!")
	assert.Equal(t, pet.Discovered, e.current)

	e.recomputeState(now.Add(7900 * time.Millisecond))
	assert.Equal(t, pet.Discovered, e.current)

	e.recomputeState(now.Add(8 * time.Second))
	assert.Equal(t, pet.Idle, e.current)
}

// TestEngine_ReceivedOutranksDiscovered tests rung order between the two
// event reactions.
func TestEngine_ReceivedOutranksDiscovered(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	now := clock.Now()

	e.triggerDiscovered(now, "Hello Peer!")
	e.triggerReceived(now.Add(time.Second))
	assert.Equal(t, pet.Received, e.current)

	// Received+Grateful end at 7s; Discovered still has a second left.
	e.recomputeState(now.Add(7 * time.Second))
	assert.Equal(t, pet.Discovered, e.current)

	e.recomputeState(now.Add(8 * time.Second))
	assert.Equal(t, pet.Idle, e.current)
}

// TestEngine_DwellThrottle tests that idle sub-phase changes wait out the
// minimum dwell while event reactions do not.
func TestEngine_DwellThrottle(t *testing.T) {
	e, clock, dir := newTestEngine(t)
	dir.Add(mesh.NodeInfo{ID: 0x20, LastHeard: testutil.Base()})
	e.peerCount = 1
	now := clock.Now()

	// The look cycle wants to rotate every second, but the throttle holds
	// the visible state for the full dwell.
	e.recomputeState(now.Add(time.Second))
	assert.Equal(t, pet.Idle, e.current)
	e.recomputeState(now.Add(2 * time.Second))
	assert.Equal(t, pet.Idle, e.current)
	e.recomputeState(now.Add(3 * time.Second))
	e.recomputeState(now.Add(4 * time.Second))
	assert.Equal(t, pet.Idle, e.current)

	e.recomputeState(now.Add(5 * time.Second))
	assert.Equal(t, pet.LookRight, e.current, "dwell elapsed, rotation lands")

	// An event reaction cuts straight through a fresh dwell window.
	e.triggerReceived(now.Add(5100 * time.Millisecond))
	assert.Equal(t, pet.Received, e.current)
}

// TestEngine_BlinkInterruptsIdle tests the blink micro-state: preempts the
// idle animation, holds for its duration, returns immediately.
func TestEngine_BlinkInterruptsIdle(t *testing.T) {
	e, clock, _ := newTestEngine(t, WithRand(testutil.FixedRand{V: 0}))
	now := clock.Now()
	tuning := e.tuning

	e.recomputeState(now.Add(tuning.BlinkMin - time.Millisecond))
	assert.Equal(t, pet.Idle, e.current)

	e.recomputeState(now.Add(tuning.BlinkMin))
	assert.Equal(t, pet.Blink, e.current)

	e.recomputeState(now.Add(tuning.BlinkMin + tuning.BlinkDuration))
	assert.Equal(t, pet.Idle, e.current, "blink over, idle resumes without dwell")
}

// TestEngine_BlinkResumesPriorLookPhase tests that a blink hands back to
// the idle sub-phase that was visible before it, even when a look tick was
// pending behind the blink.
func TestEngine_BlinkResumesPriorLookPhase(t *testing.T) {
	e, clock, dir := newTestEngine(t, WithRand(testutil.FixedRand{V: 0}))
	dir.Add(mesh.NodeInfo{ID: 0x20, LastHeard: testutil.Base()})
	e.peerCount = 1
	now := clock.Now()

	// The look cycle wants to rotate at 1s but the dwell throttle holds
	// the visible state at Idle.
	e.recomputeState(now.Add(time.Second))
	require.Equal(t, pet.Idle, e.current)
	pre := e.current

	// The blink fires at its 2s minimum, right on a look-tick boundary.
	e.recomputeState(now.Add(2 * time.Second))
	require.Equal(t, pet.Blink, e.current)

	e.recomputeState(now.Add(2*time.Second + e.tuning.BlinkDuration))
	assert.Equal(t, pre, e.current, "blink must hand back to the sub-phase it interrupted")
}

// TestEngine_BlinkDeferredDuringReceived tests that a blink due during a
// higher-priority state waits for the idle animation to return.
func TestEngine_BlinkDeferredDuringReceived(t *testing.T) {
	e, clock, _ := newTestEngine(t, WithRand(testutil.FixedRand{V: 0}))
	now := clock.Now()

	e.triggerReceived(now)

	// Blink deadline (2s) passes mid-Received; Received keeps showing.
	e.recomputeState(now.Add(2500 * time.Millisecond))
	assert.Equal(t, pet.Received, e.current)

	// The cycle hands back to idle, then the armed blink fires on the
	// next pass.
	e.recomputeState(now.Add(6 * time.Second))
	assert.Equal(t, pet.Idle, e.current)
	e.recomputeState(now.Add(6*time.Second + 50*time.Millisecond))
	assert.Equal(t, pet.Blink, e.current)
}

// TestEngine_SleepCycle tests night entry, the one-second face alternation,
// and the immediate wake on predicate change.
func TestEngine_SleepCycle(t *testing.T) {
	hour := testutil.NewMutableHour(23)
	e, clock, _ := newTestEngine(t, WithTimeSource(hour))
	now := clock.Now()

	// Entry is a normal transition and waits out the dwell.
	e.recomputeState(now)
	assert.Equal(t, pet.Idle, e.current)

	e.recomputeState(now.Add(5 * time.Second))
	require.True(t, e.current.Sleeping())
	first := e.current

	// Alternation bypasses the dwell throttle.
	e.recomputeState(now.Add(6 * time.Second))
	require.True(t, e.current.Sleeping())
	assert.NotEqual(t, first, e.current)

	e.recomputeState(now.Add(7 * time.Second))
	assert.Equal(t, first, e.current)

	// Morning: wake immediately, no dwell floor.
	hour.Set(8, true)
	e.recomputeState(now.Add(7500 * time.Millisecond))
	assert.Equal(t, pet.Idle, e.current)
}

// TestEngine_LowBatterySleep tests the battery predicate, including the
// zero-means-unknown rule.
func TestEngine_LowBatterySleep(t *testing.T) {
	batt := testutil.NewMutableBattery(50)
	e, clock, _ := newTestEngine(t, WithBattery(batt))
	now := clock.Now()

	e.recomputeState(now.Add(5 * time.Second))
	assert.Equal(t, pet.Idle, e.current)

	batt.Set(5)
	e.recomputeState(now.Add(10 * time.Second))
	assert.True(t, e.current.Sleeping())

	// Zero is "no reading", never low battery.
	batt.Set(0)
	e.recomputeState(now.Add(11 * time.Second))
	assert.Equal(t, pet.Idle, e.current)
}

// TestEngine_NightWrapsMidnight tests the wrapping hour range.
func TestEngine_NightWrapsMidnight(t *testing.T) {
	tests := []struct {
		hour int
		want bool
	}{
		{hour: 22, want: false},
		{hour: 23, want: true},
		{hour: 0, want: true},
		{hour: 3, want: true},
		{hour: 5, want: true},
		{hour: 6, want: false},
		{hour: 12, want: false},
	}

	for _, tt := range tests {
		e, _, _ := newTestEngine(t, WithTimeSource(testutil.Hour{H: tt.hour, OK: true}))
		assert.Equal(t, tt.want, e.nightTime(), "hour %d", tt.hour)
	}
}

// TestEngine_NoClockMeansDaytime tests that a missing RTC disables the
// night predicate entirely.
func TestEngine_NoClockMeansDaytime(t *testing.T) {
	e, _, _ := newTestEngine(t, WithTimeSource(testutil.Hour{H: 2, OK: false}))
	assert.False(t, e.nightTime())
}

// TestEngine_Demotivated tests the inactivity state and its recovery.
func TestEngine_Demotivated(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	now := clock.Now()

	e.recomputeState(now.Add(29 * time.Minute))
	assert.Equal(t, pet.Idle, e.current)

	e.recomputeState(now.Add(30 * time.Minute))
	assert.Equal(t, pet.Demotivated, e.current)

	// Any mesh activity lifts the mood (after the dwell, since neither
	// state preempts).
	e.noteActivity(now.Add(31 * time.Minute))
	e.recomputeState(now.Add(31 * time.Minute))
	assert.Equal(t, pet.Idle, e.current)
}

// TestEngine_DemotivatedDisabled tests that a zero threshold turns the
// state off.
func TestEngine_DemotivatedDisabled(t *testing.T) {
	p := pet.DefaultPersonality()
	p.BoredAfter = 0
	e, clock, _ := newTestEngine(t, WithPersonality(p))

	e.recomputeState(clock.Now().Add(24 * time.Hour))
	assert.Equal(t, pet.Idle, e.current)
}

// TestEngine_SleepOutranksDemotivated tests rung order at night with a
// silent mesh.
func TestEngine_SleepOutranksDemotivated(t *testing.T) {
	e, clock, _ := newTestEngine(t, WithTimeSource(testutil.Hour{H: 2, OK: true}))
	now := clock.Now()

	e.recomputeState(now.Add(time.Hour))
	assert.True(t, e.current.Sleeping())
}

// TestEngine_SendFlagTimeout tests that a stuck sending flag self-clears.
func TestEngine_SendFlagTimeout(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	now := clock.Now()

	e.sending = true
	e.sendingSince = now

	assert.True(t, e.sendingActive(now.Add(4*time.Second)))
	assert.False(t, e.sendingActive(now.Add(6*time.Second)))
	assert.False(t, e.sending, "flag cleared, not just reported false")
}
