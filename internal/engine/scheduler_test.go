package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorabot/lorabot/internal/mesh"
	"github.com/lorabot/lorabot/internal/pet"
	"github.com/lorabot/lorabot/internal/testutil"
)

// TestEngine_RunOnce tests that a cheap pass walks every step and requests
// the normal inter-pass delay.
func TestEngine_RunOnce(t *testing.T) {
	e, _, _ := newTestEngine(t)

	delay := e.RunOnce(context.Background())
	assert.Equal(t, e.tuning.PassDelay, delay)
	assert.Equal(t, stepRecomputeState, e.cursor, "cursor back at the top")
}

// TestEngine_RunOnce_OverBudget tests the cooperative abort: a slow step
// yields the pass with the cursor parked on the next step, and repeated
// invocations still complete the cycle.
func TestEngine_RunOnce_OverBudget(t *testing.T) {
	clock := testutil.NewClock(testutil.Base())
	e := New(testutil.NewDirectory(0x10),
		WithClock(clock),
		WithRand(testutil.FixedRand{V: farBlink}),
	)

	// Every clock read advances well past the step budget, so each pass
	// completes exactly one step.
	clock.SetStep(30 * time.Millisecond)

	ctx := context.Background()
	for want := stepRecomputeState; want < stepYield; want++ {
		require.Equal(t, want, e.cursor)
		delay := e.RunOnce(ctx)
		assert.Equal(t, e.tuning.RetryDelay, delay, "aborted pass asks for a quick retry")
	}

	// The yield step finishes the cycle and resets the cursor.
	delay := e.RunOnce(ctx)
	assert.Equal(t, e.tuning.PassDelay, delay)
	assert.Equal(t, stepRecomputeState, e.cursor)
}

// TestEngine_RunOnce_ContextCancelled tests that a cancelled context stops
// the pass without touching the cursor.
func TestEngine_RunOnce_ContextCancelled(t *testing.T) {
	e, _, _ := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	delay := e.RunOnce(ctx)
	assert.Equal(t, e.tuning.RetryDelay, delay)
	assert.Equal(t, stepRecomputeState, e.cursor)
}

// TestEngine_RunOnce_BurstShortensDelay tests the message-rate coupling to
// the inter-pass delay.
func TestEngine_RunOnce_BurstShortensDelay(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	now := clock.Now()

	for i := 0; i < e.tuning.BurstCount; i++ {
		e.HandlePacket(mesh.PacketEvent{
			From: mesh.NodeID(0x20), To: 0x10, Kind: mesh.PayloadText,
			Payload: []byte("hi"),
		})
	}

	delay := e.RunOnce(context.Background())
	assert.Equal(t, e.tuning.BurstPassDelay, delay)

	clock.Set(now.Add(e.tuning.BurstHold + time.Second))
	delay = e.RunOnce(context.Background())
	assert.Equal(t, e.tuning.PassDelay, delay)
}

// TestEngine_NodeDiscovery_FirstBoot tests that the first directory
// observation only baselines the counter.
func TestEngine_NodeDiscovery_FirstBoot(t *testing.T) {
	e, clock, dir := newTestEngine(t)
	now := clock.Now()

	dir.Add(mesh.NodeInfo{ID: 0x20, LongName: "Alpha", LastHeard: now})
	dir.Add(mesh.NodeInfo{ID: 0x30, LongName: "Bravo", LastHeard: now})

	runDiscovery(e, now)
	assert.NotEqual(t, pet.Discovered, e.current, "cold start must not greet")
	assert.Equal(t, 2, e.prevCount)
	assert.Equal(t, 2, e.peerCount)
}

// TestEngine_NodeDiscovery_NewNode tests the greeting for a genuine new
// peer, labeled by the freshest directory entry.
func TestEngine_NodeDiscovery_NewNode(t *testing.T) {
	e, clock, dir := newTestEngine(t)
	now := clock.Now()

	dir.Add(mesh.NodeInfo{ID: 0x20, LongName: "Alpha", LastHeard: now})
	runDiscovery(e, now)

	dir.Add(mesh.NodeInfo{ID: 0x30, LongName: "Bravo", LastHeard: now.Add(time.Second)})
	runDiscovery(e, now.Add(time.Second))

	assert.Equal(t, pet.Discovered, e.current)
	assert.Equal(t, "Hello Bravo!", e.discoveryLabel)
}

// TestEngine_NodeDiscovery_SuppressedBySend tests that an in-flight local
// transmission masks a count change.
func TestEngine_NodeDiscovery_SuppressedBySend(t *testing.T) {
	e, clock, dir := newTestEngine(t)
	now := clock.Now()

	dir.Add(mesh.NodeInfo{ID: 0x20, LongName: "Alpha", LastHeard: now})
	runDiscovery(e, now)

	e.sending = true
	e.sendingSince = now.Add(time.Second)
	dir.Add(mesh.NodeInfo{ID: 0x30, LongName: "Bravo", LastHeard: now.Add(time.Second)})
	runDiscovery(e, now.Add(time.Second))

	assert.NotEqual(t, pet.Discovered, e.current)
	assert.Equal(t, 2, e.prevCount, "count still absorbed")

	// The suppression is one-shot per change; the next new peer greets.
	e.sending = false
	dir.Add(mesh.NodeInfo{ID: 0x40, LongName: "Charlie", LastHeard: now.Add(2 * time.Second)})
	runDiscovery(e, now.Add(2*time.Second))
	assert.Equal(t, pet.Discovered, e.current)
}

// TestEngine_NodeDiscovery_ShrinkIsActivity tests that a shrinking count
// refreshes activity without greeting.
func TestEngine_NodeDiscovery_ShrinkIsActivity(t *testing.T) {
	e, clock, dir := newTestEngine(t)
	now := clock.Now()

	dir.Add(mesh.NodeInfo{ID: 0x20, LongName: "Alpha", LastHeard: now})
	dir.Add(mesh.NodeInfo{ID: 0x30, LongName: "Bravo", LastHeard: now})
	runDiscovery(e, now)

	before := e.lastActivity
	dir2 := testutil.NewDirectory(0x10)
	dir2.Add(mesh.NodeInfo{ID: 0x20, LongName: "Alpha", LastHeard: now})
	e.dir = dir2

	at := now.Add(time.Minute)
	runDiscovery(e, at)
	assert.NotEqual(t, pet.Discovered, e.current)
	assert.True(t, e.lastActivity.After(before))
	assert.Equal(t, 1, e.prevCount)
}

// TestEngine_NodeDiscovery_Decimation tests that the directory scan only
// runs every fourth invocation.
func TestEngine_NodeDiscovery_Decimation(t *testing.T) {
	e, clock, dir := newTestEngine(t)
	now := clock.Now()
	dir.Add(mesh.NodeInfo{ID: 0x20, LongName: "Alpha", LastHeard: now})

	for i := 0; i < discoveryDecimation-1; i++ {
		e.checkNodeDiscovery(now)
		assert.Equal(t, 0, e.prevCount, "decimated invocation %d must not scan", i)
	}
	e.checkNodeDiscovery(now)
	assert.Equal(t, 1, e.prevCount)
}

// TestEngine_SendCorrelation tests the windowed counter attribution driving
// the Sent state.
func TestEngine_SendCorrelation(t *testing.T) {
	radio := &mesh.RadioStats{}
	e, clock, _ := newTestEngine(t, WithRadio(radio))
	now := clock.Now()

	// First sample baselines the counter.
	e.checkSendCorrelation(now.Add(time.Second))
	assert.NotEqual(t, pet.Sent, e.current)

	// Local text observed, then the counter moves inside the window.
	e.HandlePacket(mesh.PacketEvent{
		From: 0x10, To: 0x20, Kind: mesh.PayloadText, Payload: []byte("ping"),
	})
	radio.RecordTx()
	e.checkSendCorrelation(now.Add(2 * time.Second))
	assert.Equal(t, pet.Sent, e.current)
}

// TestEngine_SendCorrelation_Cadence tests that the counter is sampled on
// its own period, not every pass.
func TestEngine_SendCorrelation_Cadence(t *testing.T) {
	radio := &mesh.RadioStats{}
	e, clock, _ := newTestEngine(t, WithRadio(radio))
	now := clock.Now()

	e.checkSendCorrelation(now.Add(time.Second)) // baseline
	radio.RecordTx()

	// Inside the sample period nothing is read.
	e.checkSendCorrelation(now.Add(1500 * time.Millisecond))
	assert.NotEqual(t, pet.Sent, e.current)

	e.checkSendCorrelation(now.Add(2 * time.Second))
	assert.Equal(t, pet.Sent, e.current)
}

// TestEngine_SendCorrelation_AbsorbedWhileSent tests that counter movement
// during an active Sent hold does not retrigger it.
func TestEngine_SendCorrelation_AbsorbedWhileSent(t *testing.T) {
	radio := &mesh.RadioStats{}
	e, clock, _ := newTestEngine(t, WithRadio(radio))
	now := clock.Now()

	e.checkSendCorrelation(now.Add(time.Second)) // baseline
	e.triggerSent(now.Add(time.Second))
	sentAt := e.sentAt

	radio.RecordTx()
	e.checkSendCorrelation(now.Add(2 * time.Second))
	assert.Equal(t, sentAt, e.sentAt, "hold must not restart")

	// After the hold ends the absorbed counter is the new baseline.
	e.recomputeState(now.Add(4 * time.Second))
	e.checkSendCorrelation(now.Add(5 * time.Second))
	assert.NotEqual(t, pet.Sent, e.current)
}

// runDiscovery drives checkNodeDiscovery through its decimation so the scan
// actually runs once.
func runDiscovery(e *Engine, now time.Time) {
	for i := 0; i < discoveryDecimation; i++ {
		e.checkNodeDiscovery(now)
	}
}
