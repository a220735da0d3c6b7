package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lorabot/lorabot/internal/testutil"
)

// TestSendCorrelator_FirstSampleBaselines tests that the first counter
// observation never attributes a send.
func TestSendCorrelator_FirstSampleBaselines(t *testing.T) {
	c := newSendCorrelator(2 * time.Second)
	now := testutil.Base()

	assert.False(t, c.Sample(40, now), "first sample must only baseline")
	assert.False(t, c.Sample(40, now.Add(time.Second)), "unchanged counter")
}

// TestSendCorrelator_WindowMatch tests the armed-window path.
func TestSendCorrelator_WindowMatch(t *testing.T) {
	c := newSendCorrelator(2 * time.Second)
	now := testutil.Base()

	c.Sample(10, now)
	c.Arm(now.Add(time.Second))

	// Increment inside the window, even by more than one, attributes.
	assert.True(t, c.Sample(13, now.Add(2*time.Second)))
	assert.False(t, c.Pending(), "window consumed on match")
}

// TestSendCorrelator_WindowExpired tests that a stale window no longer
// matches and the fallback rules take over.
func TestSendCorrelator_WindowExpired(t *testing.T) {
	c := newSendCorrelator(2 * time.Second)
	now := testutil.Base()

	c.Sample(10, now)
	c.Arm(now)

	// Window is long gone; a multi-increment is not attributed.
	assert.False(t, c.Sample(13, now.Add(10*time.Second)))
}

// TestSendCorrelator_SingleIncrementFallback tests the optimistic path: a
// lone increment with no armed window still counts as a local send.
func TestSendCorrelator_SingleIncrementFallback(t *testing.T) {
	c := newSendCorrelator(2 * time.Second)
	now := testutil.Base()

	c.Sample(10, now)
	assert.True(t, c.Sample(11, now.Add(time.Second)))

	// A jump of two without a window stays unattributed.
	assert.False(t, c.Sample(13, now.Add(2*time.Second)))
}

// TestSendCorrelator_BackwardsCounter tests re-baselining after a counter
// reset.
func TestSendCorrelator_BackwardsCounter(t *testing.T) {
	c := newSendCorrelator(2 * time.Second)
	now := testutil.Base()

	c.Sample(100, now)
	assert.False(t, c.Sample(5, now.Add(time.Second)), "backwards counter re-baselines")
	assert.True(t, c.Sample(6, now.Add(2*time.Second)), "increments resume from new baseline")
}

// TestSendCorrelator_Baseline tests counter absorption without attribution.
func TestSendCorrelator_Baseline(t *testing.T) {
	c := newSendCorrelator(2 * time.Second)
	now := testutil.Base()

	c.Baseline(50)
	assert.False(t, c.Sample(50, now))
	assert.True(t, c.Sample(51, now.Add(time.Second)))
}

// TestSendCorrelator_Clear tests dropping a pending window.
func TestSendCorrelator_Clear(t *testing.T) {
	c := newSendCorrelator(2 * time.Second)
	now := testutil.Base()

	c.Sample(10, now)
	c.Arm(now)
	assert.True(t, c.Pending())

	c.Clear()
	assert.False(t, c.Pending())

	// With the window gone, a multi-increment is not attributed.
	assert.False(t, c.Sample(13, now.Add(time.Second)))
}
