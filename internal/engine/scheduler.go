package engine

import (
	"context"
	"log/slog"
	"time"
)

// step identifies one bounded unit of an engine pass. The sequence is
// fixed; the cursor survives across invocations so an aborted pass resumes
// where it left off.
type step uint8

const (
	stepRecomputeState step = iota
	stepNodeDiscovery
	stepSendCorrelation
	stepDisplayCache
	stepProcessMessages // reserved
	stepCleanup         // reserved
	stepYield

	stepCount
)

func (s step) String() string {
	switch s {
	case stepRecomputeState:
		return "recompute_state"
	case stepNodeDiscovery:
		return "node_discovery"
	case stepSendCorrelation:
		return "send_correlation"
	case stepDisplayCache:
		return "display_cache"
	case stepProcessMessages:
		return "process_messages"
	case stepCleanup:
		return "cleanup"
	case stepYield:
		return "yield"
	}
	return "unknown"
}

// discoveryDecimation runs the directory scan only every Nth pass; a full
// scan is the most expensive step and node counts don't move at animation
// speed.
const discoveryDecimation = 4

// RunOnce executes one cooperative engine pass and returns the delay the
// host should wait before the next invocation.
//
// Each step records its own start time. A step that exceeds the budget
// aborts the pass: the cursor is left on the next step and a short retry
// delay is returned, so forward progress is guaranteed without starving the
// host's other duties. Dwell times are enforced by the state machine, never
// by the call frequency, so the requested delay is always much shorter than
// any state's duration.
func (e *Engine) RunOnce(ctx context.Context) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return e.tuning.RetryDelay
		}

		stepStart := e.clock.Now()
		current := e.cursor
		switch current {
		case stepRecomputeState:
			e.recomputeState(stepStart)
		case stepNodeDiscovery:
			e.checkNodeDiscovery(stepStart)
		case stepSendCorrelation:
			e.checkSendCorrelation(stepStart)
		case stepDisplayCache:
			e.refreshDisplayCache(stepStart)
		case stepProcessMessages, stepCleanup:
			// Reserved for future work; packets currently arrive through
			// HandlePacket between passes.
		case stepYield:
			now := e.clock.Now()
			e.maybeSave(ctx, now)
			e.cursor = stepRecomputeState
			return e.passDelay(now)
		}
		e.cursor = (current + 1) % stepCount

		if elapsed := e.clock.Now().Sub(stepStart); elapsed > e.tuning.StepBudget {
			slog.Debug("step over budget, yielding pass",
				"step", current.String(),
				"elapsed", elapsed,
			)
			return e.tuning.RetryDelay
		}
	}
}

// passDelay picks the inter-pass delay: short enough to keep the animation
// smooth, shorter still while a message burst is active.
func (e *Engine) passDelay(now time.Time) time.Duration {
	if e.rate.Burst(now) {
		return e.tuning.BurstPassDelay
	}
	return e.tuning.PassDelay
}

// checkNodeDiscovery samples the node directory and reacts to genuine new
// peers. Decimated: most invocations return immediately.
func (e *Engine) checkNodeDiscovery(now time.Time) {
	e.discoveryDecim++
	if e.discoveryDecim < discoveryDecimation {
		return
	}
	e.discoveryDecim = 0
	if e.dir == nil {
		return
	}

	total := e.dir.Len()
	kind := ClassifyDiscovery(total, e.prevCount, e.sendingActive(now))
	switch kind {
	case DiscoveryNewNodeFound:
		label := DiscoveryLabel(e.dir)
		slog.Debug("new node discovered",
			"label", label,
			"total", total,
		)
		e.noteActivity(now)
		if label != "" {
			e.triggerDiscovered(now, label)
		}
	case DiscoveryCountChangedOtherwise:
		e.noteActivity(now)
	case DiscoveryFirstBoot, DiscoverySuppressedBySend, DiscoveryCountUnchanged:
		// First observation only baselines; suppressed and unchanged counts
		// do nothing.
	}

	if total != e.prevCount {
		e.prevCount = total
		e.peerCount = total
		e.favDirty = true
	}
}

// checkSendCorrelation samples the outbound-success counter on its own
// cadence and attributes increments to local sends.
func (e *Engine) checkSendCorrelation(now time.Time) {
	if e.radio == nil || !e.corrTick.due(now) {
		return
	}
	tx := e.radio.TxGood.Load()
	if e.sentActive {
		// Already celebrating a send; just absorb the counter.
		e.corr.Baseline(tx)
		return
	}
	if e.corr.Sample(tx, now) {
		slog.Debug("outbound transmission attributed to local send", "tx_good", tx)
		e.noteActivity(now)
		e.triggerSent(now)
	}
}

func (e *Engine) noteActivity(now time.Time) {
	e.lastActivity = now
}
