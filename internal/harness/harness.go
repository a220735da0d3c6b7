// Package harness replays scripted mesh timelines against a real engine
// under a deterministic clock, capturing the visible output for golden
// comparison. Unlike the unit tests it exercises the whole stack: packet
// classification, the scheduler's pass loop, and the render path together.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorabot/lorabot/internal/engine"
	"github.com/lorabot/lorabot/internal/mesh"
	"github.com/lorabot/lorabot/internal/testutil"
)

// tickMs is the virtual pass period. Fine enough that every engine timer
// lands between passes the way it would on a live host.
const tickMs = 25

// farBlink parks the random blink interval past any scenario horizon so
// traces stay hand-checkable. Blink behavior has its own unit tests.
const farBlink = int64(1) << 50

// Sample is one captured frame.
type Sample struct {
	AtMs    int
	State   string
	Face    string
	Caption string
	Popup   string
}

// Result is the trace of one scenario run.
type Result struct {
	Scenario string
	Samples  []Sample
}

// Harness replays scenarios. Zero value is not usable; construct with New.
type Harness struct {
	logger *slog.Logger
}

// New returns a harness logging through logger.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{logger: logger}
}

// Run replays one scenario from a cold engine and returns the captured
// trace. The engine under test is assembled exactly like production, with
// every nondeterministic collaborator swapped for a scripted one.
func (h *Harness) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	const selfID mesh.NodeID = 0x10
	clock := testutil.NewClock(testutil.Base())
	dir := testutil.NewDirectory(selfID)
	radio := &mesh.RadioStats{}
	hour := testutil.NewMutableHour(12)
	battery := testutil.NewMutableBattery(100)

	eng := engine.New(dir,
		engine.WithClock(clock),
		engine.WithRand(testutil.FixedRand{V: farBlink}),
		engine.WithRadio(radio),
		engine.WithTimeSource(hour),
		engine.WithBattery(battery),
	)

	h.logger.Info("scenario start",
		"name", sc.Name,
		"events", len(sc.Events),
		"duration_ms", sc.DurationMs,
	)

	result := &Result{Scenario: sc.Name}
	nextEvent := 0
	nextSample := 0

	for t := 0; t <= sc.DurationMs; t += tickMs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		now := testutil.Base().Add(time.Duration(t) * time.Millisecond)
		clock.Set(now)

		for nextEvent < len(sc.Events) && sc.Events[nextEvent].AtMs <= t {
			h.apply(eng, dir, radio, hour, battery, now, sc.Events[nextEvent])
			nextEvent++
		}

		eng.RunOnce(ctx)

		for nextSample < len(sc.SampleMs) && sc.SampleMs[nextSample] == t {
			frame := eng.Frame()
			result.Samples = append(result.Samples, Sample{
				AtMs:    t,
				State:   eng.State().String(),
				Face:    frame.Face,
				Caption: frame.Caption,
				Popup:   frame.Popup,
			})
			nextSample++
		}
	}

	if nextSample != len(sc.SampleMs) {
		return nil, fmt.Errorf("captured %d of %d samples", nextSample, len(sc.SampleMs))
	}
	return result, nil
}

func (h *Harness) apply(eng *engine.Engine, dir *testutil.Directory, radio *mesh.RadioStats,
	hour *testutil.MutableHour, battery *testutil.MutableBattery, now time.Time, ev Event) {
	switch {
	case ev.Packet != nil:
		eng.HandlePacket(ev.Packet.packetEvent())
	case ev.Node != nil:
		dir.Add(mesh.NodeInfo{
			ID:        mesh.NodeID(ev.Node.ID),
			LongName:  ev.Node.LongName,
			ShortName: ev.Node.ShortName,
			Favorite:  ev.Node.Favorite,
			LastHeard: now,
		})
	case ev.Tx:
		radio.RecordTx()
	case ev.Hour != nil:
		hour.Set(*ev.Hour, *ev.Hour >= 0)
	case ev.Battery != nil:
		battery.Set(*ev.Battery)
	}
	h.logger.Debug("event applied", "at_ms", ev.AtMs)
}

// Render formats a result as the stable text form stored in golden files.
func (r *Result) Render() []byte {
	out := fmt.Sprintf("scenario: %s\n", r.Scenario)
	for _, s := range r.Samples {
		out += fmt.Sprintf("t=%dms state=%s face=%q caption=%q", s.AtMs, s.State, s.Face, s.Caption)
		if s.Popup != "" {
			out += fmt.Sprintf(" popup=%q", s.Popup)
		}
		out += "\n"
	}
	return []byte(out)
}
