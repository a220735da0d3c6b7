package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lorabot/lorabot/internal/mesh"
	"github.com/lorabot/lorabot/internal/pet"
)

// EventSink receives decoded mesh packets from the transport.
type EventSink interface {
	HandlePacket(ev mesh.PacketEvent)
}

// Schedulable is the host-scheduler contract: one bounded pass, returning
// the requested delay before the next invocation.
type Schedulable interface {
	RunOnce(ctx context.Context) time.Duration
}

// Renderable exposes the point-in-time render payload.
type Renderable interface {
	Frame() pet.Frame
}

// SnapshotStore persists engine snapshots. Load returns (nil, nil) when
// nothing has been persisted yet. Implementations live in internal/store;
// the engine treats every store failure as non-fatal.
type SnapshotStore interface {
	Load(ctx context.Context) (*pet.Snapshot, error)
	Save(ctx context.Context, snap *pet.Snapshot) error
}

// Engine is the companion's single-writer core. One explicit instance owned
// by whatever composes the application; there is no package-level
// singleton.
//
// Engine implements EventSink, Schedulable, and Renderable.
//
// INVARIANTS:
//   - exactly one pet.State is current at any instant
//   - all mutable state is touched only under mu
//   - no goroutines are spawned; the host drives everything
type Engine struct {
	mu sync.Mutex

	clock       Clock
	rng         Rand
	personality pet.Personality
	tuning      Tuning

	dir     mesh.Directory
	radio   *mesh.RadioStats
	timeSrc mesh.TimeSource
	battery mesh.BatterySource
	store   SnapshotStore
	session string

	current        pet.State
	previous       pet.State
	lastChange     time.Time
	lastActivity   time.Time
	forceImmediate bool

	sentAt           time.Time
	sentActive       bool
	receivedAt       time.Time
	receivedActive   bool
	discoveredAt     time.Time
	discoveredActive bool
	discoveryLabel   string

	sleeping   bool
	sleepPhase pet.State
	sleepTick  cadence

	anim    animCycle
	friends *pet.FriendList
	corr    sendCorrelator
	rate    messageRate

	peerCount    int
	prevCount    int
	sending      bool
	sendingSince time.Time

	popupText       string
	popupAt         time.Time
	favCount        int
	favTick         cadence
	favDirty        bool
	sentCaption     int
	sentCaptionTick cadence
	corrTick        cadence

	cursor         step
	discoveryDecim int
	lastSave       time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the time source for all engine timing.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRand injects the random source used to arm blink intervals.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithPersonality overrides the behavioral tunables.
func WithPersonality(p pet.Personality) Option {
	return func(e *Engine) { e.personality = p }
}

// WithTuning overrides the timing constants.
func WithTuning(t Tuning) Option {
	return func(e *Engine) { e.tuning = t }
}

// WithRadio attaches the transport counters sampled for send detection.
func WithRadio(r *mesh.RadioStats) Option {
	return func(e *Engine) { e.radio = r }
}

// WithTimeSource attaches the hour-of-day source for the night predicate.
func WithTimeSource(t mesh.TimeSource) Option {
	return func(e *Engine) { e.timeSrc = t }
}

// WithBattery attaches the battery level source.
func WithBattery(b mesh.BatterySource) Option {
	return func(e *Engine) { e.battery = b }
}

// WithStore attaches snapshot persistence.
func WithStore(s SnapshotStore) Option {
	return func(e *Engine) { e.store = s }
}

// New creates an Engine observing dir. Collaborators the host cannot supply
// (radio, RTC, battery, store) may simply be omitted; the matching
// behaviors degrade per the error-handling rules rather than fail.
func New(dir mesh.Directory, opts ...Option) *Engine {
	e := &Engine{
		clock:       SystemClock(),
		personality: pet.DefaultPersonality(),
		tuning:      DefaultTuning(),
		dir:         dir,
		session:     uuid.NewString(),
		current:     pet.Idle,
		previous:    pet.Idle,
		friends:     pet.NewFriendList(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	now := e.clock.Now()
	e.lastChange = now
	e.lastActivity = now
	e.lastSave = now
	e.anim = newAnimCycle(now, e.tuning, e.rng)
	e.sleepTick = newCadence(now, e.tuning.SleepPeriod)
	e.favTick = newCadence(now, e.tuning.FavoriteRefresh)
	e.sentCaptionTick = newCadence(now, e.tuning.SentCaptionPeriod)
	e.corrTick = newCadence(now, e.tuning.SendSamplePeriod)
	e.corr = newSendCorrelator(e.tuning.SendWindow)
	e.rate = newMessageRate(e.tuning.BurstWindow, e.tuning.BurstCount, e.tuning.BurstHold)
	return e
}

// Session returns the identifier of this engine run, stamped on persisted
// snapshots and useful for log correlation.
func (e *Engine) Session() string {
	return e.session
}

// Start restores persisted state. Called once before the first pass.
// Corrupt or unreadable snapshots are logged and skipped; the companion
// simply starts fresh.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return
	}

	snap, err := e.store.Load(ctx)
	if err != nil && !errors.Is(err, pet.ErrCorruptFriends) {
		slog.Warn("snapshot load failed, starting fresh", "error", err)
		return
	}
	if errors.Is(err, pet.ErrCorruptFriends) {
		slog.Warn("persisted friend data corrupt, friend list reset")
	}
	if snap == nil {
		return
	}

	if snap.State.Valid() {
		e.current = snap.State
	} else {
		slog.Warn("persisted state invalid, substituting idle", "state", uint8(snap.State))
	}
	if !snap.LastActivity.IsZero() {
		e.lastActivity = snap.LastActivity
	}
	e.friends.Replace(snap.Friends)
	slog.Info("snapshot restored",
		"state", e.current.String(),
		"friends", e.friends.Len(),
	)
}

// Close writes the teardown snapshot. Failures are logged and ignored.
func (e *Engine) Close(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.save(ctx)
}

// HandlePacket classifies one inbound packet and reacts. Reactive
// directions enter the Received cycle immediately; locally originating text
// arms the send-correlation window; relayed traffic never moves the state
// machine. Every remote sender feeds the friend list.
func (e *Engine) HandlePacket(ev mesh.PacketEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	self := e.selfID()
	dir := ClassifyDirection(ev, self)
	slog.Debug("packet observed",
		"from", ev.From.Hex(),
		"to", ev.To.Hex(),
		"kind", ev.Kind.String(),
		"direction", dir.String(),
	)

	switch {
	case dir.Reactive():
		e.noteActivity(now)
		e.rate.Observe(now)
		e.popupText = popupText(ev)
		e.popupAt = now
		e.triggerReceived(now)
	case dir.FromSelf() && ev.Kind == mesh.PayloadText:
		// A locally authored text observed on its way out: open the
		// correlation window for the outbound counter.
		e.corr.Arm(now)
		e.sending = true
		e.sendingSince = now
	}

	if ev.From != 0 && ev.From != self {
		e.friends.Observe(ev.From, now)
	}
}

// Friends returns a copy of the current friend list.
func (e *Engine) Friends() []pet.Friend {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.friends.Friends()
}

func (e *Engine) selfID() mesh.NodeID {
	if e.dir == nil {
		return 0
	}
	return e.dir.Self()
}

// popupMax is the byte cap on a popup line.
const popupMax = 63

// popupText extracts the popup line for a reactive packet: the text payload
// clipped to popupMax bytes, backed off to a rune boundary so the render
// never sees a split rune, or a generic line for position updates.
func popupText(ev mesh.PacketEvent) string {
	if ev.Kind == mesh.PayloadText && len(ev.Payload) > 0 {
		p := ev.Payload
		if len(p) > popupMax {
			n := popupMax
			for n > 0 && !utf8.RuneStart(p[n]) {
				n--
			}
			p = p[:n]
		}
		return string(p)
	}
	return pet.PositionPopup
}

// maybeSave writes a snapshot at most once per SaveInterval. Fire and
// forget: a failed write just means state isn't durable for that interval.
func (e *Engine) maybeSave(ctx context.Context, now time.Time) {
	if e.store == nil || now.Sub(e.lastSave) < e.tuning.SaveInterval {
		return
	}
	e.lastSave = now
	e.save(ctx)
}

func (e *Engine) save(ctx context.Context) {
	if e.store == nil {
		return
	}
	snap := &pet.Snapshot{
		State:        e.current,
		LastActivity: e.lastActivity,
		Friends:      e.friends.Friends(),
		Session:      e.session,
	}
	if err := e.store.Save(ctx, snap); err != nil {
		slog.Warn("snapshot save failed", "error", err)
	}
}

var (
	_ EventSink   = (*Engine)(nil)
	_ Schedulable = (*Engine)(nil)
	_ Renderable  = (*Engine)(nil)
)
