package engine

import (
	"log/slog"
	"time"

	"github.com/lorabot/lorabot/internal/pet"
)

// refreshDisplayCache keeps the render-side caches warm: the favorite-count
// directory scan (bounded by a refresh timer rather than hidden statics),
// the rotating Sent caption, and popup expiry.
func (e *Engine) refreshDisplayCache(now time.Time) {
	if e.dir != nil && (e.favDirty || e.favTick.due(now)) {
		e.favDirty = false
		count := 0
		for _, n := range e.dir.Nodes() {
			if n.Favorite {
				count++
			}
		}
		e.favCount = count
	}
	if e.current == pet.Sent && e.sentCaptionTick.due(now) {
		e.sentCaption = (e.sentCaption + 1) % len(pet.SentCaptions)
	}
	if e.popupText != "" && now.Sub(e.popupAt) > e.tuning.PopupTTL {
		e.popupText = ""
	}
}

// Frame returns the render-ready face and caption pair. Point-in-time
// snapshot read: safe to call from a render goroutine between passes,
// never mutates engine state.
func (e *Engine) Frame() pet.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.current
	if !st.Valid() {
		// Should be unreachable; substitute a safe default rather than halt.
		slog.Warn("invalid state, substituting idle", "state", uint8(st))
		st = pet.Idle
	}

	f := pet.Frame{Face: st.Face()}
	switch {
	case st == pet.Discovered && e.discoveryLabel != "":
		f.Caption = e.discoveryLabel
	case st == pet.Sent:
		f.Caption = pet.SentCaptions[e.sentCaption]
	case st.IdleFamily():
		f.Caption = pet.IdleCaptions[e.anim.caption]
	default:
		f.Caption = pet.StatusLine(e.peerCount, e.favCount)
	}

	if e.popupText != "" {
		f.Popup = e.popupText
		f.PopupExpiry = e.popupAt.Add(e.tuning.PopupTTL)
	}
	return f
}

// State returns the current emotional state. Snapshot read, like Frame.
func (e *Engine) State() pet.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}
