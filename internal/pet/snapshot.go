package pet

import (
	"errors"
	"time"
)

// ErrCorruptFriends is reported (wrapped) by stores whose persisted friend
// data failed validation. The snapshot's state and activity time are still
// usable; the friend list has been reset wholesale rather than trusted
// partially.
var ErrCorruptFriends = errors.New("corrupt friend data")

// Snapshot is the persisted engine state: the current emotional state, the
// last activity time, and the friend list.
//
// INVARIANT: len(Friends) <= MaxFriends. Stores that decode violated data
// discard the friend list wholesale rather than trusting it partially.
type Snapshot struct {
	State        State
	LastActivity time.Time
	Friends      []Friend

	// Session identifies the engine run that wrote the snapshot. Used only
	// for correlating log lines with persisted data; never interpreted.
	Session string
}

// Frame is the render-ready output of the engine: the face glyph, the
// caption line beneath it, and an optional received-message popup with its
// expiry.
type Frame struct {
	Face        string
	Caption     string
	Popup       string
	PopupExpiry time.Time
}

// Personality holds the behavioral tunables. Thresholds are configuration,
// not load-bearing constants.
type Personality struct {
	// FriendBondThreshold is the encounter count after which a peer counts
	// as a friend.
	FriendBondThreshold uint8

	// BoredAfter is how long without mesh activity before the companion
	// goes Demotivated. Zero disables the state.
	BoredAfter time.Duration

	// NightStartHour/NightEndHour bound the night predicate. The range may
	// wrap midnight (e.g. 23..6).
	NightStartHour int
	NightEndHour   int

	// LowBatteryPercent is the charge level below which the companion
	// sleeps. A reported level of zero means "unknown" and never trips
	// this.
	LowBatteryPercent int
}

// DefaultPersonality returns the stock temperament.
func DefaultPersonality() Personality {
	return Personality{
		FriendBondThreshold: 3,
		BoredAfter:          30 * time.Minute,
		NightStartHour:      23,
		NightEndHour:        6,
		LowBatteryPercent:   10,
	}
}
