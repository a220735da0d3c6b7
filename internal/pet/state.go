// Package pet holds the domain model for the lorabot companion: the
// emotional states with their faces and labels, the caption tables, the
// bounded friend list, and the persisted snapshot record.
//
// Everything here is plain data with no timing logic. The engine package
// owns when states change; this package only says what each state looks
// like.
package pet

// State identifies the single emotional state the companion is in.
//
// Exactly one State is current at any instant (mutual exclusion is enforced
// by the engine's state machine). The numeric values are persisted in
// snapshots, so the order is frozen: append new states, never reorder.
type State uint8

const (
	Idle State = iota
	LookLeft
	LookRight
	Discovered
	Received
	Blink
	Sleep1
	Sleep2
	Grateful
	Demotivated
	Sent

	stateCount
)

// faces maps each state to its display glyph. Plain ASCII only: the glyphs
// were chosen to render on small OLED panels and narrow terminals alike.
var faces = [stateCount]string{
	Idle:        "( o . o )",
	LookLeft:    "( < . < )",
	LookRight:   "( > . > )",
	Discovered:  "( ^ - ^ )",
	Received:    "( * o * )",
	Blink:       "( - . - )",
	Sleep1:      "( ~ _ ~ )",
	Sleep2:      "( ~ o ~ )",
	Grateful:    "( ^ o ^ )",
	Demotivated: "( / _ \\ )",
	Sent:        "(  ' . ')>",
}

var labels = [stateCount]string{
	Idle:        "Idle",
	LookLeft:    "Look L",
	LookRight:   "Look R",
	Discovered:  "Discovered",
	Received:    "Received",
	Blink:       "Blink",
	Sleep1:      "Sleeping",
	Sleep2:      "Snoring",
	Grateful:    "Grateful",
	Demotivated: "Demotivated",
	Sent:        "Sent",
}

// Valid reports whether s is one of the defined states. Out-of-range values
// can only come from corrupted snapshots or future versions; callers
// substitute Idle rather than failing.
func (s State) Valid() bool {
	return s < stateCount
}

// Face returns the display glyph for s. Out-of-range states fall back to
// the Idle face.
func (s State) Face() string {
	if !s.Valid() {
		return faces[Idle]
	}
	return faces[s]
}

// String returns the human-readable label for s.
func (s State) String() string {
	if !s.Valid() {
		return "Unknown"
	}
	return labels[s]
}

// IdleFamily reports whether s is one of the default look-around states
// driven by the animation sub-cycle.
func (s State) IdleFamily() bool {
	return s == Idle || s == LookLeft || s == LookRight
}

// Sleeping reports whether s is one of the two alternating sleep faces.
func (s State) Sleeping() bool {
	return s == Sleep1 || s == Sleep2
}

// Preempting reports whether transitions into or out of s bypass the
// minimum-dwell throttle. These are the short, explicitly timed states: the
// dwell throttle exists to stop idle sub-phases from flickering, not to
// delay event reactions.
func (s State) Preempting() bool {
	switch s {
	case Blink, Sent, Received, Grateful, Discovered:
		return true
	}
	return false
}
