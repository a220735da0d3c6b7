package pet

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"
)

// CaptionWidth is the display-column budget for a single caption line.
// Captions longer than this are truncated, counting wide runes as two
// columns.
const CaptionWidth = 32

// IdleCaptions rotate under the idle/look states on their own timer,
// decoupled from the look-cycle period.
var IdleCaptions = []string{
	"Too cute to route.",
	"Mesh me, maybe?",
	"I sense...potential pals",
	"Any1 broadcasting snacks?",
	"LoRa? More like explore-a!",
	"Who's out there?",
	"Looking for friends...",
	"Mesh network detective!",
}

// SentCaptions rotate while the Sent state is showing.
var SentCaptions = []string{
	"Message Sent!",
	"Off it goes!",
	"Beamed it!",
	"Packet away!",
	"Data transmitted",
}

// PositionPopup is the popup text used when the received payload carries no
// displayable text.
const PositionPopup = "Position update!"

// DiscoveryCaption formats the greeting shown while Discovered is active.
// The result is truncated to the caption budget.
func DiscoveryCaption(name string) string {
	return TruncateCaption("Hello " + name + "!")
}

// StatusLine formats the fallback caption showing mesh totals.
func StatusLine(nodes, friends int) string {
	return fmt.Sprintf("Nodes:%d Friends:%d", nodes, friends)
}

// TruncateCaption trims s to at most CaptionWidth display columns. Rune
// width is resolved via the Unicode East Asian Width tables so two-column
// glyphs don't overflow narrow displays.
func TruncateCaption(s string) string {
	var b strings.Builder
	cols := 0
	for _, r := range s {
		w := runeColumns(r)
		if cols+w > CaptionWidth {
			break
		}
		b.WriteRune(r)
		cols += w
	}
	return b.String()
}

func runeColumns(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}
