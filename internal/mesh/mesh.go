// Package mesh defines the narrow boundary types through which the engine
// observes the radio mesh: inbound packet events, the node directory, the
// outbound-success counter, and the clock/battery sources.
//
// The transport itself lives outside this repository. Nothing here talks to
// a radio; these are the records and interfaces the host hands to the
// engine.
package mesh

import (
	"fmt"
	"time"

	"go.uber.org/atomic"
)

// NodeID is the numeric identity of a mesh node.
type NodeID uint32

// Broadcast is the recipient id meaning "every node in range".
const Broadcast NodeID = 0xffffffff

// Hex formats the id the way node labels fall back to when no display name
// is known.
func (id NodeID) Hex() string {
	return fmt.Sprintf("0x%x", uint32(id))
}

// PayloadKind is the coarse payload classification the engine cares about.
// Anything it does not understand is PayloadOther and classified as
// background traffic.
type PayloadKind uint8

const (
	PayloadOther PayloadKind = iota
	PayloadText
	PayloadPosition
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadText:
		return "text"
	case PayloadPosition:
		return "position"
	}
	return "other"
}

// PacketEvent is one observed mesh packet, already decoded by the
// transport. HopUsed equals HopLimit when the packet was heard on its first
// hop (zero hops consumed).
type PacketEvent struct {
	From     NodeID
	To       NodeID
	Kind     PayloadKind
	Payload  []byte
	HopUsed  uint8
	HopLimit uint8
}

// IsBroadcast reports whether the packet was addressed to every node.
func (e PacketEvent) IsBroadcast() bool {
	return e.To == Broadcast
}

// NodeInfo is one record from the host's node directory.
type NodeInfo struct {
	ID        NodeID
	LastHeard time.Time
	LongName  string
	ShortName string
	Favorite  bool
}

// Directory is the engine's read-only view of the node database. Len and
// Nodes report remote peers only; the local node is identified by Self.
type Directory interface {
	Self() NodeID
	Len() int
	Nodes() []NodeInfo
}

// RadioStats carries the transport counters the engine samples. TxGood is
// incremented by the radio side from its own goroutine, so it is atomic;
// the engine only ever loads it.
type RadioStats struct {
	TxGood atomic.Uint32
}

// RecordTx bumps the outbound-success counter. Called by the transport
// after a successful transmission.
func (s *RadioStats) RecordTx() {
	s.TxGood.Inc()
}

// TimeSource supplies the local hour of day for the night predicate.
// ok is false when no real-time clock is available; the engine then assumes
// daytime.
type TimeSource interface {
	HourOfDay() (hour int, ok bool)
}

// BatterySource supplies the battery charge percentage. Zero means
// unknown and is ignored by the low-battery predicate.
type BatterySource interface {
	Percent() int
}

// SystemTime is a TimeSource backed by the OS clock.
type SystemTime struct{}

func (SystemTime) HourOfDay() (int, bool) {
	return time.Now().Hour(), true
}
