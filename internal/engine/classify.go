package engine

import (
	"github.com/lorabot/lorabot/internal/mesh"
	"github.com/lorabot/lorabot/internal/pet"
)

// Direction is the semantic category of one observed packet relative to the
// local node.
type Direction uint8

const (
	// DirectionRelayed is background traffic passing through the mesh.
	// Explicitly non-reactive: it must never move the state machine.
	DirectionRelayed Direction = iota

	// DirectionSelfToOther is a locally authored direct message.
	DirectionSelfToOther

	// DirectionSelfBroadcast is a locally authored broadcast.
	DirectionSelfBroadcast

	// DirectionOtherToMeDirect is a remote message addressed to us.
	DirectionOtherToMeDirect

	// DirectionOtherBroadcast is a remote broadcast heard on its first hop.
	DirectionOtherBroadcast
)

func (d Direction) String() string {
	switch d {
	case DirectionSelfToOther:
		return "self_to_other"
	case DirectionSelfBroadcast:
		return "self_broadcast"
	case DirectionOtherToMeDirect:
		return "other_to_me"
	case DirectionOtherBroadcast:
		return "other_broadcast"
	}
	return "relayed"
}

// Reactive reports whether the direction should excite the companion
// (trigger the Received cycle).
func (d Direction) Reactive() bool {
	return d == DirectionOtherToMeDirect || d == DirectionOtherBroadcast
}

// FromSelf reports whether the packet originated locally.
func (d Direction) FromSelf() bool {
	return d == DirectionSelfToOther || d == DirectionSelfBroadcast
}

// ClassifyDirection categorizes one packet. Pure function, no side effects.
//
// Rules, in order:
//   - from == self: SelfBroadcast if addressed to everyone, else SelfToOther
//   - payload kinds the companion does not understand are background traffic
//   - to == self and not broadcast: OtherToMeDirect
//   - broadcast with zero hops consumed (HopUsed == HopLimit): OtherBroadcast
//   - anything else: Relayed
func ClassifyDirection(ev mesh.PacketEvent, self mesh.NodeID) Direction {
	if ev.From == self {
		if ev.IsBroadcast() {
			return DirectionSelfBroadcast
		}
		return DirectionSelfToOther
	}
	if ev.Kind != mesh.PayloadText && ev.Kind != mesh.PayloadPosition {
		return DirectionRelayed
	}
	if ev.To == self && !ev.IsBroadcast() {
		return DirectionOtherToMeDirect
	}
	if ev.IsBroadcast() && ev.HopUsed == ev.HopLimit {
		return DirectionOtherBroadcast
	}
	return DirectionRelayed
}

// DiscoveryKind is the semantic category of one node-count observation.
type DiscoveryKind uint8

const (
	// DiscoveryCountUnchanged means nothing happened.
	DiscoveryCountUnchanged DiscoveryKind = iota

	// DiscoveryFirstBoot means this is the first observation after start
	// (previous count was zero). Never reacts; it only baselines the
	// counter so a cold start cannot produce a discovery storm.
	DiscoveryFirstBoot

	// DiscoverySuppressedBySend means a local transmission was in flight,
	// so a count change cannot be attributed to a peer joining.
	DiscoverySuppressedBySend

	// DiscoveryNewNodeFound means a genuine new peer appeared.
	DiscoveryNewNodeFound

	// DiscoveryCountChangedOtherwise covers shrinking or reshuffled counts.
	DiscoveryCountChangedOtherwise
)

func (k DiscoveryKind) String() string {
	switch k {
	case DiscoveryFirstBoot:
		return "first_boot"
	case DiscoverySuppressedBySend:
		return "suppressed_by_send"
	case DiscoveryNewNodeFound:
		return "new_node"
	case DiscoveryCountChangedOtherwise:
		return "count_changed"
	}
	return "unchanged"
}

// ClassifyDiscovery categorizes a node-count delta. Pure function.
// Only DiscoveryNewNodeFound drives the Discovered state.
func ClassifyDiscovery(total, previous int, sending bool) DiscoveryKind {
	switch {
	case previous == 0:
		return DiscoveryFirstBoot
	case sending:
		return DiscoverySuppressedBySend
	case total > previous:
		return DiscoveryNewNodeFound
	case total != previous:
		return DiscoveryCountChangedOtherwise
	}
	return DiscoveryCountUnchanged
}

// DiscoveryLabel resolves the caption shown for a newly discovered peer: the
// most recently heard remote node's long name, falling back to its short
// name and finally a hex-formatted id, truncated to the caption budget.
// Returns "" when the directory holds no remote peers.
func DiscoveryLabel(dir mesh.Directory) string {
	self := dir.Self()
	var newest *mesh.NodeInfo
	nodes := dir.Nodes()
	for i := range nodes {
		n := &nodes[i]
		if n.ID == self {
			continue
		}
		if newest == nil || n.LastHeard.After(newest.LastHeard) {
			newest = n
		}
	}
	if newest == nil {
		return ""
	}
	name := newest.LongName
	if name == "" {
		name = newest.ShortName
	}
	if name == "" {
		name = "Node " + newest.ID.Hex()
	}
	return pet.DiscoveryCaption(name)
}
