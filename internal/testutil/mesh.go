package testutil

import (
	"sync"
	"time"

	"github.com/lorabot/lorabot/internal/mesh"
)

// Directory is a scripted node directory. Tests add and touch peers to
// simulate mesh churn.
type Directory struct {
	mu    sync.Mutex
	self  mesh.NodeID
	nodes []mesh.NodeInfo
}

// NewDirectory returns an empty directory with the given local node id.
func NewDirectory(self mesh.NodeID) *Directory {
	return &Directory{self: self}
}

func (d *Directory) Self() mesh.NodeID {
	return d.self
}

func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.nodes)
}

func (d *Directory) Nodes() []mesh.NodeInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]mesh.NodeInfo, len(d.nodes))
	copy(out, d.nodes)
	return out
}

// Add inserts or replaces a peer record.
func (d *Directory) Add(n mesh.NodeInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.nodes {
		if d.nodes[i].ID == n.ID {
			d.nodes[i] = n
			return
		}
	}
	d.nodes = append(d.nodes, n)
}

// Touch refreshes a peer's last-heard time.
func (d *Directory) Touch(id mesh.NodeID, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.nodes {
		if d.nodes[i].ID == id {
			d.nodes[i].LastHeard = at
			return
		}
	}
}

// Hour is a fixed TimeSource. OK=false simulates a missing RTC.
type Hour struct {
	H  int
	OK bool
}

func (h Hour) HourOfDay() (int, bool) {
	return h.H, h.OK
}

// MutableHour is a TimeSource tests can flip mid-scenario.
type MutableHour struct {
	mu sync.Mutex
	h  int
	ok bool
}

func NewMutableHour(h int) *MutableHour {
	return &MutableHour{h: h, ok: true}
}

func (m *MutableHour) HourOfDay() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.h, m.ok
}

func (m *MutableHour) Set(h int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.h, m.ok = h, ok
}

// Battery is a fixed BatterySource percentage.
type Battery int

func (b Battery) Percent() int {
	return int(b)
}

// MutableBattery is a BatterySource tests can drain mid-scenario.
type MutableBattery struct {
	mu  sync.Mutex
	pct int
}

func NewMutableBattery(pct int) *MutableBattery {
	return &MutableBattery{pct: pct}
}

func (m *MutableBattery) Percent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pct
}

func (m *MutableBattery) Set(pct int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pct = pct
}

// TextPacket builds a direct text message event.
func TextPacket(from, to mesh.NodeID, body string) mesh.PacketEvent {
	return mesh.PacketEvent{
		From:     from,
		To:       to,
		Kind:     mesh.PayloadText,
		Payload:  []byte(body),
		HopUsed:  3,
		HopLimit: 3,
	}
}

// BroadcastPacket builds a first-hop broadcast text event.
func BroadcastPacket(from mesh.NodeID, body string) mesh.PacketEvent {
	return mesh.PacketEvent{
		From:     from,
		To:       mesh.Broadcast,
		Kind:     mesh.PayloadText,
		Payload:  []byte(body),
		HopUsed:  3,
		HopLimit: 3,
	}
}
