package cli

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/lorabot/lorabot/internal/engine"
	"github.com/lorabot/lorabot/internal/mesh"
)

// simSelf is the simulated local node.
const simSelf mesh.NodeID = 0x10

var simNames = []string{
	"Basecamp", "Ridge Repeater", "Trail Node", "Balcony", "Rooftop",
	"Greenhouse", "Camper Van", "Lighthouse",
}

var simMessages = []string{
	"anyone near the summit?",
	"channel test, ignore",
	"coffee's on at basecamp",
	"signal great up here",
	"heading back before dark",
}

// nodeTable is a mutable mesh.Directory for the demo run.
type nodeTable struct {
	mu    sync.Mutex
	nodes []mesh.NodeInfo
}

func (t *nodeTable) Self() mesh.NodeID { return simSelf }

func (t *nodeTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

func (t *nodeTable) Nodes() []mesh.NodeInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]mesh.NodeInfo, len(t.nodes))
	copy(out, t.nodes)
	return out
}

func (t *nodeTable) add(n mesh.NodeInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nodes = append(t.nodes, n)
}

func (t *nodeTable) touch(id mesh.NodeID, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.nodes {
		if t.nodes[i].ID == id {
			t.nodes[i].LastHeard = at
			return
		}
	}
}

// simulator feeds the engine a plausible trickle of mesh activity so the
// demo run has something to react to without a radio attached.
type simulator struct {
	rng   *rand.Rand
	dir   *nodeTable
	radio *mesh.RadioStats
	sink  engine.EventSink

	nextID mesh.NodeID
}

func newSimulator(seed int64, dir *nodeTable, radio *mesh.RadioStats, sink engine.EventSink) *simulator {
	return &simulator{
		rng:    rand.New(rand.NewSource(seed)),
		dir:    dir,
		radio:  radio,
		sink:   sink,
		nextID: 0x20,
	}
}

// step advances the simulated mesh by one demo tick. Event probabilities
// are tuned for a watchable demo, not realism.
func (s *simulator) step(now time.Time) {
	roll := s.rng.Intn(1000)
	switch {
	case roll < 4 && s.dir.Len() < len(simNames):
		s.join(now)
	case roll < 16 && s.dir.Len() > 0:
		s.inboundText(now)
	case roll < 22 && s.dir.Len() > 0:
		s.inboundPosition(now)
	case roll < 30 && s.dir.Len() > 1:
		s.relayedChatter(now)
	}
}

// sendText simulates the operator sending a message: the engine observes
// the outbound text, then the radio reports the transmission.
func (s *simulator) sendText(now time.Time) {
	s.sink.HandlePacket(mesh.PacketEvent{
		From:     simSelf,
		To:       mesh.Broadcast,
		Kind:     mesh.PayloadText,
		Payload:  []byte("hello mesh!"),
		HopUsed:  3,
		HopLimit: 3,
	})
	s.radio.RecordTx()
}

func (s *simulator) join(now time.Time) {
	name := simNames[s.dir.Len()%len(simNames)]
	id := s.nextID
	s.nextID++
	s.dir.add(mesh.NodeInfo{
		ID:        id,
		LongName:  name,
		ShortName: name[:3],
		LastHeard: now,
		Favorite:  s.rng.Intn(4) == 0,
	})
}

func (s *simulator) inboundText(now time.Time) {
	from := s.pick()
	s.dir.touch(from, now)
	s.sink.HandlePacket(mesh.PacketEvent{
		From:     from,
		To:       simSelf,
		Kind:     mesh.PayloadText,
		Payload:  []byte(simMessages[s.rng.Intn(len(simMessages))]),
		HopUsed:  3,
		HopLimit: 3,
	})
}

func (s *simulator) inboundPosition(now time.Time) {
	from := s.pick()
	s.dir.touch(from, now)
	s.sink.HandlePacket(mesh.PacketEvent{
		From:     from,
		To:       mesh.Broadcast,
		Kind:     mesh.PayloadPosition,
		HopUsed:  3,
		HopLimit: 3,
	})
}

// relayedChatter injects traffic between other nodes; the companion should
// visibly ignore it.
func (s *simulator) relayedChatter(now time.Time) {
	from := s.pick()
	s.sink.HandlePacket(mesh.PacketEvent{
		From:     from,
		To:       mesh.Broadcast,
		Kind:     mesh.PayloadText,
		Payload:  []byte(fmt.Sprintf("relay %d", s.rng.Intn(100))),
		HopUsed:  1,
		HopLimit: 3,
	})
}

func (s *simulator) pick() mesh.NodeID {
	nodes := s.dir.Nodes()
	return nodes[s.rng.Intn(len(nodes))].ID
}
