package harness

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lorabot/lorabot/internal/mesh"
)

// Scenario is one scripted mesh timeline. Events fire at fixed offsets from
// scenario start; samples capture the companion's visible output at fixed
// offsets for golden comparison.
type Scenario struct {
	// Name uniquely identifies the scenario and keys its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description"`

	// DurationMs is how long the timeline runs.
	DurationMs int `yaml:"duration_ms"`

	// Events is the scripted input, ordered by offset.
	Events []Event `yaml:"events"`

	// SampleMs lists the offsets at which the frame is captured. Offsets
	// must lie on the tick grid so captures land right after a pass.
	SampleMs []int `yaml:"sample_ms"`
}

// Event is one scripted input at a fixed offset. Exactly one of the action
// fields is set.
type Event struct {
	AtMs int `yaml:"at_ms"`

	// Packet injects one observed mesh packet.
	Packet *PacketSpec `yaml:"packet,omitempty"`

	// Node adds or replaces a node directory entry.
	Node *NodeSpec `yaml:"node,omitempty"`

	// Tx bumps the outbound-success counter.
	Tx bool `yaml:"tx,omitempty"`

	// Hour sets the scripted local hour (-1 means no clock available).
	Hour *int `yaml:"hour,omitempty"`

	// Battery sets the scripted battery percentage.
	Battery *int `yaml:"battery,omitempty"`
}

// PacketSpec is the YAML form of a mesh packet.
type PacketSpec struct {
	From      uint32 `yaml:"from"`
	To        uint32 `yaml:"to"` // 0 means broadcast
	Kind      string `yaml:"kind"`
	Text      string `yaml:"text,omitempty"`
	HopsTaken int    `yaml:"hops_taken"`
}

// NodeSpec is the YAML form of a directory entry.
type NodeSpec struct {
	ID        uint32 `yaml:"id"`
	LongName  string `yaml:"long_name,omitempty"`
	ShortName string `yaml:"short_name,omitempty"`
	Favorite  bool   `yaml:"favorite,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// Validate rejects malformed scenarios before they produce confusing
// traces.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("missing name")
	}
	if s.DurationMs <= 0 {
		return fmt.Errorf("duration_ms must be positive")
	}
	for i, ev := range s.Events {
		if ev.AtMs < 0 || ev.AtMs > s.DurationMs {
			return fmt.Errorf("event %d at %dms outside timeline", i, ev.AtMs)
		}
		set := 0
		if ev.Packet != nil {
			set++
			if _, err := ev.Packet.payloadKind(); err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
		}
		if ev.Node != nil {
			set++
		}
		if ev.Tx {
			set++
		}
		if ev.Hour != nil {
			set++
		}
		if ev.Battery != nil {
			set++
		}
		if set != 1 {
			return fmt.Errorf("event %d must set exactly one action, has %d", i, set)
		}
	}
	if len(s.SampleMs) == 0 {
		return fmt.Errorf("no sample offsets")
	}
	for _, at := range s.SampleMs {
		if at < 0 || at > s.DurationMs {
			return fmt.Errorf("sample at %dms outside timeline", at)
		}
		if at%tickMs != 0 {
			return fmt.Errorf("sample at %dms off the %dms tick grid", at, tickMs)
		}
	}
	if !sort.IntsAreSorted(s.SampleMs) {
		return fmt.Errorf("sample offsets must be ascending")
	}
	return nil
}

// payloadKind maps the YAML kind string to the mesh type.
func (p *PacketSpec) payloadKind() (mesh.PayloadKind, error) {
	switch p.Kind {
	case "text":
		return mesh.PayloadText, nil
	case "position":
		return mesh.PayloadPosition, nil
	case "other", "":
		return mesh.PayloadOther, nil
	}
	return 0, fmt.Errorf("unknown packet kind %q", p.Kind)
}

// packetEvent builds the engine-facing event. A zero recipient means
// broadcast; hops_taken counts consumed hops, so zero means first hop.
func (p *PacketSpec) packetEvent() mesh.PacketEvent {
	kind, _ := p.payloadKind()
	to := mesh.NodeID(p.To)
	if p.To == 0 {
		to = mesh.Broadcast
	}
	const hopLimit = 3
	return mesh.PacketEvent{
		From:     mesh.NodeID(p.From),
		To:       to,
		Kind:     kind,
		Payload:  []byte(p.Text),
		HopUsed:  uint8(hopLimit - p.HopsTaken),
		HopLimit: hopLimit,
	}
}
