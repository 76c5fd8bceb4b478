// Package netlist is the read-only view of an extracted design: the circuit name,
// which nets are clock sources, and per-instance pin connectivity. It is produced
// by the external netlist builder; this package only loads and queries it.
package netlist

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"sigs.k8s.io/yaml"
)

// Netlist answers the design-wide questions the generators need.
type Netlist interface {
	CircuitName() string
	// ClockSourceID returns the clock source driving net, if net is a
	// recognized clock bus output.
	ClockSourceID(net string) (int, bool)
	// SingleClockDomain reports whether the whole design runs on the global
	// clock tree, in which case ticks are not used for gating.
	SingleClockDomain() bool
}

// Bit is one bit of a per-bit connection.
type Bit struct {
	Net   string  `json:"net,omitempty"`
	Const *uint64 `json:"const,omitempty"`
}

// End is the connection of one component pin. At most one of Net, Const or Bits
// is set; none set means the pin is unconnected. Bits are least significant first.
type End struct {
	Net   string  `json:"net,omitempty"`
	Const *uint64 `json:"const,omitempty"`
	Bits  []Bit   `json:"bits,omitempty"`
}

// Connected reports whether the pin is driven or drives anything.
func (e End) Connected() bool {
	return e.Net != "" || e.Const != nil || len(e.Bits) > 0
}

func (e End) kinds() int {
	n := 0
	if e.Net != "" {
		n++
	}
	if e.Const != nil {
		n++
	}
	if len(e.Bits) > 0 {
		n++
	}
	return n
}

// Instance is one component in the design.
type Instance struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Attributes Attributes `json:"attributes,omitempty"`
	Ends       []End      `json:"ends,omitempty"`
	// Units is the number of independently clocked units the netlist builder
	// found in a macro component. Zero means the component type's default.
	Units int `json:"units,omitempty"`
}

// End returns the connection of pin idx. Pins beyond the list are unconnected.
func (i *Instance) End(idx int) End {
	if idx < 0 || idx >= len(i.Ends) {
		return End{}
	}
	return i.Ends[idx]
}

// EndIsConnected reports whether pin idx is connected.
func (i *Instance) EndIsConnected(idx int) bool {
	return i.End(idx).Connected()
}

// Design is the netlist of one circuit as handed over by the netlist builder.
type Design struct {
	Circuit     string         `json:"circuit"`
	SingleClock bool           `json:"singleClockDomain,omitempty"`
	ClockNets   map[string]int `json:"clockNets,omitempty"`
	Instances   []Instance     `json:"instances"`
}

var _ Netlist = (*Design)(nil)

func (d *Design) CircuitName() string { return d.Circuit }

func (d *Design) ClockSourceID(net string) (int, bool) {
	if net == "" {
		return 0, false
	}
	id, ok := d.ClockNets[net]
	return id, ok
}

func (d *Design) SingleClockDomain() bool { return d.SingleClock }

// SortedInstances returns the instances ordered by name.
func (d *Design) SortedInstances() []*Instance {
	out := make([]*Instance, 0, len(d.Instances))
	for i := range d.Instances {
		out = append(out, &d.Instances[i])
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Load reads a design from a YAML or JSON file. It also returns the JSON form of
// the document so callers can validate it against the design schema.
func Load(path string) (*Design, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading design: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON design document.
func Parse(data []byte) (*Design, []byte, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing design: %w", err)
	}
	var d Design
	if err := json.Unmarshal(jsonData, &d); err != nil {
		return nil, nil, fmt.Errorf("decoding design: %w", err)
	}
	seen := make(map[string]bool, len(d.Instances))
	for _, inst := range d.Instances {
		if seen[inst.Name] {
			return nil, nil, fmt.Errorf("duplicate instance name %q", inst.Name)
		}
		seen[inst.Name] = true
		for i, end := range inst.Ends {
			if end.kinds() > 1 {
				return nil, nil, fmt.Errorf("instance %q pin %d: only one of net, const and bits may be set", inst.Name, i)
			}
		}
	}
	return &d, jsonData, nil
}
