package portmap

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/robert-at-pretension-io/hdl-gen/internal/decl"
)

var (
	// ErrUnknownPort is returned when a mapping names a port the component does not declare.
	ErrUnknownPort = errors.New("port not declared")
	// ErrDuplicatePort is returned when a port is mapped twice.
	ErrDuplicatePort = errors.New("port mapped twice")
	// ErrMissingPort is returned when a declared port has no mapping.
	ErrMissingPort = errors.New("port not mapped")
	// ErrUnitOutOfRange is returned for a macro unit index the component does not have.
	ErrUnitOutOfRange = errors.New("unit index out of range")
	// ErrBadConnection is returned for a pin connection that cannot be expressed.
	ErrBadConnection = errors.New("invalid pin connection")
)

// Assignment is one port of an instantiation.
type Assignment struct {
	Port string
	Expr Expr
}

// Map is the validated port map of one instance. Only ports declared by the
// component's declaration set can be added.
type Map struct {
	set     *decl.Set
	entries map[string]Expr
	// Clocks lists the clock resolution of every unit, in unit order.
	Clocks []ClockResolution
}

// NewMap returns an empty map validated against set.
func NewMap(set *decl.Set) *Map {
	return &Map{set: set, entries: make(map[string]Expr)}
}

// Put maps port to e.
func (m *Map) Put(port string, e Expr) error {
	if !m.set.HasPort(port) {
		return errors.Wrapf(ErrUnknownPort, "%q", port)
	}
	if _, ok := m.entries[port]; ok {
		return errors.Wrapf(ErrDuplicatePort, "%q", port)
	}
	m.entries[port] = e
	return nil
}

// Get returns the actual mapped to port.
func (m *Map) Get(port string) (Expr, bool) {
	e, ok := m.entries[port]
	return e, ok
}

// Len returns the number of mapped ports.
func (m *Map) Len() int { return len(m.entries) }

// Assignments returns the map sorted by port name.
func (m *Map) Assignments() []Assignment {
	out := make([]Assignment, 0, len(m.entries))
	for port, e := range m.entries {
		out = append(out, Assignment{Port: port, Expr: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Port < out[j].Port })
	return out
}

// Strings returns the dialect-neutral form of every mapping.
func (m *Map) Strings() map[string]string {
	out := make(map[string]string, len(m.entries))
	for port, e := range m.entries {
		out[port] = e.String()
	}
	return out
}

// Complete checks that every declared port is mapped.
func (m *Map) Complete() error {
	for _, p := range m.set.Ports() {
		if _, ok := m.entries[p.Name]; !ok {
			return errors.Wrapf(ErrMissingPort, "%q", p.Name)
		}
	}
	return nil
}
