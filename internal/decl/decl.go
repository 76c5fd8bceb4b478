// Package decl is the declaration model of a component type: its parameters,
// ports, wires and registers. A Set is built once per component type and is
// immutable afterwards; Resolve binds it to one instance's attributes.
package decl

import (
	"math/bits"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// ErrMissingAttribute is returned when a parameter refers to an attribute the
// instance does not define.
var ErrMissingAttribute = errors.New("missing attribute")

// Attrs is the attribute lookup a Set resolves against.
type Attrs interface {
	Int(key string) (int, bool)
}

// Direction of a port.
type Direction int

const (
	Input Direction = iota + 1
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "out"
	}
	return "in"
}

// Kind is the resolution rule of a parameter.
type Kind int

const (
	// Direct copies an integer attribute, plus Value as offset.
	Direct Kind = iota + 1
	// Log2Range is ceil(log2(Attr - Attr2 + 1)), at least 1.
	Log2Range
	// Log2Max is ceil(log2(max(Attr, Attr2))), at least 1.
	Log2Max
	// Constant is Value.
	Constant
)

// Parameter is a generic of the generated module.
type Parameter struct {
	Name  string
	Kind  Kind
	Attr  string
	Attr2 string
	Value int
}

// Width is either a fixed bit count or the value of a parameter.
type Width struct {
	Bits  int
	Param string
	// Vector types a fixed one-bit width as a one-element vector.
	Vector bool
}

// Bits returns a fixed width.
func Bits(n int) Width { return Width{Bits: n} }

// Param returns a width taken from a parameter.
func Param(name string) Width { return Width{Param: name} }

// Fixed returns n bits, typed as a vector when vector is set or n > 1.
func Fixed(n int, vector bool) Width { return Width{Bits: n, Vector: vector || n > 1} }

// IsVector reports whether signals of this width are vector typed. Parameter
// widths always are, whatever value the parameter takes.
func (w Width) IsVector() bool { return w.Param != "" || w.Bits > 1 || w.Vector }

func (w Width) String() string {
	switch {
	case w.Param != "":
		return w.Param
	case w.Bits == 1 && w.Vector:
		return "1 (vector)"
	}
	return strconv.Itoa(w.Bits)
}

// Port is an input or output of the module.
type Port struct {
	Name  string
	Dir   Direction
	Width Width
}

// Signal is an internal wire or register.
type Signal struct {
	Name     string
	Width    Width
	Register bool
}

// Set is the static declaration list of one component type.
type Set struct {
	params  []Parameter
	ports   []Port
	signals []Signal
	byPort  map[string]int
	byParam map[string]int
}

// Parameters returns the parameters sorted by name.
func (s *Set) Parameters() []Parameter { return append([]Parameter(nil), s.params...) }

// Ports returns the ports sorted by name.
func (s *Set) Ports() []Port { return append([]Port(nil), s.ports...) }

// Signals returns wires and registers sorted by name.
func (s *Set) Signals() []Signal { return append([]Signal(nil), s.signals...) }

// Port looks up a declared port.
func (s *Set) Port(name string) (Port, bool) {
	i, ok := s.byPort[name]
	if !ok {
		return Port{}, false
	}
	return s.ports[i], true
}

// HasPort reports whether name is a declared port.
func (s *Set) HasPort(name string) bool {
	_, ok := s.byPort[name]
	return ok
}

// Value is a resolved parameter.
type Value struct {
	Name  string
	Value int
}

// ResolvedPort is a port with its width in bits.
type ResolvedPort struct {
	Port
	Bits int
	// Vector is set when the port is declared with a vector type, which
	// holds for every parameter width even when it resolves to one bit.
	Vector bool
}

// Type is the fixed width a net connected to the port must have.
func (p ResolvedPort) Type() Width { return Fixed(p.Bits, p.Vector) }

// ResolvedSignal is a wire or register with its width in bits.
type ResolvedSignal struct {
	Signal
	Bits int
}

// Resolved is a Set bound to one instance's attributes. All lists keep the
// name order of the Set.
type Resolved struct {
	Params  []Value
	Ports   []ResolvedPort
	Signals []ResolvedSignal
}

// Port looks up a resolved port.
func (r *Resolved) Port(name string) (ResolvedPort, bool) {
	i := sort.Search(len(r.Ports), func(i int) bool { return r.Ports[i].Name >= name })
	if i < len(r.Ports) && r.Ports[i].Name == name {
		return r.Ports[i], true
	}
	return ResolvedPort{}, false
}

// PortWidth returns the resolved width of a port.
func (r *Resolved) PortWidth(name string) (int, bool) {
	p, ok := r.Port(name)
	return p.Bits, ok
}

// Param returns a resolved parameter value.
func (r *Resolved) Param(name string) (int, bool) {
	for _, p := range r.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}

// Resolve evaluates every parameter against attrs and resolves all widths.
func (s *Set) Resolve(attrs Attrs) (*Resolved, error) {
	r := &Resolved{Params: make([]Value, 0, len(s.params))}
	values := make(map[string]int, len(s.params))
	for _, p := range s.params {
		v, err := p.resolve(attrs)
		if err != nil {
			return nil, err
		}
		values[p.Name] = v
		r.Params = append(r.Params, Value{Name: p.Name, Value: v})
	}
	width := func(w Width) int {
		if w.Param != "" {
			return values[w.Param]
		}
		return w.Bits
	}
	for _, p := range s.ports {
		r.Ports = append(r.Ports, ResolvedPort{Port: p, Bits: width(p.Width), Vector: p.Width.IsVector()})
	}
	for _, sig := range s.signals {
		r.Signals = append(r.Signals, ResolvedSignal{Signal: sig, Bits: width(sig.Width)})
	}
	return r, nil
}

func (p Parameter) resolve(attrs Attrs) (int, error) {
	lookup := func(key string) (int, error) {
		if attrs == nil {
			return 0, errors.Wrapf(ErrMissingAttribute, "%q for parameter %s", key, p.Name)
		}
		v, ok := attrs.Int(key)
		if !ok {
			return 0, errors.Wrapf(ErrMissingAttribute, "%q for parameter %s", key, p.Name)
		}
		return v, nil
	}
	switch p.Kind {
	case Constant:
		return p.Value, nil
	case Direct:
		v, err := lookup(p.Attr)
		if err != nil {
			return 0, err
		}
		return v + p.Value, nil
	case Log2Range, Log2Max:
		a, err := lookup(p.Attr)
		if err != nil {
			return 0, err
		}
		b, err := lookup(p.Attr2)
		if err != nil {
			return 0, err
		}
		n := a - b + 1
		if p.Kind == Log2Max {
			n = max(a, b)
		}
		return CeilLog2(n), nil
	}
	return 0, errors.Errorf("parameter %s has unknown kind %d", p.Name, p.Kind)
}

// CeilLog2 returns the number of bits needed to count n distinct values, at least 1.
func CeilLog2(n int) int {
	if n <= 2 {
		return 1
	}
	return bits.Len(uint(n - 1))
}
