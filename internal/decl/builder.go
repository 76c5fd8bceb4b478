package decl

import (
	"sort"

	"github.com/pkg/errors"
)

// Builder collects declarations for a Set.
type Builder struct {
	params  []Parameter
	ports   []Port
	signals []Signal
}

// NewBuilder starts an empty declaration list.
func NewBuilder() *Builder { return &Builder{} }

// Direct adds a parameter copied from an integer attribute plus offset.
func (b *Builder) Direct(name, attr string, offset int) *Builder {
	b.params = append(b.params, Parameter{Name: name, Kind: Direct, Attr: attr, Value: offset})
	return b
}

// Log2Range adds ceil(log2(upper - lower + 1)).
func (b *Builder) Log2Range(name, upper, lower string) *Builder {
	b.params = append(b.params, Parameter{Name: name, Kind: Log2Range, Attr: upper, Attr2: lower})
	return b
}

// Log2Max adds ceil(log2(max(a, b))).
func (b *Builder) Log2Max(name, a, c string) *Builder {
	b.params = append(b.params, Parameter{Name: name, Kind: Log2Max, Attr: a, Attr2: c})
	return b
}

// Constant adds a fixed parameter.
func (b *Builder) Constant(name string, value int) *Builder {
	b.params = append(b.params, Parameter{Name: name, Kind: Constant, Value: value})
	return b
}

func (b *Builder) Input(name string, w Width) *Builder {
	b.ports = append(b.ports, Port{Name: name, Dir: Input, Width: w})
	return b
}

func (b *Builder) Output(name string, w Width) *Builder {
	b.ports = append(b.ports, Port{Name: name, Dir: Output, Width: w})
	return b
}

func (b *Builder) Wire(name string, w Width) *Builder {
	b.signals = append(b.signals, Signal{Name: name, Width: w})
	return b
}

func (b *Builder) Register(name string, w Width) *Builder {
	b.signals = append(b.signals, Signal{Name: name, Width: w, Register: true})
	return b
}

// Build sorts the declarations by name and checks that names are unique and
// that parameter widths refer to declared parameters.
func (b *Builder) Build() (*Set, error) {
	s := &Set{
		params:  append([]Parameter(nil), b.params...),
		ports:   append([]Port(nil), b.ports...),
		signals: append([]Signal(nil), b.signals...),
		byPort:  make(map[string]int, len(b.ports)),
		byParam: make(map[string]int, len(b.params)),
	}
	sort.Slice(s.params, func(i, j int) bool { return s.params[i].Name < s.params[j].Name })
	sort.Slice(s.ports, func(i, j int) bool { return s.ports[i].Name < s.ports[j].Name })
	sort.Slice(s.signals, func(i, j int) bool { return s.signals[i].Name < s.signals[j].Name })

	names := make(map[string]bool)
	claim := func(name string) error {
		if name == "" {
			return errors.New("empty declaration name")
		}
		if names[name] {
			return errors.Errorf("duplicate declaration %q", name)
		}
		names[name] = true
		return nil
	}
	for i, p := range s.params {
		if err := claim(p.Name); err != nil {
			return nil, err
		}
		s.byParam[p.Name] = i
	}
	checkWidth := func(owner string, w Width) error {
		if w.Param != "" {
			if _, ok := s.byParam[w.Param]; !ok {
				return errors.Errorf("%s: width refers to unknown parameter %q", owner, w.Param)
			}
			return nil
		}
		if w.Bits < 1 {
			return errors.Errorf("%s: width must be at least 1", owner)
		}
		return nil
	}
	for i, p := range s.ports {
		if err := claim(p.Name); err != nil {
			return nil, err
		}
		if err := checkWidth(p.Name, p.Width); err != nil {
			return nil, err
		}
		s.byPort[p.Name] = i
	}
	for _, sig := range s.signals {
		if err := claim(sig.Name); err != nil {
			return nil, err
		}
		if err := checkWidth(sig.Name, sig.Width); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Must panics if err is non-nil. It is meant for static component tables.
func Must(s *Set, err error) *Set {
	if err != nil {
		panic(err)
	}
	return s
}
