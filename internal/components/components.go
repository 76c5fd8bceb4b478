// Package components holds the HDL generator of every supported component
// type and the registry the module generator looks them up in.
package components

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/robert-at-pretension-io/hdl-gen/internal/decl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/netlist"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

var (
	// ErrUnknownComponent is returned for a component type with no generator.
	ErrUnknownComponent = errors.New("unknown component type")
	// ErrUnsupported is returned when a component cannot be generated with the
	// requested dialect or attributes.
	ErrUnsupported = errors.New("component not supported for HDL generation")
)

// Generator produces the module and instantiation data of one component type.
// Module text depends only on the dialect; attributes reach an instance through
// its parameter values and port map.
type Generator interface {
	// Name is the component type and the generated module name.
	Name() string
	// SubDir is the output directory of the module, relative to the output root.
	SubDir() string
	Declarations() *decl.Set
	Functionality(d hdl.Dialect) (string, error)
	// Supports reports ErrUnsupported, or a more specific error, when an
	// instance with attrs cannot be generated in d.
	Supports(attrs netlist.Attributes, d hdl.Dialect) error
	PortMap(b *portmap.Builder, inst *netlist.Instance, resolved *decl.Resolved) (*portmap.Map, error)
}

// Registry maps component types to generators. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	gens map[string]Generator
}

// NewRegistry returns a registry holding gens.
func NewRegistry(gens ...Generator) *Registry {
	r := &Registry{gens: make(map[string]Generator)}
	for _, g := range gens {
		r.Register(g)
	}
	return r
}

// Register adds or replaces the generator for g.Name().
func (r *Registry) Register(g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[g.Name()] = g
}

// Lookup returns the generator of a component type.
func (r *Registry) Lookup(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gens[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownComponent, "%q", name)
	}
	return g, nil
}

// Names returns the registered component types in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.gens))
	for name := range r.gens {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Default returns a registry with every built-in component.
func Default() *Registry {
	return NewRegistry(Clock(), TTL7474(), Register(), Counter())
}

// component is a generator driven by a static pin layout.
type component struct {
	name   string
	subDir string
	decls  *decl.Set
	layout portmap.Layout
	body   hdl.Templates
	data   any
	check  func(attrs netlist.Attributes) error
}

func (c *component) Name() string { return c.name }
func (c *component) SubDir() string { return c.subDir }
func (c *component) Declarations() *decl.Set { return c.decls }

func (c *component) Functionality(d hdl.Dialect) (string, error) {
	text, err := c.body.Execute(d, c.data)
	if err != nil {
		return "", errors.Wrapf(err, "%s", c.name)
	}
	return hdl.NewBuffer(d).Add(text).String(3), nil
}

func (c *component) Supports(attrs netlist.Attributes, d hdl.Dialect) error {
	if err := d.Check(); err != nil {
		return err
	}
	if !c.body.Supports(d) {
		return errors.Wrapf(ErrUnsupported, "%s in %s", c.name, d)
	}
	if c.check != nil {
		return c.check(attrs)
	}
	return nil
}

func (c *component) PortMap(b *portmap.Builder, inst *netlist.Instance, resolved *decl.Resolved) (*portmap.Map, error) {
	return b.Build(inst, c.decls, resolved, c.layout)
}
