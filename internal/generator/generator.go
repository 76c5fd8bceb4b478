// Package generator turns a design into HDL text: one module per component type
// used, one instantiation per instance, one clock distributor per clock source
// and the circuit structure that declares the clock buses and ties it together.
package generator

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/robert-at-pretension-io/hdl-gen/internal/clockbus"
	"github.com/robert-at-pretension-io/hdl-gen/internal/clockgen"
	"github.com/robert-at-pretension-io/hdl-gen/internal/components"
	"github.com/robert-at-pretension-io/hdl-gen/internal/decl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/diag"
	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/netlist"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

var (
	// ErrUnknownComponent is returned for an instance whose type has no generator.
	ErrUnknownComponent = components.ErrUnknownComponent
	// ErrClockSource is returned when the clock sources of a design are not
	// driven by exactly one clock component each.
	ErrClockSource = errors.New("inconsistent clock sources")
	// ErrNetWidth is returned when one net is connected to ports of different widths.
	ErrNetWidth = errors.New("net used with conflicting widths")
)

// Module is the generated text of one component type.
type Module struct {
	Name   string
	SubDir string
	Body   string
	Text   string
}

// Instance is the generated instantiation of one netlist instance.
type Instance struct {
	Name   string
	Type   string
	Params []decl.Value
	Ports  []portmap.Assignment
	Clocks []portmap.ClockResolution
	Text   string

	resolved *decl.Resolved
}

// PortType returns the fixed width a net on one of the instance's ports must
// have. Ports of unknown instances are single bits.
func (i *Instance) PortType(port string) decl.Width {
	if i.resolved != nil {
		if p, ok := i.resolved.Port(port); ok {
			return p.Type()
		}
	}
	return decl.Bits(1)
}

// Result is the complete output of one generation pass.
type Result struct {
	Circuit     string
	Dialect     hdl.Dialect
	SingleClock bool
	Modules     []*Module         // sorted by name
	Instances   []*Instance       // sorted by name
	Sources     []clockgen.Source // sorted by id
	Structure   string
	Diagnostics []diag.Diagnostic
}

// Generator generates modules and designs from a component registry.
type Generator struct {
	Registry *components.Registry
	// Parallelism bounds concurrent work in Design. Zero or less means no limit.
	Parallelism int
}

// New returns a generator over the built-in components.
func New() *Generator {
	return &Generator{Registry: components.Default()}
}

func (g *Generator) registry() *components.Registry {
	if g.Registry == nil {
		return components.Default()
	}
	return g.Registry
}

// Module generates the module of component type typ and resolves its
// declarations against attrs. Identical inputs give identical text.
func (g *Generator) Module(typ string, attrs netlist.Attributes, d hdl.Dialect) (*Module, *decl.Resolved, error) {
	gen, err := g.registry().Lookup(typ)
	if err != nil {
		return nil, nil, err
	}
	if err := gen.Supports(attrs, d); err != nil {
		return nil, nil, err
	}
	resolved, err := gen.Declarations().Resolve(attrs)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s", typ)
	}
	m, err := moduleOf(gen, d)
	if err != nil {
		return nil, nil, err
	}
	return m, resolved, nil
}

func moduleOf(gen components.Generator, d hdl.Dialect) (*Module, error) {
	body, err := gen.Functionality(d)
	if err != nil {
		return nil, err
	}
	text, err := decl.Render(d, gen.Name(), gen.Declarations(), body)
	if err != nil {
		return nil, err
	}
	return &Module{Name: gen.Name(), SubDir: gen.SubDir(), Body: body, Text: text}, nil
}

// Design generates every artifact of design in dialect d. Any contract
// violation aborts the pass and no partial result is returned. Recoverable
// issues are reported in Result.Diagnostics.
func (g *Generator) Design(ctx context.Context, design *netlist.Design, d hdl.Dialect) (*Result, error) {
	if err := d.Check(); err != nil {
		return nil, err
	}
	reg := g.registry()
	insts := design.SortedInstances()
	gens := make([]components.Generator, len(insts))
	types := map[string]components.Generator{}
	for i, inst := range insts {
		gen, err := reg.Lookup(inst.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "instance %s", inst.Name)
		}
		if err := gen.Supports(inst.Attributes, d); err != nil {
			return nil, errors.Wrapf(err, "instance %s", inst.Name)
		}
		gens[i] = gen
		types[gen.Name()] = gen
	}

	sources, err := clockSources(design, insts)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)

	collector := diag.NewCollector()
	builder := &portmap.Builder{Netlist: design, Diag: collector}
	modules := make([]*Module, len(names))
	instances := make([]*Instance, len(insts))

	eg, ctx := errgroup.WithContext(ctx)
	if g.Parallelism > 0 {
		eg.SetLimit(g.Parallelism)
	}
	for i, name := range names {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := moduleOf(types[name], d)
			if err != nil {
				return err
			}
			modules[i] = m
			return nil
		})
	}
	for i, inst := range insts {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := instanceOf(builder, gens[i], inst, d)
			if err != nil {
				return errors.Wrapf(err, "instance %s", inst.Name)
			}
			instances[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	structure, err := Structure(d, design.CircuitName(), sources, instances)
	if err != nil {
		return nil, err
	}
	return &Result{
		Circuit:     design.CircuitName(),
		Dialect:     d,
		SingleClock: design.SingleClockDomain(),
		Modules:     modules,
		Instances:   instances,
		Sources:     sources,
		Structure:   structure,
		Diagnostics: collector.Diagnostics(),
	}, nil
}

func instanceOf(b *portmap.Builder, gen components.Generator, inst *netlist.Instance, d hdl.Dialect) (*Instance, error) {
	resolved, err := gen.Declarations().Resolve(inst.Attributes)
	if err != nil {
		return nil, err
	}
	m, err := gen.PortMap(b, inst, resolved)
	if err != nil {
		return nil, err
	}
	ports := m.Assignments()
	text, err := Instantiate(d, inst.Name, gen.Name(), resolved.Params, ports)
	if err != nil {
		return nil, err
	}
	return &Instance{
		Name:   inst.Name,
		Type:   gen.Name(),
		Params: resolved.Params,
		Ports:  ports,
		Clocks: m.Clocks,
		Text:   text,

		resolved: resolved,
	}, nil
}

// clockSources pairs every clock net of the design with the one clock
// component driving it.
func clockSources(design *netlist.Design, insts []*netlist.Instance) ([]clockgen.Source, error) {
	byID := map[int]clockgen.Source{}
	for _, inst := range insts {
		if inst.Type != clockgen.Name {
			continue
		}
		src, err := clockgen.SourceOf(design, inst)
		if err != nil {
			return nil, err
		}
		if prev, ok := byID[src.ID]; ok {
			return nil, errors.Wrapf(ErrClockSource, "source %d driven by %s and %s", src.ID, prev.Instance, src.Instance)
		}
		byID[src.ID] = src
	}
	nets := make([]string, 0, len(design.ClockNets))
	for net := range design.ClockNets {
		nets = append(nets, net)
	}
	sort.Strings(nets)
	seen := map[int]string{}
	for _, net := range nets {
		id := design.ClockNets[net]
		if other, ok := seen[id]; ok {
			return nil, errors.Wrapf(ErrClockSource, "nets %q and %q share source %d", other, net, id)
		}
		seen[id] = net
		if _, ok := byID[id]; !ok {
			return nil, errors.Wrapf(ErrClockSource, "net %q (source %d) has no clock component", net, id)
		}
	}
	out := make([]clockgen.Source, 0, len(byID))
	for _, src := range byID {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Structure renders the circuit itself: the physical clock and tick inputs, a
// clock bus per source, a signal per connected net and every instantiation.
func Structure(d hdl.Dialect, circuit string, sources []clockgen.Source, instances []*Instance) (string, error) {
	widths, err := netWidths(instances)
	if err != nil {
		return "", err
	}
	b := decl.NewBuilder().
		Input(clockbus.FPGAClock, decl.Bits(1)).
		Input(clockbus.FPGATick, decl.Bits(1))
	for _, src := range sources {
		b.Wire(clockbus.NetName(src.ID), decl.Bits(clockbus.Width))
	}
	for net, w := range widths {
		b.Wire(net, w)
	}
	set, err := b.Build()
	if err != nil {
		return "", errors.Wrapf(err, "circuit %s", circuit)
	}
	body := hdl.NewBuffer(d)
	if len(sources) > 0 {
		body.Remark("Here all clock distributors are instantiated")
		for _, inst := range instances {
			if inst.Type == clockgen.Name {
				body.Add(inst.Text).Empty()
			}
		}
	}
	body.Remark("Here all components are instantiated")
	for _, inst := range instances {
		if inst.Type != clockgen.Name {
			body.Add(inst.Text).Empty()
		}
	}
	return decl.Render(d, circuit, set, body.String(3))
}

// netWidths collects the type of every net referenced by an instance. A net on
// a vector port is a vector even at one bit, so it cannot also feed a scalar
// port. Bus bits and the top-level clock inputs are not nets of the circuit.
func netWidths(instances []*Instance) (map[string]decl.Width, error) {
	widths := map[string]decl.Width{}
	add := func(net string, w decl.Width) error {
		if net == clockbus.FPGAClock || net == clockbus.FPGATick {
			return nil
		}
		if prev, ok := widths[net]; ok && prev != w {
			return errors.Wrapf(ErrNetWidth, "%q: widths %s and %s", net, prev, w)
		}
		widths[net] = w
		return nil
	}
	for _, inst := range instances {
		if inst.Type == clockgen.Name {
			continue
		}
		for _, a := range inst.Ports {
			switch a.Expr.Kind {
			case portmap.NetRef:
				if err := add(a.Expr.Name, inst.PortType(a.Port)); err != nil {
					return nil, err
				}
			case portmap.Concat:
				for _, p := range a.Expr.Parts {
					if p.Kind == portmap.NetRef {
						if err := add(p.Name, decl.Bits(1)); err != nil {
							return nil, err
						}
					}
				}
			}
		}
	}
	return widths, nil
}
