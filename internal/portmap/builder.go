// Package portmap resolves the pins of a component instance to the actuals of
// its instantiation: external nets, constants, per-bit concatenations and, for
// clock pins, bits of a clock bus.
package portmap

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/robert-at-pretension-io/hdl-gen/internal/clockbus"
	"github.com/robert-at-pretension-io/hdl-gen/internal/decl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/diag"
	"github.com/robert-at-pretension-io/hdl-gen/internal/netlist"
)

// Pin ties a declared port to a pin index of the instance.
type Pin struct {
	Port string
	End  int
	// TieHigh drives an unconnected input to all ones instead of zero.
	TieHigh bool
}

// Unit is the pin layout of one independently clocked unit. Components with a
// single unit use Index 1 and unsuffixed port names.
type Unit struct {
	Index     int
	ClockPort string
	TickPort  string
	ClockPin  int
	Pins      []Pin
}

// Clocked reports whether the unit has a clock input.
func (u Unit) Clocked() bool { return u.ClockPort != "" }

// Layout is the unit list of a component type, unit i at position i-1.
type Layout []Unit

// ClockMode is the outcome of clock resolution for one unit.
type ClockMode int

const (
	Unconnected ClockMode = iota + 1
	Gated
	GlobalBus
)

func (m ClockMode) String() string {
	switch m {
	case Unconnected:
		return "unconnected"
	case Gated:
		return "gated"
	case GlobalBus:
		return "global"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ClockResolution is how one unit's clock pin was mapped.
type ClockResolution struct {
	Unit   int
	Mode   ClockMode
	Net    string // driving net, empty when unconnected
	Source int    // clock source id, GlobalBus only
	Clock  Expr
	Tick   Expr
}

// Builder builds port maps against one design. It holds no per-instance state,
// so one Builder may serve concurrent Build calls.
type Builder struct {
	Netlist netlist.Netlist
	Diag    *diag.Collector
}

// Build maps every unit of inst. A unit count that differs from the layout is a
// contract violation; ports outside the declaration set are rejected by the Map.
func (b *Builder) Build(inst *netlist.Instance, set *decl.Set, resolved *decl.Resolved, layout Layout) (*Map, error) {
	units := inst.Units
	if units == 0 {
		units = len(layout)
	}
	if units != len(layout) {
		return nil, errors.Wrapf(ErrUnitOutOfRange, "%s %s declares %d units, component has %d",
			inst.Type, inst.Name, units, len(layout))
	}
	m := NewMap(set)
	for u := 1; u <= units; u++ {
		if err := b.BuildUnit(m, inst, resolved, layout, u); err != nil {
			return nil, err
		}
	}
	if err := m.Complete(); err != nil {
		return nil, errors.Wrapf(err, "%s %s", inst.Type, inst.Name)
	}
	return m, nil
}

// BuildUnit adds the mappings of unit u (1-based) to m.
func (b *Builder) BuildUnit(m *Map, inst *netlist.Instance, resolved *decl.Resolved, layout Layout, u int) error {
	if u < 1 || u > len(layout) {
		return errors.Wrapf(ErrUnitOutOfRange, "%s %s unit %d", inst.Type, inst.Name, u)
	}
	unit := layout[u-1]
	if unit.Clocked() {
		res, err := b.ResolveClock(inst, unit)
		if err != nil {
			return err
		}
		if err := m.Put(unit.ClockPort, res.Clock); err != nil {
			return err
		}
		if unit.TickPort != "" {
			if err := m.Put(unit.TickPort, res.Tick); err != nil {
				return err
			}
		}
		m.Clocks = append(m.Clocks, res)
	}
	for _, pin := range unit.Pins {
		port, ok := resolved.Port(pin.Port)
		if !ok {
			return errors.Wrapf(ErrUnknownPort, "%q", pin.Port)
		}
		e, err := pinExpr(inst.End(pin.End), port, pin.TieHigh)
		if err != nil {
			return errors.Wrapf(err, "%s %s port %s", inst.Type, inst.Name, pin.Port)
		}
		if err := m.Put(pin.Port, e); err != nil {
			return err
		}
	}
	return nil
}

// clockPin is the shape every clock input has: one scalar bit.
var clockPin = decl.ResolvedPort{Port: decl.Port{Dir: decl.Input, Width: decl.Bits(1)}, Bits: 1}

// ResolveClock applies the clock rules to one unit, in priority order:
// unconnected, gated, global bus. Only the unconnected case reports a warning.
// A clock pin connected to anything but a single net or constant is rejected.
func (b *Builder) ResolveClock(inst *netlist.Instance, unit Unit) (ClockResolution, error) {
	res := ClockResolution{Unit: unit.Index}
	end := inst.End(unit.ClockPin)
	if !end.Connected() {
		res.Mode = Unconnected
		res.Clock = ConstExpr(0, 1)
		res.Tick = ConstExpr(0, 1)
		b.Diag.Add(diag.Diagnostic{
			Severity:  diag.Warning,
			Circuit:   b.Netlist.CircuitName(),
			Component: inst.Type,
			Instance:  inst.Name,
			Unit:      unit.Index,
			Message:   fmt.Sprintf("Component %q in circuit %q has no clock connection for unit %d", inst.Type, b.Netlist.CircuitName(), unit.Index),
		})
		return res, nil
	}
	clock, err := pinExpr(end, clockPin, false)
	if err != nil {
		return res, errors.Wrapf(err, "%s %s unit %d: clock pin must be a single net or constant", inst.Type, inst.Name, unit.Index)
	}
	if clock.Kind == NetRef {
		res.Net = clock.Name
	}
	id, ok := b.Netlist.ClockSourceID(res.Net)
	if !ok {
		res.Mode = Gated
		res.Clock = clock
		res.Tick = ConstExpr(1, 1)
		return res, nil
	}
	bus := clockbus.NetName(id)
	res.Mode = GlobalBus
	res.Source = id
	res.Clock = BusBitExpr(bus, clockbus.GlobalClock)
	if b.Netlist.SingleClockDomain() {
		res.Tick = ConstExpr(1, 1)
	} else {
		res.Tick = BusBitExpr(bus, clockbus.PositiveEdgeTick)
	}
	return res, nil
}

// pinExpr maps one pin connection onto port. A single-bit bits list on a
// one-bit port is taken as the bit itself.
func pinExpr(end netlist.End, port decl.ResolvedPort, tieHigh bool) (Expr, error) {
	width := port.Bits
	constant := func(v uint64) Expr {
		if port.Vector {
			return VectorConstExpr(v, width)
		}
		return ConstExpr(v, width)
	}
	if width == 1 && len(end.Bits) == 1 {
		end = netlist.End{Net: end.Bits[0].Net, Const: end.Bits[0].Const}
	}
	switch {
	case end.Net != "":
		return NetExpr(end.Net), nil
	case end.Const != nil:
		if port.Dir == decl.Output {
			return Expr{}, errors.Wrap(ErrBadConnection, "output tied to a constant")
		}
		if *end.Const > ones(width) {
			return Expr{}, errors.Wrapf(ErrBadConnection, "constant %d does not fit %d bits", *end.Const, width)
		}
		return constant(*end.Const), nil
	case len(end.Bits) > 0:
		if len(end.Bits) != width {
			return Expr{}, errors.Wrapf(ErrBadConnection, "%d bits connected to a %d bit port", len(end.Bits), width)
		}
		parts := make([]Expr, 0, width)
		for i := width - 1; i >= 0; i-- {
			bit := end.Bits[i]
			switch {
			case bit.Net != "":
				parts = append(parts, NetExpr(bit.Net))
			case port.Dir == decl.Output:
				return Expr{}, errors.Wrapf(ErrBadConnection, "output bit %d is not a net", i)
			case bit.Const != nil:
				if *bit.Const > 1 {
					return Expr{}, errors.Wrapf(ErrBadConnection, "bit %d tied to %d", i, *bit.Const)
				}
				parts = append(parts, ConstExpr(*bit.Const, 1))
			case tieHigh:
				parts = append(parts, ConstExpr(1, 1))
			default:
				parts = append(parts, ConstExpr(0, 1))
			}
		}
		return ConcatExpr(parts...), nil
	}
	if port.Dir == decl.Output {
		return OpenExpr(), nil
	}
	if tieHigh {
		return constant(ones(width)), nil
	}
	return constant(0), nil
}

func ones(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}
