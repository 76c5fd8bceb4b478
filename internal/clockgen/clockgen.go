// Package clockgen generates the clock distributor: one module instance per
// clock source, deriving a divided, phase-shifted clock and its edge ticks from
// the physical oscillator and the global enable pulse, exposed as a clock bus.
package clockgen

import (
	"github.com/pkg/errors"

	"github.com/robert-at-pretension-io/hdl-gen/internal/clockbus"
	"github.com/robert-at-pretension-io/hdl-gen/internal/decl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/netlist"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

// Component type name of the clock.
const Name = "Clock"

// Attribute keys of a clock component.
const (
	AttrHigh  = "highTicks"
	AttrLow   = "lowTicks"
	AttrPhase = "phase"
)

// Generic and port names of the distributor.
const (
	HighTicks = "HighTicks"
	LowTicks  = "LowTicks"
	Phase     = "Phase"
	NrOfBits  = "NrOfBits"

	PortGlobalClock = "GlobalClock"
	PortClockTick   = "ClockTick"
	PortClockBus    = "ClockBus"
)

// ErrNoClockSource is returned when a clock component's output net is not a
// clock source of the design.
var ErrNoClockSource = errors.New("clock output is not a clock source")

var declarations = decl.Must(decl.NewBuilder().
	Direct(HighTicks, AttrHigh, 0).
	Direct(LowTicks, AttrLow, 0).
	Direct(Phase, AttrPhase, 1).
	Log2Max(NrOfBits, AttrHigh, AttrLow).
	Wire("s_counter_next", decl.Param(NrOfBits)).
	Wire("s_counter_is_zero", decl.Bits(1)).
	Register("s_output_regs", decl.Bits(clockbus.Width-1)).
	Register("s_buf_regs", decl.Bits(2)).
	Register("s_counter_reg", decl.Param(NrOfBits)).
	Register("s_derived_clock_reg", decl.Param(Phase)).
	Input(PortGlobalClock, decl.Bits(1)).
	Input(PortClockTick, decl.Bits(1)).
	Output(PortClockBus, decl.Bits(clockbus.Width)).
	Build())

// Declarations returns the static declaration set of the distributor.
func Declarations() *decl.Set { return declarations }

// Source is one clock source of a design, with the divider settings of the
// clock component that drives it.
type Source struct {
	ID        int
	Instance  string
	Net       string
	HighTicks int
	LowTicks  int
	// Phase is the shift register length, the phase attribute plus one.
	Phase int
}

// SourceOf resolves the clock source driven by a clock component instance.
func SourceOf(nl netlist.Netlist, inst *netlist.Instance) (Source, error) {
	net := inst.End(0).Net
	id, ok := nl.ClockSourceID(net)
	if !ok {
		return Source{}, errors.Wrapf(ErrNoClockSource, "%s drives net %q", inst.Name, net)
	}
	r, err := declarations.Resolve(inst.Attributes)
	if err != nil {
		return Source{}, errors.Wrapf(err, "clock %s", inst.Name)
	}
	src := Source{ID: id, Instance: inst.Name, Net: net}
	src.HighTicks, _ = r.Param(HighTicks)
	src.LowTicks, _ = r.Param(LowTicks)
	src.Phase, _ = r.Param(Phase)
	if src.HighTicks < 1 || src.LowTicks < 1 || src.Phase < 1 {
		return Source{}, errors.Errorf("clock %s: high, low must be >= 1 and phase >= 0", inst.Name)
	}
	return src, nil
}

// PortMap connects a distributor instance to the top-level oscillator, the
// global tick and the bus signal of its clock source.
func PortMap(nl netlist.Netlist, inst *netlist.Instance) (*portmap.Map, error) {
	src, err := SourceOf(nl, inst)
	if err != nil {
		return nil, err
	}
	m := portmap.NewMap(declarations)
	if err := m.Put(PortGlobalClock, portmap.NetExpr(clockbus.FPGAClock)); err != nil {
		return nil, err
	}
	if err := m.Put(PortClockTick, portmap.NetExpr(clockbus.FPGATick)); err != nil {
		return nil, err
	}
	if err := m.Put(PortClockBus, portmap.NetExpr(clockbus.NetName(src.ID))); err != nil {
		return nil, err
	}
	return m, nil
}

type names struct {
	Phase, NrOfBits, HighTicks, LowTicks string
}

var bodyNames = names{Phase: Phase, NrOfBits: NrOfBits, HighTicks: HighTicks, LowTicks: LowTicks}

// Functionality renders the architecture or module body for d.
func Functionality(d hdl.Dialect) (string, error) {
	if err := d.Check(); err != nil {
		return "", err
	}
	buf := hdl.NewBuffer(d)
	section := func(remark string, tpl hdl.Templates) error {
		text, err := tpl.Execute(d, bodyNames)
		if err != nil {
			return err
		}
		buf.Remark(remark).Add(text).Empty()
		return nil
	}
	if err := section("Here the output signals are defined; we synchronize them all on the main clock", outputsTemplates); err != nil {
		return "", err
	}
	if err := section("Here the control signals are defined", controlTemplates); err != nil {
		return "", err
	}
	if d == hdl.Verilog {
		if err := section("Here the initial values are defined (for simulation only)", initialTemplates); err != nil {
			return "", err
		}
	}
	if err := section("Here the state registers are defined", stateTemplates); err != nil {
		return "", err
	}
	return buf.String(3), nil
}
