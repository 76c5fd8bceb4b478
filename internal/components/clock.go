package components

import (
	"github.com/pkg/errors"

	"github.com/robert-at-pretension-io/hdl-gen/internal/clockgen"
	"github.com/robert-at-pretension-io/hdl-gen/internal/decl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/netlist"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

type clock struct{}

// Clock returns the generator of the clock distributor. A design holds one
// distributor instance per clock source.
func Clock() Generator { return clock{} }

func (clock) Name() string { return clockgen.Name }
func (clock) SubDir() string { return "base" }
func (clock) Declarations() *decl.Set { return clockgen.Declarations() }

func (clock) Functionality(d hdl.Dialect) (string, error) {
	return clockgen.Functionality(d)
}

func (clock) Supports(attrs netlist.Attributes, d hdl.Dialect) error {
	if err := d.Check(); err != nil {
		return err
	}
	for _, key := range []string{clockgen.AttrHigh, clockgen.AttrLow} {
		if v, ok := attrs.Int(key); ok && v < 1 {
			return errors.Wrapf(ErrUnsupported, "%s %s = %d, must be at least 1", clockgen.Name, key, v)
		}
	}
	if v, ok := attrs.Int(clockgen.AttrPhase); ok && v < 0 {
		return errors.Wrapf(ErrUnsupported, "%s %s = %d, must not be negative", clockgen.Name, clockgen.AttrPhase, v)
	}
	return nil
}

func (clock) PortMap(b *portmap.Builder, inst *netlist.Instance, _ *decl.Resolved) (*portmap.Map, error) {
	return clockgen.PortMap(b.Netlist, inst)
}
