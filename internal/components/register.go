package components

import (
	"github.com/pkg/errors"

	"github.com/robert-at-pretension-io/hdl-gen/internal/decl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/netlist"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

// AttrWidth is the data width of registers and similar components.
const AttrWidth = "width"

// MaxWidth bounds data widths so constants fit one literal.
const MaxWidth = 64

var registerBody = hdl.Templates{
	VHDL: hdl.MustParse("register.vhd", `Q <= s_state_reg;

makeState : PROCESS( Clock , Reset )
BEGIN
   IF (Reset = '1') THEN
      s_state_reg <= (OTHERS => '0');
   ELSIF (rising_edge(Clock)) THEN
      IF (ClockEnable = '1' AND Tick = '1') THEN
         s_state_reg <= D;
      END IF;
   END IF;
END PROCESS makeState;
`),
	Verilog: hdl.MustParse("register.v", `assign Q = s_state_reg;

always @(posedge Clock or posedge Reset)
begin
   if (Reset) s_state_reg <= 0;
   else if (ClockEnable & Tick) s_state_reg <= D;
end
`),
}

// Register returns the generator of a rising-edge register with asynchronous
// reset and clock enable. Pins: Q, D, Clock, Reset, ClockEnable.
func Register() Generator {
	return &component{
		name:   "Register",
		subDir: "memory",
		decls: decl.Must(decl.NewBuilder().
			Direct("NrOfBits", AttrWidth, 0).
			Input("Clock", decl.Bits(1)).
			Input("Tick", decl.Bits(1)).
			Input("D", decl.Param("NrOfBits")).
			Input("Reset", decl.Bits(1)).
			Input("ClockEnable", decl.Bits(1)).
			Output("Q", decl.Param("NrOfBits")).
			Register("s_state_reg", decl.Param("NrOfBits")).
			Build()),
		layout: portmap.Layout{{
			Index:     1,
			ClockPort: "Clock",
			TickPort:  "Tick",
			ClockPin:  2,
			Pins: []portmap.Pin{
				{Port: "Q", End: 0},
				{Port: "D", End: 1},
				{Port: "Reset", End: 3},
				{Port: "ClockEnable", End: 4, TieHigh: true},
			},
		}},
		body:  registerBody,
		check: checkWidth,
	}
}

func checkWidth(attrs netlist.Attributes) error {
	w, ok := attrs.Int(AttrWidth)
	if !ok {
		return nil
	}
	if w < 1 || w > MaxWidth {
		return errors.Wrapf(ErrUnsupported, "width %d outside 1..%d", w, MaxWidth)
	}
	return nil
}
