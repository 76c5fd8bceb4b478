package components

import (
	"github.com/pkg/errors"

	"github.com/robert-at-pretension-io/hdl-gen/internal/decl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/netlist"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

// Attribute keys of the counter range.
const (
	AttrMin = "min"
	AttrMax = "max"
)

var counterBody = hdl.Templates{
	VHDL: hdl.MustParse("counter.vhd", `Q        <= s_counter_reg;
s_at_max <= '1' WHEN unsigned(s_counter_reg) = to_unsigned(Max - Min, NrOfBits) ELSE '0';
CarryOut <= s_at_max;

makeCounter : PROCESS( Clock , Reset )
BEGIN
   IF (Reset = '1') THEN
      s_counter_reg <= (OTHERS => '0');
   ELSIF (rising_edge(Clock)) THEN
      IF (Enable = '1' AND Tick = '1') THEN
         IF (s_at_max = '1') THEN
            s_counter_reg <= (OTHERS => '0');
         ELSE
            s_counter_reg <= std_logic_vector(unsigned(s_counter_reg) + 1);
         END IF;
      END IF;
   END IF;
END PROCESS makeCounter;
`),
	Verilog: hdl.MustParse("counter.v", `assign Q        = s_counter_reg;
assign s_at_max = (s_counter_reg == Max - Min) ? 1'b1 : 1'b0;
assign CarryOut = s_at_max;

always @(posedge Clock or posedge Reset)
begin
   if (Reset) s_counter_reg <= 0;
   else if (Enable & Tick)
   begin
      if (s_at_max) s_counter_reg <= 0;
      else s_counter_reg <= s_counter_reg + 1;
   end
end
`),
}

// Counter returns the generator of a wrapping counter over the range
// [min, max]. Q is the offset of the current value from min, so its width is
// the log2 of the range size. Pins: Q, Clock, Reset, Enable, CarryOut.
func Counter() Generator {
	return &component{
		name:   "Counter",
		subDir: "memory",
		decls: decl.Must(decl.NewBuilder().
			Direct("Min", AttrMin, 0).
			Direct("Max", AttrMax, 0).
			Log2Range("NrOfBits", AttrMax, AttrMin).
			Input("Clock", decl.Bits(1)).
			Input("Tick", decl.Bits(1)).
			Input("Reset", decl.Bits(1)).
			Input("Enable", decl.Bits(1)).
			Output("Q", decl.Param("NrOfBits")).
			Output("CarryOut", decl.Bits(1)).
			Wire("s_at_max", decl.Bits(1)).
			Register("s_counter_reg", decl.Param("NrOfBits")).
			Build()),
		layout: portmap.Layout{{
			Index:     1,
			ClockPort: "Clock",
			TickPort:  "Tick",
			ClockPin:  1,
			Pins: []portmap.Pin{
				{Port: "Q", End: 0},
				{Port: "Reset", End: 2},
				{Port: "Enable", End: 3, TieHigh: true},
				{Port: "CarryOut", End: 4},
			},
		}},
		body: counterBody,
		check: func(attrs netlist.Attributes) error {
			lo, okLo := attrs.Int(AttrMin)
			hi, okHi := attrs.Int(AttrMax)
			if okLo && okHi && hi < lo {
				return errors.Wrapf(ErrUnsupported, "counter max %d below min %d", hi, lo)
			}
			return nil
		},
	}
}
