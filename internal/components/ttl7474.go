package components

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/robert-at-pretension-io/hdl-gen/internal/decl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/netlist"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

// AttrVccGnd marks a TTL chip drawn with explicit supply pins.
const AttrVccGnd = "vccGnd"

// Pin indices of the two flip-flops, supply pins excluded:
// nCLR, D, CLK, nPRE, Q, nQ.
var ttl7474Pins = [2][6]int{
	{0, 1, 2, 3, 4, 5},
	{11, 10, 9, 8, 7, 6},
}

var ttl7474Body = hdl.Templates{
	VHDL: hdl.MustParse("ttl7474.vhd", `{{range .}}Q{{.}}  <= state{{.}};
nQ{{.}} <= NOT(state{{.}});
{{end}}
{{range .}}next{{.}} <= D{{.}} WHEN tick{{.}}='1' ELSE state{{.}};
{{end}}{{range .}}
ff{{.}} : PROCESS ( CLK{{.}} , nCLR{{.}} , nPRE{{.}} ) IS
   BEGIN
      IF (nCLR{{.}} = '0') THEN state{{.}} <= '0';
      ELSIF (nPRE{{.}} = '0') THEN state{{.}} <= '1';
      ELSIF (rising_edge(CLK{{.}})) THEN state{{.}} <= next{{.}};
      END IF;
   END PROCESS ff{{.}};
{{end}}`),
	Verilog: hdl.MustParse("ttl7474.v", `{{range .}}assign Q{{.}}  = state{{.}};
assign nQ{{.}} = ~state{{.}};
{{end}}
{{range .}}assign next{{.}} = tick{{.}} ? D{{.}} : state{{.}};
{{end}}{{range .}}
always @(posedge CLK{{.}} or negedge nCLR{{.}} or negedge nPRE{{.}})
begin
   if (~nCLR{{.}}) state{{.}} <= 1'b0;
   else if (~nPRE{{.}}) state{{.}} <= 1'b1;
   else state{{.}} <= next{{.}};
end
{{end}}`),
}

// TTL7474 returns the generator of the dual D flip-flop with asynchronous
// active-low clear and preset. Each flip-flop is an independently clocked unit.
func TTL7474() Generator {
	b := decl.NewBuilder()
	var layout portmap.Layout
	var units []int
	for i, pins := range ttl7474Pins {
		u := i + 1
		n := func(s string) string { return fmt.Sprintf("%s%d", s, u) }
		b.Input(n("nCLR"), decl.Bits(1)).
			Input(n("D"), decl.Bits(1)).
			Input(n("CLK"), decl.Bits(1)).
			Input(n("tick"), decl.Bits(1)).
			Input(n("nPRE"), decl.Bits(1)).
			Output(n("Q"), decl.Bits(1)).
			Output(n("nQ"), decl.Bits(1)).
			Wire(n("next"), decl.Bits(1)).
			Register(n("state"), decl.Bits(1))
		layout = append(layout, portmap.Unit{
			Index:     u,
			ClockPort: n("CLK"),
			TickPort:  n("tick"),
			ClockPin:  pins[2],
			Pins: []portmap.Pin{
				{Port: n("nCLR"), End: pins[0], TieHigh: true},
				{Port: n("D"), End: pins[1]},
				{Port: n("nPRE"), End: pins[3], TieHigh: true},
				{Port: n("Q"), End: pins[4]},
				{Port: n("nQ"), End: pins[5]},
			},
		})
		units = append(units, u)
	}
	return &component{
		name:   "TTL7474",
		subDir: "ttl",
		decls:  decl.Must(b.Build()),
		layout: layout,
		body:   ttl7474Body,
		data:   units,
		check: func(attrs netlist.Attributes) error {
			if v, _ := attrs.Bool(AttrVccGnd); v {
				return errors.Wrap(ErrUnsupported, "TTL7474 with supply pins")
			}
			return nil
		},
	}
}
