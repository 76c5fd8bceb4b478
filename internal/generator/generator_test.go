package generator

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/robert-at-pretension-io/hdl-gen/internal/decl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/netlist"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

func sampleDesign() *netlist.Design {
	ffEnds := make([]netlist.End, 12)
	ffEnds[1] = netlist.End{Net: "d1"}
	ffEnds[2] = netlist.End{Net: "clk_net"}
	ffEnds[4] = netlist.End{Net: "q1"}
	return &netlist.Design{
		Circuit:   "main",
		ClockNets: map[string]int{"clk_net": 7},
		Instances: []netlist.Instance{
			{Name: "ff", Type: "TTL7474", Ends: ffEnds},
			{
				Name:       "clk0",
				Type:       "Clock",
				Attributes: netlist.Attributes{"highTicks": 3, "lowTicks": 2, "phase": 0},
				Ends:       []netlist.End{{Net: "clk_net"}},
			},
			{
				Name:       "acc",
				Type:       "Register",
				Attributes: netlist.Attributes{"width": 4},
				Ends:       []netlist.End{{Net: "acc_q"}, {Net: "acc_q"}, {Net: "gclk"}},
			},
		},
	}
}

func TestDesign(t *testing.T) {
	res, err := New().Design(context.Background(), sampleDesign(), hdl.VHDL)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	var modules []string
	for _, m := range res.Modules {
		modules = append(modules, m.Name)
	}
	if got := strings.Join(modules, ","); got != "Clock,Register,TTL7474" {
		t.Fatalf("modules = %s", got)
	}
	var insts []string
	for _, inst := range res.Instances {
		insts = append(insts, inst.Name)
	}
	if got := strings.Join(insts, ","); got != "acc,clk0,ff" {
		t.Fatalf("instances = %s", got)
	}
	if len(res.Sources) != 1 || res.Sources[0].ID != 7 || res.Sources[0].Instance != "clk0" || res.Sources[0].Phase != 1 {
		t.Fatalf("sources = %+v", res.Sources)
	}

	ports := map[string]string{}
	for _, a := range res.Instances[2].Ports {
		ports[a.Port] = a.Expr.String()
	}
	for port, want := range map[string]string{"CLK1": "busClk7(4)", "tick1": "busClk7(2)", "CLK2": "0", "tick2": "0"} {
		if ports[port] != want {
			t.Fatalf("ff %s = %q, want %q", port, ports[port], want)
		}
	}
	acc := res.Instances[0]
	if len(acc.Clocks) != 1 || acc.Clocks[0].Mode != portmap.Gated {
		t.Fatalf("acc clocks = %+v, want one gated clock", acc.Clocks)
	}

	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Instance != "ff" || res.Diagnostics[0].Unit != 2 {
		t.Fatalf("diagnostics = %v, want one warning for ff unit 2", res.Diagnostics)
	}

	for _, want := range []string{
		"ENTITY main IS",
		"SIGNAL busClk7",
		"SIGNAL acc_q",
		"SIGNAL gclk",
		"clk0 : ENTITY work.Clock",
		"=> busClk7,",
		"ff : ENTITY work.TTL7474",
		"CLK1  => busClk7(4),",
	} {
		if !strings.Contains(res.Structure, want) {
			t.Fatalf("structure missing %q:\n%s", want, res.Structure)
		}
	}
	if strings.Contains(res.Structure, "SIGNAL clk_net") {
		t.Fatalf("clock source net declared as a signal:\n%s", res.Structure)
	}
}

func TestDesignIsDeterministic(t *testing.T) {
	for _, d := range hdl.Dialects {
		first, err := New().Design(context.Background(), sampleDesign(), d)
		if err != nil {
			t.Fatalf("Design(%s): %v", d, err)
		}
		serial := New()
		serial.Parallelism = 1
		for run := 0; run < 3; run++ {
			again, err := serial.Design(context.Background(), sampleDesign(), d)
			if err != nil {
				t.Fatalf("Design(%s) run %d: %v", d, run, err)
			}
			if again.Structure != first.Structure {
				t.Fatalf("%s structure differs on run %d", d, run)
			}
			for i := range first.Modules {
				if again.Modules[i].Text != first.Modules[i].Text {
					t.Fatalf("%s module %s differs on run %d", d, first.Modules[i].Name, run)
				}
			}
		}
	}
}

func TestDesignVerilog(t *testing.T) {
	res, err := New().Design(context.Background(), sampleDesign(), hdl.Verilog)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	for _, want := range []string{
		"module main(fpgaGlobalClock,",
		"wire [4:0] busClk7;",
		"wire [3:0] acc_q;",
		"Clock #(.HighTicks(3),",
		".CLK1(busClk7[4])",
		".tick1(busClk7[2])",
		".nQ2()",
	} {
		if !strings.Contains(res.Structure, want) {
			t.Fatalf("structure missing %q:\n%s", want, res.Structure)
		}
	}
}

func TestDesignFatalErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*netlist.Design)
		want   error
	}{
		{"unknown type", func(d *netlist.Design) {
			d.Instances = append(d.Instances, netlist.Instance{Name: "ram", Type: "Ram"})
		}, ErrUnknownComponent},
		{"undriven clock net", func(d *netlist.Design) {
			d.ClockNets["other_clk"] = 8
		}, ErrClockSource},
		{"two drivers", func(d *netlist.Design) {
			d.Instances = append(d.Instances, netlist.Instance{
				Name:       "clk1",
				Type:       "Clock",
				Attributes: netlist.Attributes{"highTicks": 1, "lowTicks": 1, "phase": 0},
				Ends:       []netlist.End{{Net: "clk_net"}},
			})
		}, ErrClockSource},
		{"net width conflict", func(d *netlist.Design) {
			d.Instances[2].Ends[0] = netlist.End{Net: "d1"}
		}, ErrNetWidth},
		{"one-bit vector net on a clock pin", func(d *netlist.Design) {
			d.Instances[2].Attributes = netlist.Attributes{"width": 1}
			d.Instances[2].Ends[2] = netlist.End{Net: "acc_q"}
		}, ErrNetWidth},
		{"unit count", func(d *netlist.Design) {
			d.Instances[0].Units = 3
		}, portmap.ErrUnitOutOfRange},
		{"missing attribute", func(d *netlist.Design) {
			d.Instances[2].Attributes = nil
		}, decl.ErrMissingAttribute},
	}
	for _, tt := range tests {
		design := sampleDesign()
		tt.mutate(design)
		res, err := New().Design(context.Background(), design, hdl.VHDL)
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
		if res != nil {
			t.Fatalf("%s: partial result returned", tt.name)
		}
	}
	if _, err := New().Design(context.Background(), sampleDesign(), hdl.Dialect(0)); !errors.Is(err, hdl.ErrUnsupportedDialect) {
		t.Fatalf("dialect 0: err = %v", err)
	}
}

func TestModule(t *testing.T) {
	g := New()
	small, r, err := g.Module("Counter", netlist.Attributes{"min": 0, "max": 9}, hdl.VHDL)
	if err != nil {
		t.Fatalf("Module: %v", err)
	}
	if w, _ := r.PortWidth("Q"); w != 4 {
		t.Fatalf("Q width = %d, want 4", w)
	}
	large, _, err := g.Module("Counter", netlist.Attributes{"min": 0, "max": 1000}, hdl.VHDL)
	if err != nil {
		t.Fatalf("Module: %v", err)
	}
	if small.Text != large.Text {
		t.Fatalf("module text depends on attributes")
	}
	if !strings.Contains(small.Text, "ENTITY Counter IS") || small.SubDir != "memory" {
		t.Fatalf("unexpected module %s in %s:\n%s", small.Name, small.SubDir, small.Text)
	}
	if _, _, err := g.Module("Ram", nil, hdl.VHDL); !errors.Is(err, ErrUnknownComponent) {
		t.Fatalf("Module(Ram): err = %v", err)
	}
}

func TestInstantiate(t *testing.T) {
	params := []decl.Value{{Name: "NrOfBits", Value: 8}}
	ports := []portmap.Assignment{
		{Port: "D", Expr: portmap.NetExpr("d")},
		{Port: "Q", Expr: portmap.OpenExpr()},
	}
	vhdl, err := Instantiate(hdl.VHDL, "u1", "Register", params, ports)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	want := "u1 : ENTITY work.Register\n" +
		"   GENERIC MAP ( NrOfBits => 8 )\n" +
		"   PORT MAP ( D => d,\n" +
		"              Q => OPEN );\n"
	if vhdl != want {
		t.Fatalf("VHDL:\n%s\nwant:\n%s", vhdl, want)
	}
	verilog, err := Instantiate(hdl.Verilog, "u1", "Register", params, ports)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	want = "Register #(.NrOfBits(8))\n" +
		"   u1 (.D(d),\n" +
		"       .Q());\n"
	if verilog != want {
		t.Fatalf("Verilog:\n%s\nwant:\n%s", verilog, want)
	}
}

func TestDesignOneBitVectorPorts(t *testing.T) {
	design := &netlist.Design{
		Circuit: "narrow",
		Instances: []netlist.Instance{
			{
				Name:       "r1",
				Type:       "Register",
				Attributes: netlist.Attributes{"width": 1},
				Ends:       []netlist.End{{Net: "q"}, {}, {Net: "gclk"}},
			},
			{
				Name:       "cnt",
				Type:       "Counter",
				Attributes: netlist.Attributes{"min": 0, "max": 1},
				Ends:       []netlist.End{{Net: "cq"}, {Net: "gclk"}},
			},
		},
	}
	res, err := New().Design(context.Background(), design, hdl.VHDL)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	for _, pattern := range []string{
		`SIGNAL q\s+: std_logic_vector\( 0 DOWNTO 0 \);`,
		`SIGNAL cq\s+: std_logic_vector\( 0 DOWNTO 0 \);`,
		`SIGNAL gclk\s+: std_logic;`,
		`D\s+=> "0",`,
		`ClockEnable\s+=> '1',`,
	} {
		if !regexp.MustCompile(pattern).MatchString(res.Structure) {
			t.Fatalf("structure does not match %s:\n%s", pattern, res.Structure)
		}
	}

	res, err = New().Design(context.Background(), design, hdl.Verilog)
	if err != nil {
		t.Fatalf("Design(verilog): %v", err)
	}
	for _, want := range []string{"wire [0:0] q;", "wire gclk;", ".D(1'd0)"} {
		if !strings.Contains(res.Structure, want) {
			t.Fatalf("verilog structure missing %q:\n%s", want, res.Structure)
		}
	}
}
