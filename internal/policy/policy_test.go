package policy

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/robert-at-pretension-io/hdl-gen/internal/clockgen"
	"github.com/robert-at-pretension-io/hdl-gen/internal/config"
	"github.com/robert-at-pretension-io/hdl-gen/internal/generator"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

func intPtr(v int) *int { return &v }

func evaluate(t *testing.T, e *Engine, in Input) *Result {
	t.Helper()
	res, err := e.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return res
}

func rulesOf(res *Result) []string {
	var out []string
	for _, v := range res.Violations {
		out = append(out, v.Rule+"/"+v.Severity+"/"+v.Instance)
	}
	return out
}

func TestBuiltinRules(t *testing.T) {
	engine, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := Source{ID: 0, Instance: "clk0", Net: "clk", HighTicks: 2, LowTicks: 2, Phase: 1}

	tests := []struct {
		name string
		in   Input
		want []string
	}{
		{
			name: "clean",
			in: Input{
				Sources:   []Source{src},
				ClockPins: []ClockPin{{Instance: "ff", Unit: 1, Mode: "global", Net: "clk", Source: intPtr(0)}},
			},
		},
		{
			name: "gated clock",
			in: Input{
				ClockPins: []ClockPin{{Instance: "ff", Unit: 1, Mode: "gated", Net: "en_clk"}},
			},
			want: []string{"gated_clock/warning/ff"},
		},
		{
			name: "unused source",
			in: Input{
				Sources:   []Source{src},
				ClockPins: []ClockPin{{Instance: "ff", Unit: 1, Mode: "unconnected"}},
			},
			want: []string{"unused_clock_source/warning/clk0"},
		},
		{
			name: "divide by two",
			in: Input{
				Sources:   []Source{{ID: 3, Instance: "fast", Net: "f", HighTicks: 1, LowTicks: 1, Phase: 1}},
				ClockPins: []ClockPin{{Instance: "ff", Unit: 1, Mode: "global", Net: "f", Source: intPtr(3)}},
			},
			want: []string{"degenerate_divider/info/fast"},
		},
		{
			name: "two sources in single domain",
			in: Input{
				Circuit:           "top",
				SingleClockDomain: true,
				Sources:           []Source{src, {ID: 1, Instance: "clk1", Net: "other", HighTicks: 4, LowTicks: 4, Phase: 1}},
				ClockPins: []ClockPin{
					{Instance: "a", Unit: 1, Mode: "global", Net: "clk", Source: intPtr(0)},
					{Instance: "b", Unit: 1, Mode: "global", Net: "other", Source: intPtr(1)},
				},
			},
			want: []string{"multiple_sources_single_domain/error/"},
		},
		{
			name: "units on different clocks",
			in: Input{
				Sources: []Source{src},
				ClockPins: []ClockPin{
					{Instance: "ff", Unit: 1, Mode: "global", Net: "clk", Source: intPtr(0)},
					{Instance: "ff", Unit: 2, Mode: "gated", Net: "g"},
				},
			},
			want: []string{"gated_clock/warning/ff", "mixed_unit_clocks/warning/ff"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evaluate(t, engine, tt.in)
			if got := rulesOf(res); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("violations = %v, want %v", got, tt.want)
			}
			if res.Summary.TotalViolations != len(tt.want) {
				t.Fatalf("summary total = %d, want %d", res.Summary.TotalViolations, len(tt.want))
			}
		})
	}
}

func TestRuleSeverityOverrides(t *testing.T) {
	engine, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	in := Input{
		Sources: []Source{{ID: 0, Instance: "clk0", Net: "clk", HighTicks: 1, LowTicks: 1, Phase: 1}},
		ClockPins: []ClockPin{
			{Instance: "ff", Unit: 1, Mode: "gated", Net: "g"},
		},
		Rules: map[string]string{
			"gated_clock":         "error",
			"unused_clock_source": "off",
		},
	}
	res := evaluate(t, engine, in)
	want := []string{"degenerate_divider/info/clk0", "gated_clock/error/ff"}
	if got := rulesOf(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("violations = %v, want %v", got, want)
	}
	wantSummary := Summary{TotalViolations: 2, Errors: 1, Info: 1}
	if res.Summary != wantSummary {
		t.Fatalf("summary = %+v, want %+v", res.Summary, wantSummary)
	}
}

func TestExtraPolicyDir(t *testing.T) {
	dir := t.TempDir()
	extra := `package hdlgen.lint

import rego.v1

raw contains v if {
	some pin in input.clock_pins
	pin.type == "Register"
	pin.mode == "unconnected"
	v := {"rule": "floating_register", "instance": pin.instance, "message": "register never clocks"}
}
`
	if err := os.WriteFile(filepath.Join(dir, "extra.rego"), []byte(extra), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	engine, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := evaluate(t, engine, Input{
		ClockPins: []ClockPin{{Instance: "acc", Type: "Register", Unit: 1, Mode: "unconnected"}},
	})
	want := []string{"floating_register/warning/acc"}
	if got := rulesOf(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("violations = %v, want %v", got, want)
	}
}

func TestNewEmptyPolicyDir(t *testing.T) {
	if _, err := New(t.TempDir()); err == nil {
		t.Fatal("New on a directory without policies succeeded")
	}
}

func TestInputFrom(t *testing.T) {
	res := &generator.Result{
		Circuit:     "top",
		SingleClock: true,
		Sources: []clockgen.Source{
			{ID: 0, Instance: "clk0", Net: "clk", HighTicks: 3, LowTicks: 2, Phase: 1},
		},
		Instances: []*generator.Instance{
			{Name: "clk0", Type: clockgen.Name},
			{Name: "dbg_ff", Type: "TTL7474", Clocks: []portmap.ClockResolution{
				{Unit: 1, Mode: portmap.Gated, Net: "g"},
			}},
			{Name: "ff", Type: "TTL7474", Clocks: []portmap.ClockResolution{
				{Unit: 1, Mode: portmap.GlobalBus, Net: "clk", Source: 0},
				{Unit: 2, Mode: portmap.Unconnected},
			}},
		},
	}
	cfg := config.DefaultConfig()
	cfg.Lint.IgnoreInstances = []string{"dbg_*"}
	cfg.Lint.Rules["gated_clock"] = "error"

	in := InputFrom(res, cfg)
	if in.Circuit != "top" || !in.SingleClockDomain {
		t.Fatalf("header = %q/%v", in.Circuit, in.SingleClockDomain)
	}
	if len(in.Sources) != 1 || in.Sources[0].HighTicks != 3 {
		t.Fatalf("sources = %+v", in.Sources)
	}
	want := []ClockPin{
		{Instance: "ff", Type: "TTL7474", Unit: 1, Mode: "global", Net: "clk", Source: intPtr(0)},
		{Instance: "ff", Type: "TTL7474", Unit: 2, Mode: "unconnected"},
	}
	if !reflect.DeepEqual(in.ClockPins, want) {
		t.Fatalf("clock pins = %+v, want %+v", in.ClockPins, want)
	}
	if in.Rules["gated_clock"] != "error" {
		t.Fatalf("rules = %v", in.Rules)
	}

	engine, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := evaluate(t, engine, in); len(got.Violations) != 0 {
		t.Fatalf("violations = %v, want none", rulesOf(got))
	}
}
