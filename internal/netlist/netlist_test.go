package netlist

import (
	"os"
	"path/filepath"
	"testing"
)

const designYAML = `
circuit: main
singleClockDomain: false
clockNets:
  clk_net: 7
instances:
  - name: clk0
    type: Clock
    attributes: {highTicks: 3, lowTicks: 2, phase: 0}
    ends:
      - net: clk_net
  - name: U1
    type: TTL7474
    ends:
      - {}
      - net: d1
      - net: clk_net
      - const: 1
`

func TestParseYAMLDesign(t *testing.T) {
	d, jsonData, err := Parse([]byte(designYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(jsonData) == 0 || jsonData[0] != '{' {
		t.Fatalf("expected JSON form, got %q", jsonData)
	}
	if d.CircuitName() != "main" {
		t.Fatalf("circuit = %q", d.CircuitName())
	}
	if id, ok := d.ClockSourceID("clk_net"); !ok || id != 7 {
		t.Fatalf("ClockSourceID(clk_net) = %d, %v", id, ok)
	}
	if _, ok := d.ClockSourceID("d1"); ok {
		t.Fatalf("d1 must not be a clock source")
	}
	insts := d.SortedInstances()
	if insts[0].Name != "U1" || insts[1].Name != "clk0" {
		t.Fatalf("unexpected order: %s, %s", insts[0].Name, insts[1].Name)
	}
	u1 := insts[0]
	if u1.EndIsConnected(0) {
		t.Fatalf("pin 0 should be unconnected")
	}
	if !u1.EndIsConnected(3) || *u1.End(3).Const != 1 {
		t.Fatalf("pin 3 should be tied to 1")
	}
	if u1.EndIsConnected(42) {
		t.Fatalf("pins past the end are unconnected")
	}
	high, ok := insts[1].Attributes.Int("highTicks")
	if !ok || high != 3 {
		t.Fatalf("highTicks = %d, %v", high, ok)
	}
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	doc := `{"circuit":"c","instances":[{"name":"a","type":"Clock"},{"name":"a","type":"Clock"}]}`
	if _, _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestParseRejectsAmbiguousEnds(t *testing.T) {
	tests := []string{
		`{"net":"a","const":1}`,
		`{"net":"a","bits":[{"net":"b"}]}`,
		`{"const":0,"bits":[{"net":"b"}]}`,
	}
	for _, end := range tests {
		doc := `{"circuit":"c","instances":[{"name":"a","type":"Register","ends":[` + end + `]}]}`
		if _, _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("end %s accepted", end)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "design.yaml")
	if err := os.WriteFile(path, []byte(designYAML), 0o644); err != nil {
		t.Fatalf("write design: %v", err)
	}
	d, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(d.Instances))
	}
}

func TestAttributes(t *testing.T) {
	a := Attributes{"w": float64(8), "frac": 1.5, "on": true, "name": "x"}
	if v, ok := a.Int("w"); !ok || v != 8 {
		t.Fatalf("Int(w) = %d, %v", v, ok)
	}
	if _, ok := a.Int("frac"); ok {
		t.Fatalf("non-integral value must be rejected")
	}
	if _, ok := a.Int("missing"); ok {
		t.Fatalf("missing value must be rejected")
	}
	if v, ok := a.Bool("on"); !ok || !v {
		t.Fatalf("Bool(on) = %v, %v", v, ok)
	}
	if v, ok := a.Text("name"); !ok || v != "x" {
		t.Fatalf("Text(name) = %q, %v", v, ok)
	}
}
