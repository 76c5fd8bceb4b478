package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robert-at-pretension-io/hdl-gen/internal/config"
)

const gatedDesign = `circuit: board
instances:
  - name: acc
    type: Register
    attributes: {width: 8}
    ends:
      - net: acc_q
      - net: acc_d
      - net: strobe
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFixture(t *testing.T, dir string) (design, cfgPath string) {
	t.Helper()
	design = filepath.Join(dir, "board.yaml")
	if err := os.WriteFile(design, []byte(gatedDesign), 0o644); err != nil {
		t.Fatalf("write design: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfgPath = filepath.Join(dir, config.FileName)
	if err := cfg.Save(cfgPath); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return design, cfgPath
}

func TestClockBusCommand(t *testing.T) {
	out, err := execute(t, "clockbus")
	if err != nil {
		t.Fatalf("clockbus: %v", err)
	}
	for _, want := range []string{"busClk<id>", "0  derived clock", "4  global clock", "fpgaGlobalClock"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	design, cfgPath := writeFixture(t, dir)

	out, err := execute(t, "generate", "--config", cfgPath, "--dialect", "verilog", design)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "board: 2 files (2 written)") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "lint 0 errors 1 warnings") {
		t.Fatalf("gated clock not reported:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "verilog", "memory", "Register.v")); err != nil {
		t.Fatalf("module missing: %v", err)
	}
}

func TestGenerateJSON(t *testing.T) {
	dir := t.TempDir()
	design, cfgPath := writeFixture(t, dir)

	out, err := execute(t, "generate", "-c", cfgPath, "--no-lint", "--json", design)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var got struct {
		Designs []struct {
			Circuit string          `json:"circuit"`
			Files   int             `json:"files"`
			Lint    json.RawMessage `json:"lint"`
		} `json:"designs"`
		Written int `json:"written"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if len(got.Designs) != 1 || got.Designs[0].Circuit != "board" || got.Designs[0].Files != 2 || got.Written != 2 {
		t.Fatalf("summary = %+v", got)
	}
	if got.Designs[0].Lint != nil {
		t.Fatalf("lint summary present with --no-lint: %s", got.Designs[0].Lint)
	}
}

func TestGenerateFailsOnLintErrors(t *testing.T) {
	dir := t.TempDir()
	design, _ := writeFixture(t, dir)
	cfg := config.DefaultConfig()
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Lint.Rules["gated_clock"] = "error"
	cfgPath := filepath.Join(dir, "strict.json")
	if err := cfg.Save(cfgPath); err != nil {
		t.Fatalf("save config: %v", err)
	}

	_, err := execute(t, "generate", "-c", cfgPath, design)
	if err == nil || !strings.Contains(err.Error(), "lint reported 1 errors") {
		t.Fatalf("generate = %v, want lint failure", err)
	}
}

func TestGenerateUnknownDialect(t *testing.T) {
	dir := t.TempDir()
	design, cfgPath := writeFixture(t, dir)
	if _, err := execute(t, "generate", "-c", cfgPath, "-d", "ahdl", design); err == nil {
		t.Fatal("generate accepted an unknown dialect")
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := execute(t, "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Created "+config.FileName) {
		t.Fatalf("unexpected output:\n%s", out)
	}
	cfg, err := config.LoadFile(filepath.Join(dir, config.FileName))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Dialect != "vhdl" || cfg.Output.Dir != "hdl" {
		t.Fatalf("config = %+v", cfg)
	}

	if _, err := execute(t, "init"); err == nil {
		t.Fatal("init overwrote an existing config without --force")
	}
	if _, err := execute(t, "init", "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}
