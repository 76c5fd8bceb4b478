// Package policy lints the clock topology of a generated design with OPA.
// The built-in rules live in lint.rego; extra modules in the same package
// (hdlgen.lint) may add to the raw violation set.
package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-policy-agent/opa/rego"

	"github.com/robert-at-pretension-io/hdl-gen/internal/config"
	"github.com/robert-at-pretension-io/hdl-gen/internal/generator"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

//go:embed lint.rego
var builtinPolicy string

// Rules lists the built-in rule names.
var Rules = []string{
	"degenerate_divider",
	"gated_clock",
	"mixed_unit_clocks",
	"multiple_sources_single_domain",
	"unused_clock_source",
}

// Engine evaluates lint policies against a generated design
type Engine struct {
	queries map[string]rego.PreparedEvalQuery
}

// Violation represents a policy violation
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Instance string `json:"instance"`
	Message  string `json:"message"`
}

// Result contains the evaluation results
type Result struct {
	Violations []Violation
	Summary    Summary
}

// Summary provides aggregate counts
type Summary struct {
	TotalViolations int `json:"total_violations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
}

// Input is the data structure passed to OPA
type Input struct {
	Circuit           string            `json:"circuit"`
	SingleClockDomain bool              `json:"single_clock_domain"`
	Sources           []Source          `json:"sources"`
	ClockPins         []ClockPin        `json:"clock_pins"`
	Rules             map[string]string `json:"rules"`
}

// Source is one clock source and its divider settings.
type Source struct {
	ID        int    `json:"id"`
	Instance  string `json:"instance"`
	Net       string `json:"net"`
	HighTicks int    `json:"high_ticks"`
	LowTicks  int    `json:"low_ticks"`
	Phase     int    `json:"phase"`
}

// ClockPin is the resolved clock of one unit of one instance.
type ClockPin struct {
	Instance string `json:"instance"`
	Type     string `json:"type"`
	Unit     int    `json:"unit"`
	Mode     string `json:"mode"`
	Net      string `json:"net"`
	Source   *int   `json:"source,omitempty"`
}

// New creates a policy engine from the built-in rules plus every .rego file
// in policyDir. An empty policyDir loads the built-in rules only.
func New(policyDir string) (*Engine, error) {
	engine := &Engine{
		queries: make(map[string]rego.PreparedEvalQuery),
	}

	modules := []func(*rego.Rego){rego.Module("lint.rego", builtinPolicy)}
	if policyDir != "" {
		files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
		if err != nil {
			return nil, fmt.Errorf("finding policy files: %w", err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no policy files found in %s", policyDir)
		}
		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", f, err)
			}
			modules = append(modules, rego.Module(f, string(content)))
		}
	}

	for name, q := range map[string]string{
		"violations": "data.hdlgen.lint.all_violations",
		"summary":    "data.hdlgen.lint.summary",
	} {
		opts := append(append([]func(*rego.Rego){}, modules...), rego.Query(q))
		query, err := rego.New(opts...).PrepareForEval(context.Background())
		if err != nil {
			return nil, fmt.Errorf("preparing %s query: %w", name, err)
		}
		engine.queries[name] = query
	}

	return engine, nil
}

// InputFrom builds the lint input of a generation result. Instances matched
// by the configured ignore patterns are left out, and the configured rule
// severities are passed through. cfg may be nil.
func InputFrom(res *generator.Result, cfg *config.Config) Input {
	in := Input{
		Circuit:           res.Circuit,
		SingleClockDomain: res.SingleClock,
		Sources:           []Source{},
		ClockPins:         []ClockPin{},
		Rules:             map[string]string{},
	}
	ignored := func(name string) bool {
		return cfg != nil && cfg.ShouldIgnoreInstance(name)
	}
	if cfg != nil {
		for rule, sev := range cfg.Lint.Rules {
			in.Rules[rule] = sev
		}
	}
	for _, src := range res.Sources {
		if ignored(src.Instance) {
			continue
		}
		in.Sources = append(in.Sources, Source{
			ID:        src.ID,
			Instance:  src.Instance,
			Net:       src.Net,
			HighTicks: src.HighTicks,
			LowTicks:  src.LowTicks,
			Phase:     src.Phase,
		})
	}
	for _, inst := range res.Instances {
		if ignored(inst.Name) {
			continue
		}
		for _, c := range inst.Clocks {
			pin := ClockPin{
				Instance: inst.Name,
				Type:     inst.Type,
				Unit:     c.Unit,
				Mode:     c.Mode.String(),
				Net:      c.Net,
			}
			if c.Mode == portmap.GlobalBus {
				id := c.Source
				pin.Source = &id
			}
			in.ClockPins = append(in.ClockPins, pin)
		}
	}
	return in
}

// Evaluate runs the policies against the input data. Violations are sorted
// by rule, instance and message.
func (e *Engine) Evaluate(ctx context.Context, input Input) (*Result, error) {
	if input.Rules == nil {
		input.Rules = map[string]string{}
	}
	inputMap, err := structToMap(input)
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	result := &Result{}

	rs, err := e.queries["violations"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating violations: %w", err)
	}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		if violations, ok := rs[0].Expressions[0].Value.([]interface{}); ok {
			for _, v := range violations {
				vmap, ok := v.(map[string]interface{})
				if !ok {
					continue
				}
				result.Violations = append(result.Violations, Violation{
					Rule:     getString(vmap, "rule"),
					Severity: getString(vmap, "severity"),
					Instance: getString(vmap, "instance"),
					Message:  getString(vmap, "message"),
				})
			}
		}
	}
	sort.Slice(result.Violations, func(i, j int) bool {
		a, b := result.Violations[i], result.Violations[j]
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		if a.Instance != b.Instance {
			return a.Instance < b.Instance
		}
		return a.Message < b.Message
	})

	rs, err = e.queries["summary"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating summary: %w", err)
	}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		if smap, ok := rs[0].Expressions[0].Value.(map[string]interface{}); ok {
			result.Summary = Summary{
				TotalViolations: getInt(smap, "total_violations"),
				Errors:          getInt(smap, "errors"),
				Warnings:        getInt(smap, "warnings"),
				Info:            getInt(smap, "info"),
			}
		}
	}

	return result, nil
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case json.Number:
			i, _ := n.Int64()
			return int(i)
		}
	}
	return 0
}
