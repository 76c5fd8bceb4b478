// Package pipeline runs design documents through loading, schema validation,
// generation, lint and output, and records a manifest per design.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robert-at-pretension-io/hdl-gen/internal/config"
	"github.com/robert-at-pretension-io/hdl-gen/internal/diag"
	"github.com/robert-at-pretension-io/hdl-gen/internal/generator"
	"github.com/robert-at-pretension-io/hdl-gen/internal/hdl"
	"github.com/robert-at-pretension-io/hdl-gen/internal/manifest"
	"github.com/robert-at-pretension-io/hdl-gen/internal/netlist"
	"github.com/robert-at-pretension-io/hdl-gen/internal/output"
	"github.com/robert-at-pretension-io/hdl-gen/internal/policy"
	"github.com/robert-at-pretension-io/hdl-gen/internal/validator"
)

// ErrDeltaDesigns is returned when delta options are given for more than one design.
var ErrDeltaDesigns = errors.New("delta options need exactly one design")

// Options override the configuration for one run.
type Options struct {
	Config    *config.Config // nil means DefaultConfig
	Dialect   string         // overrides Config.Dialect when set
	OutDir    string         // overrides Config.Output.Dir when set
	NoLint    bool
	DeltaFrom string // manifest to diff against instead of the previous one
	DeltaOut  string // where to write the delta as JSON
	Log       logrus.FieldLogger
}

// Report describes what one design produced.
type Report struct {
	Design       string
	Circuit      string
	Files        []output.File
	Written      int
	Diagnostics  []diag.Diagnostic
	Lint         *policy.Result // nil when lint is off
	ManifestPath string
	Delta        *manifest.Delta // nil when there was nothing to diff against
}

// Summary is the outcome of a run.
type Summary struct {
	Reports []*Report
	Written int
	Skipped int
}

// LintErrors counts error-severity lint violations over all designs.
func (s *Summary) LintErrors() int {
	n := 0
	for _, r := range s.Reports {
		if r.Lint != nil {
			n += r.Lint.Summary.Errors
		}
	}
	return n
}

// Pipeline holds what is shared between the designs of a run.
type Pipeline struct {
	cfg       config.Config
	dialect   hdl.Dialect
	opts      Options
	log       logrus.FieldLogger
	gen       *generator.Generator
	validator *validator.Validator
	lint      *policy.Engine
}

// New prepares a pipeline: the dialect is checked, the schema compiled and the
// lint policies prepared once.
func New(opts Options) (*Pipeline, error) {
	cfg := config.DefaultConfig()
	if opts.Config != nil {
		cfg = opts.Config
	}
	p := &Pipeline{cfg: *cfg, opts: opts, log: opts.Log}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	if opts.Dialect != "" {
		p.cfg.Dialect = opts.Dialect
	}
	if opts.OutDir != "" {
		p.cfg.Output.Dir = opts.OutDir
	}

	d, err := hdl.ParseDialect(p.cfg.Dialect)
	if err != nil {
		return nil, err
	}
	p.dialect = d

	p.gen = generator.New()
	p.gen.Parallelism = p.cfg.Generation.MaxParallel

	if p.validator, err = validator.New(); err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}
	if p.cfg.LintEnabled() && !opts.NoLint && p.anyRuleEnabled() {
		if p.lint, err = policy.New(p.cfg.Lint.PolicyDir); err != nil {
			return nil, fmt.Errorf("init lint policies: %w", err)
		}
	}
	return p, nil
}

// anyRuleEnabled is false when every built-in rule is off and no extra
// policies are configured, in which case the lint stage is skipped.
func (p *Pipeline) anyRuleEnabled() bool {
	if p.cfg.Lint.PolicyDir != "" {
		return true
	}
	for _, rule := range policy.Rules {
		if p.cfg.IsRuleEnabled(rule) {
			return true
		}
	}
	return false
}

// Dialect is the dialect the pipeline generates.
func (p *Pipeline) Dialect() hdl.Dialect { return p.dialect }

// Run processes designs in order. The first failing design stops the run;
// files of designs processed before it stay written.
func (p *Pipeline) Run(ctx context.Context, designs []string) (*Summary, error) {
	if (p.opts.DeltaFrom != "" || p.opts.DeltaOut != "") && len(designs) != 1 {
		return nil, ErrDeltaDesigns
	}

	timing := newTimingRecorder(time.Now(), timingPath(p.cfg.Timing.Path))
	if err := timing.Err(); err != nil {
		p.log.WithError(err).Warn("timing output disabled")
	}
	defer timing.Close()

	var cache *output.Cache
	if p.cfg.CacheEnabled() {
		cache = output.NewCache(p.cfg.CacheDir())
		if err := cache.Load(); err != nil {
			p.log.WithError(err).Warn("cache disabled")
			cache = nil
		}
	}
	writer := output.NewWriter(p.cfg.Output.Dir, cache)

	summary := &Summary{}
	status := "ok"
	defer func() { timing.Total(status) }()
	for _, design := range designs {
		if err := ctx.Err(); err != nil {
			status = "canceled"
			return nil, err
		}
		report, err := p.runDesign(ctx, design, writer, timing)
		if err != nil {
			status = "error"
			return nil, fmt.Errorf("%s: %w", design, err)
		}
		summary.Reports = append(summary.Reports, report)
		summary.Written += report.Written
	}
	summary.Skipped = cache.Hits()
	if err := cache.Save(); err != nil {
		p.log.WithError(err).Warn("saving cache index")
	}
	return summary, nil
}

func (p *Pipeline) runDesign(ctx context.Context, file string, writer *output.Writer, timing *timingRecorder) (*Report, error) {
	log := p.log.WithField("design", file)
	report := &Report{Design: file}

	start := time.Now()
	design, jsonBytes, err := netlist.Load(file)
	timing.Stage("load", file, statusOf(err), start)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	err = p.validator.ValidateDesignJSON(jsonBytes)
	timing.Stage("validate", file, statusOf(err), start)
	if err != nil {
		return nil, fmt.Errorf("invalid design: %w", err)
	}

	start = time.Now()
	res, err := p.gen.Design(ctx, design, p.dialect)
	timing.Stage("generate", file, statusOf(err), start)
	if err != nil {
		return nil, err
	}
	report.Circuit = res.Circuit
	report.Diagnostics = res.Diagnostics
	log = log.WithField("circuit", res.Circuit)
	diag.LogTo(log, res.Diagnostics)
	log.WithFields(logrus.Fields{
		"stage":     "generate",
		"modules":   len(res.Modules),
		"instances": len(res.Instances),
		"sources":   len(res.Sources),
		"duration":  time.Since(start),
	}).Debug("generated")

	if p.lint != nil {
		start = time.Now()
		report.Lint, err = p.lint.Evaluate(ctx, policy.InputFrom(res, &p.cfg))
		timing.Stage("lint", file, statusOf(err), start)
		if err != nil {
			return nil, fmt.Errorf("lint: %w", err)
		}
		logViolations(log, report.Lint.Violations)
	}

	start = time.Now()
	report.Files, err = p.write(res, writer, log)
	timing.Stage("write", file, statusOf(err), start)
	if err != nil {
		return nil, err
	}
	for _, f := range report.Files {
		if f.Written {
			report.Written++
		}
	}

	start = time.Now()
	err = p.record(res, report, log)
	timing.Stage("manifest", file, statusOf(err), start)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"files":    len(report.Files),
		"written":  report.Written,
		"warnings": diag.Count(res.Diagnostics, diag.Warning) + diag.Count(res.Diagnostics, diag.Severe),
	}).Info("design generated")
	return report, nil
}

// write stores every module and the circuit structure below <out>/<dialect>.
func (p *Pipeline) write(res *generator.Result, writer *output.Writer, log logrus.FieldLogger) ([]output.File, error) {
	dir := p.dialect.String()
	ext := p.dialect.Extension()
	files := make([]output.File, 0, len(res.Modules)+1)
	put := func(rel, module, text string) error {
		f, err := writer.Write(rel, module, []byte(text))
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"stage": "write", "file": f.Path, "written": f.Written}).Debug("artifact")
		files = append(files, f)
		return nil
	}
	for _, m := range res.Modules {
		if err := put(path.Join(dir, m.SubDir, m.Name+ext), m.Name, m.Text); err != nil {
			return nil, err
		}
	}
	if err := put(path.Join(dir, res.Circuit+"_structure"+ext), res.Circuit, res.Structure); err != nil {
		return nil, err
	}
	return files, nil
}

// ManifestPath is where the manifest of circuit is written.
func (p *Pipeline) ManifestPath(circuit string) string {
	return filepath.Join(p.cfg.Output.Dir, p.dialect.String(), circuit+"_"+p.cfg.Output.Manifest)
}

// record builds, validates and writes the manifest, and diffs it against the
// previous one.
func (p *Pipeline) record(res *generator.Result, report *Report, log logrus.FieldLogger) error {
	m := manifest.Build(res, report.Files)
	if report.Lint != nil {
		for _, v := range report.Lint.Violations {
			m.Lint = append(m.Lint, manifest.LintRow{
				Rule:     v.Rule,
				Severity: v.Severity,
				Instance: v.Instance,
				Message:  v.Message,
			})
		}
	}
	if err := p.validator.ValidateManifest(m); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}

	report.ManifestPath = p.ManifestPath(res.Circuit)
	prevPath := p.opts.DeltaFrom
	if prevPath == "" {
		prevPath = report.ManifestPath
	}
	prev, err := manifest.Load(prevPath)
	switch {
	case err == nil:
		delta := manifest.ComputeDelta(prev.Tables, m.Tables)
		report.Delta = &delta
		log.WithFields(logrus.Fields{
			"added":   delta.Added.Len(),
			"removed": delta.Removed.Len(),
		}).Debug("manifest delta")
	case p.opts.DeltaFrom != "":
		return err
	case !errors.Is(err, os.ErrNotExist):
		log.WithError(err).Warn("previous manifest ignored")
	}

	if err := output.WriteJSONAtomic(report.ManifestPath, m); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if p.opts.DeltaOut != "" {
		delta := report.Delta
		if delta == nil {
			full := manifest.ComputeDelta(manifest.Tables{}, m.Tables)
			delta = &full
		}
		if err := output.WriteJSONAtomic(p.opts.DeltaOut, delta); err != nil {
			return fmt.Errorf("writing delta: %w", err)
		}
	}
	return nil
}

func logViolations(log logrus.FieldLogger, vs []policy.Violation) {
	for _, v := range vs {
		entry := log.WithField("rule", v.Rule)
		if v.Instance != "" {
			entry = entry.WithField("instance", v.Instance)
		}
		switch v.Severity {
		case "error":
			entry.Error(v.Message)
		case "warning":
			entry.Warn(v.Message)
		default:
			entry.Info(v.Message)
		}
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
