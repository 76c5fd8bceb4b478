package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/hdl-gen/internal/config"
	"github.com/robert-at-pretension-io/hdl-gen/internal/diag"
	"github.com/robert-at-pretension-io/hdl-gen/internal/pipeline"
)

type generateArgs struct {
	dialect    string
	out        string
	configFile string
	noLint     bool
	deltaFrom  string
	deltaOut   string
	verbose    bool
	jsonOutput bool
}

func newGenerateCmd() *cobra.Command {
	var args generateArgs
	cmd := &cobra.Command{
		Use:   "generate [design...]",
		Short: "Generates HDL for the given designs",
		Long: `Generates HDL for the given designs. Without arguments the designs
matched by the configuration's designs.files patterns are generated.`,
		RunE: func(cmd *cobra.Command, designs []string) error {
			return runGenerate(cmd, args, designs)
		},
	}
	flag := cmd.Flags()
	flag.StringVarP(&args.dialect, "dialect", "d", "", "vhdl or verilog (default from config)")
	flag.StringVarP(&args.out, "out", "o", "", "output root (default from config)")
	flag.StringVarP(&args.configFile, "config", "c", "", "configuration file")
	flag.BoolVar(&args.noLint, "no-lint", false, "skip the lint rules")
	flag.StringVar(&args.deltaFrom, "delta-from", "", "manifest to diff the new one against")
	flag.StringVar(&args.deltaOut, "delta-out", "", "write the manifest delta as JSON")
	flag.BoolVarP(&args.verbose, "verbose", "v", false, "verbose")
	flag.BoolVar(&args.jsonOutput, "json", false, "print the run summary as JSON")
	return cmd
}

func loadConfig(configFile string, designs []string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	root := "."
	if len(designs) > 0 {
		root = filepath.Dir(designs[0])
	}
	return config.Load(root)
}

func runGenerate(cmd *cobra.Command, args generateArgs, designs []string) error {
	cfg, err := loadConfig(args.configFile, designs)
	if err != nil {
		return err
	}
	if len(designs) == 0 {
		if designs, err = cfg.ResolveDesigns("."); err != nil {
			return err
		}
		if len(designs) == 0 {
			return fmt.Errorf("no design documents found")
		}
	}

	p, err := pipeline.New(pipeline.Options{
		Config:    cfg,
		Dialect:   args.dialect,
		OutDir:    args.out,
		NoLint:    args.noLint,
		DeltaFrom: args.deltaFrom,
		DeltaOut:  args.deltaOut,
		Log:       newLogger(cmd, args.verbose),
	})
	if err != nil {
		return err
	}
	sum, err := p.Run(cmd.Context(), designs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if args.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(jsonSummary(sum)); err != nil {
			return err
		}
	} else {
		for _, r := range sum.Reports {
			fmt.Fprintf(out, "%s: %d files (%d written), %d warnings",
				r.Circuit, len(r.Files), r.Written,
				diag.Count(r.Diagnostics, diag.Warning)+diag.Count(r.Diagnostics, diag.Severe))
			if r.Lint != nil {
				fmt.Fprintf(out, ", lint %d errors %d warnings %d info",
					r.Lint.Summary.Errors, r.Lint.Summary.Warnings, r.Lint.Summary.Info)
			}
			if r.Delta != nil {
				fmt.Fprintf(out, ", %d rows added %d removed", r.Delta.Added.Len(), r.Delta.Removed.Len())
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%d written, %d unchanged\n", sum.Written, sum.Skipped)
	}

	if n := sum.LintErrors(); n > 0 {
		return fmt.Errorf("lint reported %d errors", n)
	}
	return nil
}

type designSummary struct {
	Design      string            `json:"design"`
	Circuit     string            `json:"circuit"`
	Manifest    string            `json:"manifest"`
	Files       int               `json:"files"`
	Written     int               `json:"written"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	Lint        any               `json:"lint,omitempty"`
}

func jsonSummary(sum *pipeline.Summary) map[string]any {
	designs := make([]designSummary, 0, len(sum.Reports))
	for _, r := range sum.Reports {
		ds := designSummary{
			Design:      r.Design,
			Circuit:     r.Circuit,
			Manifest:    r.ManifestPath,
			Files:       len(r.Files),
			Written:     r.Written,
			Diagnostics: r.Diagnostics,
		}
		if ds.Diagnostics == nil {
			ds.Diagnostics = []diag.Diagnostic{}
		}
		if r.Lint != nil {
			ds.Lint = r.Lint.Summary
		}
		designs = append(designs, ds)
	}
	return map[string]any{
		"designs": designs,
		"written": sum.Written,
		"skipped": sum.Skipped,
	}
}
