// Package manifest records what a generation pass produced as flat relational
// rows, so two runs can be compared row by row.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/robert-at-pretension-io/hdl-gen/internal/generator"
	"github.com/robert-at-pretension-io/hdl-gen/internal/output"
	"github.com/robert-at-pretension-io/hdl-gen/internal/portmap"
)

// Version of the manifest layout.
const Version = 1

// Manifest is the record of one generated design.
type Manifest struct {
	Version int    `json:"version"`
	Circuit string `json:"circuit"`
	Dialect string `json:"dialect"`
	Tables
}

// Tables holds one relation per kind of generated fact.
type Tables struct {
	Files        []FileRow        `json:"files"`
	Modules      []ModuleRow      `json:"modules"`
	Instances    []InstanceRow    `json:"instances"`
	Params       []ParamRow       `json:"params"`
	PortMaps     []PortMapRow     `json:"port_maps"`
	ClockSources []ClockSourceRow `json:"clock_sources"`
	ClockPins    []ClockPinRow    `json:"clock_pins"`
	Diagnostics  []DiagnosticRow  `json:"diagnostics"`
	Lint         []LintRow        `json:"lint"`
}

type FileRow struct {
	Path   string `json:"path"`
	Module string `json:"module"`
	Hash   string `json:"hash"`
}

type ModuleRow struct {
	Name   string `json:"name"`
	SubDir string `json:"sub_dir"`
}

type InstanceRow struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type ParamRow struct {
	Instance string `json:"instance"`
	Name     string `json:"name"`
	Value    int    `json:"value"`
}

type PortMapRow struct {
	Instance string `json:"instance"`
	Port     string `json:"port"`
	Expr     string `json:"expr"`
}

type ClockSourceRow struct {
	ID        int    `json:"id"`
	Instance  string `json:"instance"`
	Net       string `json:"net"`
	HighTicks int    `json:"high_ticks"`
	LowTicks  int    `json:"low_ticks"`
	Phase     int    `json:"phase"`
}

type ClockPinRow struct {
	Instance string `json:"instance"`
	Unit     int    `json:"unit"`
	Mode     string `json:"mode"`
	Net      string `json:"net,omitempty"`
	Source   *int   `json:"source,omitempty"`
}

type DiagnosticRow struct {
	Severity  string `json:"severity"`
	Circuit   string `json:"circuit"`
	Component string `json:"component"`
	Instance  string `json:"instance,omitempty"`
	Unit      int    `json:"unit,omitempty"`
	Message   string `json:"message"`
}

type LintRow struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Instance string `json:"instance,omitempty"`
	Message  string `json:"message"`
}

// Build records res and the files written for it. Lint rows are added by the caller.
func Build(res *generator.Result, files []output.File) *Manifest {
	m := &Manifest{
		Version: Version,
		Circuit: res.Circuit,
		Dialect: res.Dialect.String(),
		Tables:  emptyTables(),
	}
	for _, f := range files {
		m.Files = append(m.Files, FileRow{Path: f.Path, Module: f.Module, Hash: f.Hash})
	}
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Path < m.Files[j].Path })
	for _, mod := range res.Modules {
		m.Modules = append(m.Modules, ModuleRow{Name: mod.Name, SubDir: mod.SubDir})
	}
	for _, inst := range res.Instances {
		m.Instances = append(m.Instances, InstanceRow{Name: inst.Name, Type: inst.Type})
		for _, p := range inst.Params {
			m.Params = append(m.Params, ParamRow{Instance: inst.Name, Name: p.Name, Value: p.Value})
		}
		for _, a := range inst.Ports {
			m.PortMaps = append(m.PortMaps, PortMapRow{Instance: inst.Name, Port: a.Port, Expr: a.Expr.String()})
		}
		for _, c := range inst.Clocks {
			row := ClockPinRow{Instance: inst.Name, Unit: c.Unit, Mode: c.Mode.String(), Net: c.Net}
			if c.Mode == portmap.GlobalBus {
				src := c.Source
				row.Source = &src
			}
			m.ClockPins = append(m.ClockPins, row)
		}
	}
	for _, src := range res.Sources {
		m.ClockSources = append(m.ClockSources, ClockSourceRow{
			ID:        src.ID,
			Instance:  src.Instance,
			Net:       src.Net,
			HighTicks: src.HighTicks,
			LowTicks:  src.LowTicks,
			Phase:     src.Phase,
		})
	}
	for _, d := range res.Diagnostics {
		m.Diagnostics = append(m.Diagnostics, DiagnosticRow{
			Severity:  d.Severity.String(),
			Circuit:   d.Circuit,
			Component: d.Component,
			Instance:  d.Instance,
			Unit:      d.Unit,
			Message:   d.Message,
		})
	}
	return m
}

// Load reads a manifest written by an earlier run.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("manifest %s has version %d, want %d", path, m.Version, Version)
	}
	return &m, nil
}

func emptyTables() Tables {
	return Tables{
		Files:        []FileRow{},
		Modules:      []ModuleRow{},
		Instances:    []InstanceRow{},
		Params:       []ParamRow{},
		PortMaps:     []PortMapRow{},
		ClockSources: []ClockSourceRow{},
		ClockPins:    []ClockPinRow{},
		Diagnostics:  []DiagnosticRow{},
		Lint:         []LintRow{},
	}
}
