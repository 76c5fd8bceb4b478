package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the configuration file searched for in the working directory
// and next to the designs.
const FileName = "hdlgen.json"

// Config is the top-level configuration for hdlgen
type Config struct {
	// Dialect selects the generated language: "vhdl" or "verilog"
	Dialect string `json:"dialect,omitempty"`

	// Designs lists the design documents generated when none is named on the command line
	Designs DesignsConfig `json:"designs,omitempty"`

	// Output controls where artifacts go
	Output OutputConfig `json:"output,omitempty"`

	// Lint contains lint rule configuration
	Lint LintConfig `json:"lint,omitempty"`

	// Cache controls skipping of unchanged artifacts
	Cache CacheConfig `json:"cache,omitempty"`

	// Generation contains generator options
	Generation GenerationConfig `json:"generation,omitempty"`

	// Timing enables the JSONL stage timing log
	Timing TimingConfig `json:"timing,omitempty"`
}

// DesignsConfig selects design documents by glob
type DesignsConfig struct {
	// Files is a list of glob patterns; ** matches any number of directories
	Files []string `json:"files,omitempty"`

	// Exclude is a list of glob patterns removed from Files
	Exclude []string `json:"exclude,omitempty"`
}

// OutputConfig controls artifact locations
type OutputConfig struct {
	// Dir is the output root; artifacts go to <dir>/<dialect>/...
	Dir string `json:"dir,omitempty"`

	// Manifest is the manifest file name, relative to <dir>/<dialect>
	Manifest string `json:"manifest,omitempty"`
}

// LintConfig contains linting configuration
type LintConfig struct {
	// Enabled turns the clock-domain lint pass on or off
	Enabled *bool `json:"enabled,omitempty"`

	// Rules maps rule names to severity: "off", "info", "warning", "error"
	Rules map[string]string `json:"rules,omitempty"`

	// IgnoreInstances is a list of instance name patterns excluded from lint
	IgnoreInstances []string `json:"ignoreInstances,omitempty"`

	// PolicyDir holds extra .rego modules loaded next to the built-in rules
	PolicyDir string `json:"policyDir,omitempty"`
}

// CacheConfig controls the artifact cache
type CacheConfig struct {
	// Enabled turns on the artifact cache
	Enabled *bool `json:"enabled,omitempty"`

	// Dir is the cache directory (relative to the output root if not absolute)
	Dir string `json:"dir,omitempty"`
}

// GenerationConfig contains generator options
type GenerationConfig struct {
	// MaxParallel limits concurrent module and instance generation (0 = unlimited)
	MaxParallel int `json:"maxParallel,omitempty"`
}

// TimingConfig controls the stage timing log
type TimingConfig struct {
	// Path of the JSONL file; empty disables timing unless HDLGEN_TIMING_JSONL is set
	Path string `json:"path,omitempty"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Dialect: "vhdl",
		Designs: DesignsConfig{
			Files:   []string{"*.yaml", "*.yml", "designs/**/*.yaml", "designs/**/*.yml"},
			Exclude: []string{},
		},
		Output: OutputConfig{
			Dir:      "hdl",
			Manifest: "manifest.json",
		},
		Lint: LintConfig{
			Enabled:         boolPtr(true),
			Rules:           map[string]string{},
			IgnoreInstances: []string{},
		},
		Cache: CacheConfig{
			Enabled: boolPtr(true),
			Dir:     ".hdlgen_cache",
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// Load finds and loads the configuration file
// Search order:
//  1. ./hdlgen.json (current working directory)
//  2. ./.hdlgen.json (current working directory)
//  3. <rootPath>/hdlgen.json (if different from cwd)
//  4. ~/.config/hdlgen/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, FileName),
		filepath.Join(cwd, "."+FileName),
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(rootPath, FileName),
				filepath.Join(rootPath, "."+FileName),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "hdlgen", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Dialect == "" {
		c.Dialect = def.Dialect
	}
	if c.Designs.Files == nil {
		c.Designs.Files = def.Designs.Files
	}
	if c.Output.Dir == "" {
		c.Output.Dir = def.Output.Dir
	}
	if c.Output.Manifest == "" {
		c.Output.Manifest = def.Output.Manifest
	}
	if c.Lint.Enabled == nil {
		c.Lint.Enabled = boolPtr(true)
	}
	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]string)
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = def.Cache.Dir
	}
	if c.Cache.Enabled == nil {
		c.Cache.Enabled = boolPtr(true)
	}
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// LintEnabled reports whether the lint pass runs
func (c *Config) LintEnabled() bool {
	return c.Lint.Enabled == nil || *c.Lint.Enabled
}

// CacheEnabled reports whether unchanged artifacts are skipped
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// CacheDir returns the cache directory, resolved against the output root
func (c *Config) CacheDir() string {
	if filepath.IsAbs(c.Cache.Dir) {
		return c.Cache.Dir
	}
	return filepath.Join(c.Output.Dir, c.Cache.Dir)
}

// IsRuleEnabled returns true if the rule is not set to "off"
func (c *Config) IsRuleEnabled(rule string) bool {
	if severity, ok := c.Lint.Rules[rule]; ok {
		return severity != "off"
	}
	return true // enabled by default
}

// ShouldIgnoreInstance checks if an instance is excluded from lint
func (c *Config) ShouldIgnoreInstance(name string) bool {
	for _, pattern := range c.Lint.IgnoreInstances {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
