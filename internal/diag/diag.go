// Package diag collects generation diagnostics. A Collector is passed into each
// generation call; it never influences control flow.
package diag

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Severity of a diagnostic.
type Severity int

const (
	Info Severity = iota + 1
	Warning
	Severe
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Severe:
		return "severe"
	case Error:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Diagnostic is one message about one unit of one component instance.
// Unit is zero for messages that do not concern a specific unit.
type Diagnostic struct {
	Severity  Severity `json:"-"`
	Level     string   `json:"severity"`
	Circuit   string   `json:"circuit"`
	Component string   `json:"component"`
	Instance  string   `json:"instance,omitempty"`
	Unit      int      `json:"unit,omitempty"`
	Message   string   `json:"message"`
}

func (d Diagnostic) String() string {
	where := fmt.Sprintf("component %q in circuit %q", d.Component, d.Circuit)
	if d.Instance != "" {
		where += fmt.Sprintf(" (%s)", d.Instance)
	}
	if d.Unit > 0 {
		where += fmt.Sprintf(" unit %d", d.Unit)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, where, d.Message)
}

// Collector is safe for concurrent use. A nil Collector drops everything.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewCollector returns an empty collector.
func NewCollector() *Collector { return &Collector{} }

// Add records d.
func (c *Collector) Add(d Diagnostic) {
	if c == nil {
		return
	}
	d.Level = d.Severity.String()
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Diagnostics returns the recorded diagnostics in a stable order, independent
// of the order in which concurrent generators reported them.
func (c *Collector) Diagnostics() []Diagnostic {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	out := append([]Diagnostic(nil), c.items...)
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Circuit != b.Circuit {
			return a.Circuit < b.Circuit
		}
		if a.Instance != b.Instance {
			return a.Instance < b.Instance
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.Message < b.Message
	})
	return out
}

// Count returns the number of diagnostics at severity s.
func Count(ds []Diagnostic, s Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// LogTo forwards diagnostics to a logger with structured fields.
func LogTo(log logrus.FieldLogger, ds []Diagnostic) {
	for _, d := range ds {
		entry := log.WithFields(logrus.Fields{
			"circuit":   d.Circuit,
			"component": d.Component,
		})
		if d.Instance != "" {
			entry = entry.WithField("instance", d.Instance)
		}
		if d.Unit > 0 {
			entry = entry.WithField("unit", d.Unit)
		}
		switch d.Severity {
		case Error:
			entry.Error(d.Message)
		case Severe, Warning:
			entry.Warn(d.Message)
		default:
			entry.Info(d.Message)
		}
	}
}
