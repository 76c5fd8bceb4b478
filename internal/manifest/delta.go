package manifest

import "strconv"

// Delta captures added and removed rows between two manifests.
type Delta struct {
	Added   Tables `json:"added"`
	Removed Tables `json:"removed"`
}

// Empty reports whether nothing changed.
func (d Delta) Empty() bool {
	return d.Added.Len() == 0 && d.Removed.Len() == 0
}

// Len returns the total number of rows.
func (t Tables) Len() int {
	return len(t.Files) + len(t.Modules) + len(t.Instances) + len(t.Params) + len(t.PortMaps) +
		len(t.ClockSources) + len(t.ClockPins) + len(t.Diagnostics) + len(t.Lint)
}

// ComputeDelta computes row-level additions and removals between two snapshots.
func ComputeDelta(prev, next Tables) Delta {
	return Delta{
		Added:   diffTables(prev, next),
		Removed: diffTables(next, prev),
	}
}

func diffTables(from, to Tables) Tables {
	out := emptyTables()

	out.Files = diffRows(from.Files, to.Files, func(r FileRow) string {
		return r.Path + "|" + r.Module + "|" + r.Hash
	})
	out.Modules = diffRows(from.Modules, to.Modules, func(r ModuleRow) string {
		return r.Name + "|" + r.SubDir
	})
	out.Instances = diffRows(from.Instances, to.Instances, func(r InstanceRow) string {
		return r.Name + "|" + r.Type
	})
	out.Params = diffRows(from.Params, to.Params, func(r ParamRow) string {
		return r.Instance + "|" + r.Name + "|" + strconv.Itoa(r.Value)
	})
	out.PortMaps = diffRows(from.PortMaps, to.PortMaps, func(r PortMapRow) string {
		return r.Instance + "|" + r.Port + "|" + r.Expr
	})
	out.ClockSources = diffRows(from.ClockSources, to.ClockSources, func(r ClockSourceRow) string {
		return strconv.Itoa(r.ID) + "|" + r.Instance + "|" + r.Net + "|" +
			strconv.Itoa(r.HighTicks) + "|" + strconv.Itoa(r.LowTicks) + "|" + strconv.Itoa(r.Phase)
	})
	out.ClockPins = diffRows(from.ClockPins, to.ClockPins, func(r ClockPinRow) string {
		src := "-"
		if r.Source != nil {
			src = strconv.Itoa(*r.Source)
		}
		return r.Instance + "|" + strconv.Itoa(r.Unit) + "|" + r.Mode + "|" + r.Net + "|" + src
	})
	out.Diagnostics = diffRows(from.Diagnostics, to.Diagnostics, func(r DiagnosticRow) string {
		return r.Severity + "|" + r.Circuit + "|" + r.Component + "|" + r.Instance + "|" + strconv.Itoa(r.Unit) + "|" + r.Message
	})
	out.Lint = diffRows(from.Lint, to.Lint, func(r LintRow) string {
		return r.Rule + "|" + r.Severity + "|" + r.Instance + "|" + r.Message
	})

	return out
}

func diffRows[T any](from, to []T, key func(T) string) []T {
	fromSet := make(map[string]struct{}, len(from))
	for _, row := range from {
		fromSet[key(row)] = struct{}{}
	}
	var diff []T
	for _, row := range to {
		if _, ok := fromSet[key(row)]; !ok {
			diff = append(diff, row)
		}
	}
	if diff == nil {
		diff = []T{}
	}
	return diff
}
