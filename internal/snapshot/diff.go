package snapshot

import (
	"fmt"
	"sort"
	"strings"
)

// DiffType indicates the kind of change.
type DiffType string

const (
	DiffAdded   DiffType = "added"
	DiffRemoved DiffType = "removed"
	DiffChanged DiffType = "changed"
)

// StructuralDiff captures what changed between two snapshots at the
// import-structure level.
type StructuralDiff struct {
	OldID  string `json:"old_id"`
	NewID  string `json:"new_id"`
	OldTag string `json:"old_tag,omitempty"`
	NewTag string `json:"new_tag,omitempty"`

	Modules []ModuleDiff `json:"modules,omitempty"`
	Edges   []EdgeDiff   `json:"edges,omitempty"`

	NewCycles      [][]string `json:"new_cycles,omitempty"`
	ResolvedCycles [][]string `json:"resolved_cycles,omitempty"`
	NewDead        []string   `json:"new_dead,omitempty"`
	ResolvedDead   []string   `json:"resolved_dead,omitempty"`

	Summary DiffSummary `json:"summary"`
}

// ModuleDiff is one module-level change.
type ModuleDiff struct {
	Path string   `json:"path"`
	Type DiffType `json:"type"`
	// LinesDelta is set for changed modules.
	LinesDelta int `json:"lines_delta,omitempty"`
}

// EdgeDiff is one edge-level change.
type EdgeDiff struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind string   `json:"kind"`
	Type DiffType `json:"type"`
}

// DiffSummary aggregates the diff. Worse is true when the new snapshot
// introduced cycles or dead modules that the baseline did not have.
type DiffSummary struct {
	ModulesAdded   int  `json:"modules_added"`
	ModulesRemoved int  `json:"modules_removed"`
	ModulesChanged int  `json:"modules_changed"`
	EdgesAdded     int  `json:"edges_added"`
	EdgesRemoved   int  `json:"edges_removed"`
	Worse          bool `json:"worse"`
}

// Diff computes the structural differences between two snapshots.
// Fingerprints decide "changed": a module whose composite hash is intact
// is skipped entirely.
func Diff(old, new *Snapshot) *StructuralDiff {
	d := &StructuralDiff{
		OldID:  old.ID,
		NewID:  new.ID,
		OldTag: old.Tag,
		NewTag: new.Tag,
	}

	d.Modules = diffModules(old.Modules, new.Modules)
	d.Edges = diffEdges(old.Edges, new.Edges)
	d.NewCycles, d.ResolvedCycles = diffCycles(old.Cycles, new.Cycles)
	d.NewDead, d.ResolvedDead = diffStrings(old.DeadModules, new.DeadModules)

	for _, md := range d.Modules {
		switch md.Type {
		case DiffAdded:
			d.Summary.ModulesAdded++
		case DiffRemoved:
			d.Summary.ModulesRemoved++
		case DiffChanged:
			d.Summary.ModulesChanged++
		}
	}
	for _, ed := range d.Edges {
		switch ed.Type {
		case DiffAdded:
			d.Summary.EdgesAdded++
		case DiffRemoved:
			d.Summary.EdgesRemoved++
		}
	}
	d.Summary.Worse = len(d.NewCycles) > 0 || len(d.NewDead) > 0

	return d
}

func diffModules(oldMods, newMods []ModuleEntry) []ModuleDiff {
	oldMap := make(map[string]ModuleEntry, len(oldMods))
	for _, m := range oldMods {
		oldMap[m.Path] = m
	}
	newMap := make(map[string]ModuleEntry, len(newMods))
	for _, m := range newMods {
		newMap[m.Path] = m
	}

	var diffs []ModuleDiff
	for path, om := range oldMap {
		nm, ok := newMap[path]
		if !ok {
			diffs = append(diffs, ModuleDiff{Path: path, Type: DiffRemoved})
			continue
		}
		if om.Fingerprint != nm.Fingerprint {
			diffs = append(diffs, ModuleDiff{
				Path:       path,
				Type:       DiffChanged,
				LinesDelta: nm.Lines - om.Lines,
			})
		}
	}
	for path := range newMap {
		if _, ok := oldMap[path]; !ok {
			diffs = append(diffs, ModuleDiff{Path: path, Type: DiffAdded})
		}
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Path < diffs[j].Path })
	return diffs
}

func diffEdges(oldEdges, newEdges []EdgeEntry) []EdgeDiff {
	key := func(e EdgeEntry) string { return e.From + "\x00" + e.To }

	oldMap := make(map[string]EdgeEntry, len(oldEdges))
	for _, e := range oldEdges {
		oldMap[key(e)] = e
	}
	newMap := make(map[string]EdgeEntry, len(newEdges))
	for _, e := range newEdges {
		newMap[key(e)] = e
	}

	var diffs []EdgeDiff
	for k, e := range oldMap {
		if _, ok := newMap[k]; !ok {
			diffs = append(diffs, EdgeDiff{From: e.From, To: e.To, Kind: e.Kind, Type: DiffRemoved})
		}
	}
	for k, e := range newMap {
		if _, ok := oldMap[k]; !ok {
			diffs = append(diffs, EdgeDiff{From: e.From, To: e.To, Kind: e.Kind, Type: DiffAdded})
		}
	}

	sort.Slice(diffs, func(i, j int) bool {
		if diffs[i].From != diffs[j].From {
			return diffs[i].From < diffs[j].From
		}
		return diffs[i].To < diffs[j].To
	})
	return diffs
}

func diffCycles(oldCycles, newCycles [][]string) (added, removed [][]string) {
	key := func(c []string) string { return strings.Join(c, "\x00") }

	oldSet := make(map[string][]string, len(oldCycles))
	for _, c := range oldCycles {
		oldSet[key(c)] = c
	}
	newSet := make(map[string][]string, len(newCycles))
	for _, c := range newCycles {
		newSet[key(c)] = c
	}

	for k, c := range newSet {
		if _, ok := oldSet[k]; !ok {
			added = append(added, c)
		}
	}
	for k, c := range oldSet {
		if _, ok := newSet[k]; !ok {
			removed = append(removed, c)
		}
	}

	sort.Slice(added, func(i, j int) bool { return key(added[i]) < key(added[j]) })
	sort.Slice(removed, func(i, j int) bool { return key(removed[i]) < key(removed[j]) })
	return added, removed
}

func diffStrings(old, new []string) (added, removed []string) {
	oldSet := make(map[string]bool, len(old))
	for _, s := range old {
		oldSet[s] = true
	}
	newSet := make(map[string]bool, len(new))
	for _, s := range new {
		newSet[s] = true
	}

	for s := range newSet {
		if !oldSet[s] {
			added = append(added, s)
		}
	}
	for s := range oldSet {
		if !newSet[s] {
			removed = append(removed, s)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// FormatDiff returns a human-readable rendering of the diff.
func FormatDiff(d *StructuralDiff) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Diff: %s -> %s\n", d.OldID, d.NewID))
	if d.OldTag != "" || d.NewTag != "" {
		sb.WriteString(fmt.Sprintf("Tags: %s -> %s\n", d.OldTag, d.NewTag))
	}
	sb.WriteString(fmt.Sprintf("Modules: +%d -%d ~%d   Edges: +%d -%d\n",
		d.Summary.ModulesAdded, d.Summary.ModulesRemoved, d.Summary.ModulesChanged,
		d.Summary.EdgesAdded, d.Summary.EdgesRemoved))

	for _, md := range d.Modules {
		icon := "~"
		switch md.Type {
		case DiffAdded:
			icon = "+"
		case DiffRemoved:
			icon = "-"
		}
		sb.WriteString(fmt.Sprintf("  %s %s", icon, md.Path))
		if md.Type == DiffChanged && md.LinesDelta != 0 {
			sb.WriteString(fmt.Sprintf(" (%+d lines)", md.LinesDelta))
		}
		sb.WriteString("\n")
	}

	if len(d.NewCycles) > 0 {
		sb.WriteString("\nNew cycles:\n")
		for _, c := range d.NewCycles {
			sb.WriteString(fmt.Sprintf("  %s\n", strings.Join(c, " -> ")))
		}
	}
	if len(d.ResolvedCycles) > 0 {
		sb.WriteString("\nResolved cycles:\n")
		for _, c := range d.ResolvedCycles {
			sb.WriteString(fmt.Sprintf("  %s\n", strings.Join(c, " -> ")))
		}
	}
	if len(d.NewDead) > 0 {
		sb.WriteString(fmt.Sprintf("\nNewly unreachable: %s\n", strings.Join(d.NewDead, ", ")))
	}
	if len(d.ResolvedDead) > 0 {
		sb.WriteString(fmt.Sprintf("Reconnected: %s\n", strings.Join(d.ResolvedDead, ", ")))
	}

	if d.Summary.Worse {
		sb.WriteString("\nStructure got worse relative to the baseline.\n")
	}

	return sb.String()
}
