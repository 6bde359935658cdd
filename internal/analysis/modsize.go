package analysis

import (
	"fmt"

	"github.com/mertakgul/depscope/internal/depgraph"
)

// Thresholds configures the size and split analyses. Zero values fall back
// to the documented defaults.
type Thresholds struct {
	// MaxLines is the strict upper bound before a module counts as
	// oversized. A module at exactly MaxLines is fine.
	MaxLines int
	// MaxClasses triggers the split-by-class-groups suggestion.
	MaxClasses int
	// MaxFunctions triggers the utility-split suggestion.
	MaxFunctions int
}

const (
	defaultMaxLines     = 500
	defaultMaxClasses   = 5
	defaultMaxFunctions = 20
)

func (t Thresholds) withDefaults() Thresholds {
	if t.MaxLines <= 0 {
		t.MaxLines = defaultMaxLines
	}
	if t.MaxClasses <= 0 {
		t.MaxClasses = defaultMaxClasses
	}
	if t.MaxFunctions <= 0 {
		t.MaxFunctions = defaultMaxFunctions
	}
	return t
}

// Oversized classifies each module against the line threshold. Strictly
// greater than: a 500-line module against threshold 500 passes. The
// complexity signal rides along for the split suggester and reporting.
func Oversized(g *depgraph.Graph, t Thresholds) []Record {
	t = t.withDefaults()

	var records []Record
	for _, n := range g.InternalNodes() {
		if n.Lines <= t.MaxLines {
			continue
		}
		records = append(records, Record{
			Module:    n.ID,
			Lines:     n.Lines,
			Threshold: t.MaxLines,
			Detail: fmt.Sprintf("%s has %d lines (threshold %d, complexity %d)",
				n.ID, n.Lines, t.MaxLines, n.Complexity()),
		})
	}
	return records
}
