package analysis

import (
	"github.com/mertakgul/depscope/internal/depgraph"
)

// Options configures one analysis run.
type Options struct {
	Thresholds Thresholds
	// MaxDepth bounds reported cycle length on pathological graphs.
	// Zero means unbounded.
	MaxDepth int
}

// Run executes every analysis over one immutable snapshot. Analyses are
// independent: a caveat in one (no entry points, say) never blocks
// another, and nothing here is fatal.
func Run(g *depgraph.Graph, opts Options) *Result {
	result := &Result{}
	diagnostics := &Report{Kind: KindDiagnostics}

	for _, note := range g.Notes {
		diagnostics.Records = append(diagnostics.Records, Record{
			Module: note.Path,
			Line:   note.Line,
			Detail: note.Message,
		})
	}

	empty := len(g.InternalNodes()) == 0
	if empty {
		diagnostics.Records = append(diagnostics.Records, Record{
			Detail: "no source files discovered; nothing to analyze",
		})
	}

	cycles := &Report{Kind: KindCycles}
	dead := &Report{Kind: KindDeadCode}
	oversized := &Report{Kind: KindOversized}
	suggestions := &Report{Kind: KindSuggestions}
	dynamic := &Report{Kind: KindDynamic}

	if !empty {
		cycles.Records = DetectCycles(g, opts.MaxDepth)

		deadRecords, diag := DetectDead(g)
		if diag != nil {
			dead.Skipped = true
			diagnostics.Records = append(diagnostics.Records, *diag)
		} else {
			dead.Records = deadRecords
		}

		oversized.Records = Oversized(g, opts.Thresholds)
		suggestions.Records = Suggest(g, opts.Thresholds)
		dynamic.Records = DynamicWarnings(g)
	}

	result.Reports = []*Report{cycles, dead, oversized, suggestions, dynamic, diagnostics}
	return result
}
