// Package analysis runs the structural analyses over one graph snapshot.
package analysis

// ReportKind identifies one analysis report.
type ReportKind string

const (
	KindCycles      ReportKind = "cycles"
	KindDeadCode    ReportKind = "dead_code"
	KindOversized   ReportKind = "oversized"
	KindSuggestions ReportKind = "split_suggestions"
	KindDynamic     ReportKind = "dynamic_imports"
	KindDiagnostics ReportKind = "diagnostics"
)

// Record is one finding. It is a plain serializable record; fields that do
// not apply to a report kind stay at their zero value.
type Record struct {
	// Module is the root-relative path of the affected file.
	Module string `json:"module,omitempty"`
	// Detail is the human-readable explanation of the finding.
	Detail string `json:"detail"`
	Line   int    `json:"line,omitempty"`

	// Cycle lists the members of a cycle, closing element omitted.
	Cycle []string `json:"cycle,omitempty"`

	Lines     int `json:"lines,omitempty"`
	Threshold int `json:"threshold,omitempty"`

	Risk       string `json:"risk,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Report is the ordered record list of one analysis.
type Report struct {
	Kind    ReportKind `json:"kind"`
	Records []Record   `json:"records"`
	// Skipped is set when an analysis declined to run, with the reason
	// recorded in the diagnostics report.
	Skipped bool `json:"skipped,omitempty"`
}

// Result maps report kinds to their ordered records. The slice keeps a
// stable kind order so serialized results are reproducible.
type Result struct {
	Reports []*Report `json:"reports"`
}

// Report returns the report of the given kind, or nil.
func (r *Result) Report(kind ReportKind) *Report {
	for _, rep := range r.Reports {
		if rep.Kind == kind {
			return rep
		}
	}
	return nil
}

// Findings counts records across all reports except diagnostics.
func (r *Result) Findings() int {
	total := 0
	for _, rep := range r.Reports {
		if rep.Kind != KindDiagnostics {
			total += len(rep.Records)
		}
	}
	return total
}
