// Package metrics collects per-run statistics for the CLI report.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mertakgul/depscope/internal/analysis"
	"github.com/mertakgul/depscope/internal/depgraph"
	"github.com/mertakgul/depscope/internal/ir"
)

// RunMetrics collects statistics for a full analysis run.
type RunMetrics struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Duration   time.Duration  `json:"duration_ms,omitempty"`
	Scan       ScanMetrics    `json:"scan"`
	Graph      GraphMetrics   `json:"graph"`
	Stages     []StageMetrics `json:"stages"`
	Findings   FindingCounts  `json:"findings"`
}

type ScanMetrics struct {
	FileCount    int `json:"file_count"`
	TotalLines   int `json:"total_lines"`
	ImportCount  int `json:"import_count"`
	DynamicCalls int `json:"dynamic_calls"`
	Unparsable   int `json:"unparsable"`
}

type GraphMetrics struct {
	Modules       int    `json:"modules"`
	Edges         int    `json:"edges"`
	InternalEdges int    `json:"internal_edges"`
	ExternalEdges int    `json:"external_edges"`
	DynamicEdges  int    `json:"dynamic_edges"`
	Components    int    `json:"components"`
	Hotspot       string `json:"hotspot,omitempty"`
}

type StageMetrics struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ms"`
}

type FindingCounts struct {
	Cycles          int `json:"cycles"`
	DeadModules     int `json:"dead_modules"`
	Oversized       int `json:"oversized"`
	Suggestions     int `json:"suggestions"`
	DynamicWarnings int `json:"dynamic_warnings"`
	Diagnostics     int `json:"diagnostics"`
}

// New starts tracking an analysis run.
func New() *RunMetrics {
	return &RunMetrics{StartedAt: time.Now()}
}

// CollectScan computes scan-side metrics from the extraction result.
func (m *RunMetrics) CollectScan(scan *ir.ScanResult) {
	m.Scan.FileCount = len(scan.Files)
	for _, f := range scan.Files {
		m.Scan.TotalLines += f.Lines
		m.Scan.ImportCount += len(f.Imports)
		m.Scan.DynamicCalls += len(f.DynamicCalls)
		if f.Unparsable {
			m.Scan.Unparsable++
		}
	}
}

// CollectGraph computes graph-side metrics.
func (m *RunMetrics) CollectGraph(g *depgraph.Graph) {
	m.Graph.Modules = g.Stats.TotalNodes
	m.Graph.Edges = g.Stats.TotalEdges
	m.Graph.InternalEdges = g.Stats.InternalEdges
	m.Graph.ExternalEdges = g.Stats.ExternalEdges
	m.Graph.DynamicEdges = g.Stats.DynamicEdges
	m.Graph.Components = g.Stats.ConnectedComponents
	m.Graph.Hotspot = g.Stats.HotspotNode
}

// CollectFindings tallies findings per analysis.
func (m *RunMetrics) CollectFindings(result *analysis.Result) {
	count := func(kind analysis.ReportKind) int {
		if rep := result.Report(kind); rep != nil {
			return len(rep.Records)
		}
		return 0
	}
	m.Findings.Cycles = count(analysis.KindCycles)
	m.Findings.DeadModules = count(analysis.KindDeadCode)
	m.Findings.Oversized = count(analysis.KindOversized)
	m.Findings.Suggestions = count(analysis.KindSuggestions)
	m.Findings.DynamicWarnings = count(analysis.KindDynamic)
	m.Findings.Diagnostics = count(analysis.KindDiagnostics)
}

// AddStage records a single stage's timing.
func (m *RunMetrics) AddStage(name string, d time.Duration) {
	m.Stages = append(m.Stages, StageMetrics{Name: name, Duration: d})
}

// Finish marks the run as complete.
func (m *RunMetrics) Finish() {
	m.FinishedAt = time.Now()
	m.Duration = m.FinishedAt.Sub(m.StartedAt)
}

// PrintSummary writes a human-readable summary.
func (m *RunMetrics) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║       DEPSCOPE ANALYSIS REPORT       ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Duration:    %-23s ║\n", m.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ SOURCE\n")
	fmt.Fprintf(w, "║   Files:        %d\n", m.Scan.FileCount)
	fmt.Fprintf(w, "║   Lines:        %d\n", m.Scan.TotalLines)
	fmt.Fprintf(w, "║   Imports:      %d\n", m.Scan.ImportCount)
	fmt.Fprintf(w, "║   Dynamic:      %d\n", m.Scan.DynamicCalls)
	fmt.Fprintf(w, "║   Unparsable:   %d\n", m.Scan.Unparsable)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ GRAPH\n")
	fmt.Fprintf(w, "║   Modules:      %d\n", m.Graph.Modules)
	fmt.Fprintf(w, "║   Edges:        %d (internal %d, external %d, dynamic %d)\n",
		m.Graph.Edges, m.Graph.InternalEdges, m.Graph.ExternalEdges, m.Graph.DynamicEdges)
	fmt.Fprintf(w, "║   Components:   %d\n", m.Graph.Components)
	if m.Graph.Hotspot != "" {
		fmt.Fprintf(w, "║   Hotspot:      %s\n", m.Graph.Hotspot)
	}
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ FINDINGS\n")
	fmt.Fprintf(w, "║   Cycles:       %d\n", m.Findings.Cycles)
	fmt.Fprintf(w, "║   Dead:         %d\n", m.Findings.DeadModules)
	fmt.Fprintf(w, "║   Oversized:    %d\n", m.Findings.Oversized)
	fmt.Fprintf(w, "║   Suggestions:  %d\n", m.Findings.Suggestions)
	fmt.Fprintf(w, "║   Dynamic:      %d\n", m.Findings.DynamicWarnings)
	fmt.Fprintf(w, "║   Diagnostics:  %d\n", m.Findings.Diagnostics)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ STAGES\n")
	for _, s := range m.Stages {
		fmt.Fprintf(w, "║   %-12s %8s\n", s.Name, s.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

// JSON returns the metrics as formatted JSON.
func (m *RunMetrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
