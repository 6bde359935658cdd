// Package pipeline wires the analysis stages into one run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mertakgul/depscope/internal/analysis"
	"github.com/mertakgul/depscope/internal/config"
	"github.com/mertakgul/depscope/internal/depgraph"
	"github.com/mertakgul/depscope/internal/ir"
	"github.com/mertakgul/depscope/internal/observability"
	"github.com/mertakgul/depscope/internal/plugins"
	"github.com/mertakgul/depscope/internal/plugins/source/python"
	"github.com/mertakgul/depscope/internal/resolve"
	"github.com/mertakgul/depscope/internal/scanner"
)

// Outcome carries everything one run produced. It is rebuilt per run;
// nothing survives into the next one.
type Outcome struct {
	Root      string                   `json:"root"`
	Files     []plugins.SourceFile     `json:"-"`
	Scan      *ir.ScanResult           `json:"scan"`
	Graph     *depgraph.Graph          `json:"graph"`
	Result    *analysis.Result         `json:"result"`
	Durations map[string]time.Duration `json:"durations"`
}

// Runner executes the scan, extract, build, and analyze stages.
type Runner struct {
	cfg      *config.Config
	log      *logrus.Logger
	metrics  *observability.PipelineMetrics
	registry *plugins.Registry
}

// New creates a Runner with the Python plugin registered.
func New(cfg *config.Config, log *logrus.Logger) *Runner {
	registry := plugins.NewRegistry()
	registry.RegisterSource(python.New())

	return &Runner{
		cfg:      cfg,
		log:      log,
		metrics:  observability.Metrics(),
		registry: registry,
	}
}

// Registry exposes the plugin registry.
func (r *Runner) Registry() *plugins.Registry { return r.registry }

// Run executes the full pipeline over one project root. The graph builder
// only starts once every extraction result has been collected; from there
// each analysis reads the same immutable snapshot.
func (r *Runner) Run(ctx context.Context, root string) (*Outcome, error) {
	r.metrics.RunsTotal.Inc()
	outcome := &Outcome{Durations: make(map[string]time.Duration)}

	src, err := r.registry.Source("python")
	if err != nil {
		return nil, err
	}

	// Scan
	start := time.Now()
	ctx, span := observability.StartStageSpan(ctx, observability.StageScan)
	sc, err := scanner.New(root, scanner.Options{
		ExcludeDirs: r.cfg.Scan.ExcludeDirs,
		Workers:     r.cfg.Scan.Workers,
	})
	if err != nil {
		observability.RecordError(span, err)
		span.End()
		return nil, fmt.Errorf("scanner: %w", err)
	}
	outcome.Root = sc.Root()

	files, err := sc.Scan(ctx, src)
	if err != nil {
		observability.RecordError(span, err)
		span.End()
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	outcome.Files = files
	unreadable := 0
	for _, f := range files {
		if f.ReadError != "" {
			unreadable++
		}
	}
	observability.RecordScanResult(span, len(files), unreadable)
	span.End()
	outcome.Durations["scan"] = time.Since(start)
	r.metrics.ScanDuration.ObserveDuration(start)
	r.metrics.FilesScanned.Add(float64(len(files)))
	r.log.WithFields(logrus.Fields{
		"root":       outcome.Root,
		"files":      len(files),
		"unreadable": unreadable,
	}).Info("scan complete")

	// Extract
	start = time.Now()
	ctx, span = observability.StartStageSpan(ctx, observability.StageExtract)
	scan, err := src.Extract(ctx, files)
	if err != nil {
		observability.RecordError(span, err)
		span.End()
		return nil, fmt.Errorf("extracting imports: %w", err)
	}
	outcome.Scan = scan
	imports, dynamicCalls, unparsable := 0, 0, 0
	for _, f := range scan.Files {
		imports += len(f.Imports)
		dynamicCalls += len(f.DynamicCalls)
		if f.Unparsable {
			unparsable++
		}
	}
	observability.RecordExtractResult(span, imports, dynamicCalls, unparsable)
	span.End()
	outcome.Durations["extract"] = time.Since(start)
	r.metrics.ExtractDuration.ObserveDuration(start)
	r.metrics.ParseFailures.Add(float64(unparsable))
	r.log.WithFields(logrus.Fields{
		"imports":       imports,
		"dynamic_calls": dynamicCalls,
		"unparsable":    unparsable,
	}).Info("extraction complete")

	// Build
	start = time.Now()
	ctx, span = observability.StartStageSpan(ctx, observability.StageBuild)
	paths := make([]string, 0, len(scan.Files))
	for _, f := range scan.Files {
		paths = append(paths, f.Path)
	}
	graph := depgraph.Build(depgraph.BuildInput{
		Files:    scan.Files,
		Resolver: resolve.New(paths, r.cfg.Scan.SourceRoots),
		EntryPoints: depgraph.EntryPointConfig{
			Explicit: r.cfg.Analysis.EntryPoints,
			Patterns: r.cfg.Analysis.EntryPatterns,
		},
	})
	outcome.Graph = graph
	observability.RecordGraphResult(span, graph.Stats.TotalNodes, graph.Stats.TotalEdges, graph.Stats.ConnectedComponents)
	span.End()
	outcome.Durations["build"] = time.Since(start)
	r.metrics.BuildDuration.ObserveDuration(start)
	r.metrics.GraphNodes.Set(float64(graph.Stats.TotalNodes))
	r.metrics.GraphEdges.Set(float64(graph.Stats.TotalEdges))

	// Analyze
	start = time.Now()
	_, span = observability.StartStageSpan(ctx, observability.StageAnalyze)
	result := analysis.Run(graph, analysis.Options{
		Thresholds: analysis.Thresholds{
			MaxLines:     r.cfg.Analysis.MaxLines,
			MaxClasses:   r.cfg.Analysis.MaxClasses,
			MaxFunctions: r.cfg.Analysis.MaxFunctions,
		},
		MaxDepth: r.cfg.Analysis.MaxDepth,
	})
	outcome.Result = result
	cycles := len(result.Report(analysis.KindCycles).Records)
	dead := len(result.Report(analysis.KindDeadCode).Records)
	observability.RecordAnalysisResult(span,
		cycles,
		dead,
		len(result.Report(analysis.KindOversized).Records),
		len(result.Report(analysis.KindSuggestions).Records),
		len(result.Report(analysis.KindDynamic).Records),
	)
	span.End()
	outcome.Durations["analyze"] = time.Since(start)
	r.metrics.AnalysisDuration.ObserveDuration(start)
	r.metrics.CyclesFound.Add(float64(cycles))
	r.metrics.DeadModules.Add(float64(dead))
	r.log.WithField("findings", result.Findings()).Info("analysis complete")

	return outcome, nil
}
