package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/mertakgul/depscope/internal/analysis"
	"github.com/mertakgul/depscope/internal/config"
	"github.com/mertakgul/depscope/internal/depgraph"
	neo4jstore "github.com/mertakgul/depscope/internal/graphstore/neo4j"
	"github.com/mertakgul/depscope/internal/logging"
	"github.com/mertakgul/depscope/internal/metrics"
	"github.com/mertakgul/depscope/internal/observability"
	"github.com/mertakgul/depscope/internal/pipeline"
	"github.com/mertakgul/depscope/internal/snapshot"
	temporalmod "github.com/mertakgul/depscope/internal/temporal"
)

const version = "0.1.0"

func main() {
	var (
		configPath  string
		format      string
		jsonMetrics bool
		entryPoints []string
		project     string
		store       bool
		snapshotDir string
		snapTag     string
		diffAgainst string
	)

	rootCmd := &cobra.Command{
		Use:   "depscope",
		Short: "Static dependency analyzer for Python source trees",
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Scan a source tree and report on its dependency structure",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return runAnalyze(analyzeOptions{
				ConfigPath:  configPath,
				Root:        root,
				Format:      format,
				JSONMetrics: jsonMetrics,
				EntryPoints: entryPoints,
				Project:     project,
				Store:       store,
				SnapshotDir: snapshotDir,
				Tag:         snapTag,
				DiffAgainst: diffAgainst,
			})
		},
	}
	analyzeCmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	analyzeCmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, dot, mermaid")
	analyzeCmd.Flags().BoolVar(&jsonMetrics, "json", false, "Output run metrics as JSON")
	analyzeCmd.Flags().StringSliceVar(&entryPoints, "entry", nil, "Explicit entry-point files (root-relative)")
	analyzeCmd.Flags().StringVar(&project, "project", "", "Project key for graph-store persistence")
	analyzeCmd.Flags().BoolVar(&store, "store", false, "Persist the graph to the configured graph store")
	analyzeCmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Record a baseline snapshot in this directory")
	analyzeCmd.Flags().StringVar(&snapTag, "tag", "", "Tag for the recorded snapshot")
	analyzeCmd.Flags().StringVar(&diffAgainst, "diff", "", "Diff against a baseline: a snapshot ID, tag, or 'latest'")

	// Snapshot commands
	var snapshotStoreDir string

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Baseline snapshot operations",
	}
	snapshotCmd.PersistentFlags().StringVar(&snapshotStoreDir, "dir", ".depscope", "Snapshot store directory")

	snapshotListCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSnapshots(snapshotStoreDir)
		},
	}

	snapshotDiffCmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Diff two snapshots by ID, tag, or 'latest'",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return diffSnapshots(snapshotStoreDir, args[0], args[1])
		},
	}

	snapshotTagCmd := &cobra.Command{
		Use:   "tag <id> <tag>",
		Short: "Assign a tag to a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := snapshot.NewStore(snapshotStoreDir)
			if err != nil {
				return err
			}
			return st.Tag(args[0], args[1])
		},
	}

	snapshotDeleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := snapshot.NewStore(snapshotStoreDir)
			if err != nil {
				return err
			}
			return st.Delete(args[0])
		},
	}

	snapshotCmd.AddCommand(snapshotListCmd, snapshotDiffCmd, snapshotTagCmd, snapshotDeleteCmd)

	// Graph store query
	var (
		importersProject string
		importersModule  string
	)
	importersCmd := &cobra.Command{
		Use:   "importers",
		Short: "List modules importing a given module from the graph store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return queryImporters(configPath, importersProject, importersModule)
		},
	}
	importersCmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	importersCmd.Flags().StringVar(&importersProject, "project", "", "Project key")
	importersCmd.Flags().StringVar(&importersModule, "module", "", "Module ID, e.g. a/b.py")
	_ = importersCmd.MarkFlagRequired("project")
	_ = importersCmd.MarkFlagRequired("module")

	// Workflow submission
	var (
		wfRoot        string
		wfProject     string
		wfSnapshotDir string
	)
	workflowCmd := &cobra.Command{
		Use:   "workflow",
		Short: "Submit an analysis to the Temporal worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitWorkflow(configPath, wfRoot, wfProject, wfSnapshotDir)
		},
	}
	workflowCmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	workflowCmd.Flags().StringVar(&wfRoot, "root", "", "Project root to analyze")
	workflowCmd.Flags().StringVar(&wfProject, "project", "", "Project key for graph-store persistence")
	workflowCmd.Flags().StringVar(&wfSnapshotDir, "snapshot-dir", "", "Snapshot store directory on the worker")
	_ = workflowCmd.MarkFlagRequired("root")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("depscope " + version)
		},
	}

	rootCmd.AddCommand(analyzeCmd, snapshotCmd, importersCmd, workflowCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type analyzeOptions struct {
	ConfigPath  string
	Root        string
	Format      string
	JSONMetrics bool
	EntryPoints []string
	Project     string
	Store       bool
	SnapshotDir string
	Tag         string
	DiffAgainst string
}

func runAnalyze(opts analyzeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		cfg = config.Default()
	}
	if len(opts.EntryPoints) > 0 {
		cfg.Analysis.EntryPoints = opts.EntryPoints
	}

	log := logging.New(cfg.Log)
	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "depscope",
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	m := metrics.New()

	runner := pipeline.New(cfg, log)
	outcome, err := runner.Run(ctx, opts.Root)
	if err != nil {
		return err
	}

	m.CollectScan(outcome.Scan)
	m.CollectGraph(outcome.Graph)
	m.CollectFindings(outcome.Result)
	for _, stage := range []string{"scan", "extract", "build", "analyze"} {
		m.AddStage(stage, outcome.Durations[stage])
	}
	m.Finish()

	switch opts.Format {
	case "text", "":
		printFindings(outcome.Result)
		if opts.JSONMetrics {
			data, _ := m.JSON()
			fmt.Println(string(data))
		} else {
			m.PrintSummary(os.Stdout)
		}
	case "json":
		out := struct {
			Root    string              `json:"root"`
			Stats   depgraph.GraphStats `json:"stats"`
			Reports []*analysis.Report  `json:"reports"`
		}{outcome.Root, outcome.Graph.Stats, outcome.Result.Reports}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		fmt.Println(string(data))
	case "dot":
		fmt.Print(depgraph.ExportDOT(outcome.Graph, reportedCycles(outcome.Result)))
	case "mermaid":
		fmt.Print(depgraph.ExportMermaid(outcome.Graph))
	default:
		return fmt.Errorf("unknown format %q (want text, json, dot, or mermaid)", opts.Format)
	}

	if opts.Store {
		if err := persistGraph(ctx, cfg, opts.Project, outcome.Graph); err != nil {
			return err
		}
	}

	if opts.SnapshotDir != "" || opts.DiffAgainst != "" {
		dir := opts.SnapshotDir
		if dir == "" {
			dir = ".depscope"
		}
		if err := recordSnapshot(dir, opts, outcome); err != nil {
			return err
		}
	}

	return nil
}

func reportedCycles(result *analysis.Result) [][]string {
	var cycles [][]string
	if rep := result.Report(analysis.KindCycles); rep != nil {
		for _, rec := range rep.Records {
			if len(rec.Cycle) > 0 {
				cycles = append(cycles, rec.Cycle)
			}
		}
	}
	return cycles
}

func printFindings(result *analysis.Result) {
	sections := []struct {
		kind  analysis.ReportKind
		title string
	}{
		{analysis.KindCycles, "Circular dependencies"},
		{analysis.KindDeadCode, "Unreachable modules"},
		{analysis.KindOversized, "Oversized modules"},
		{analysis.KindSuggestions, "Split suggestions"},
		{analysis.KindDynamic, "Dynamic imports"},
		{analysis.KindDiagnostics, "Diagnostics"},
	}

	for _, section := range sections {
		rep := result.Report(section.kind)
		if rep == nil || (len(rep.Records) == 0 && !rep.Skipped) {
			continue
		}
		fmt.Printf("\n=== %s ===\n", section.title)
		if rep.Skipped {
			fmt.Println("  (skipped)")
		}
		for _, rec := range rep.Records {
			printRecord(rec)
		}
		if len(rep.Records) == 0 && !rep.Skipped {
			fmt.Println("  none")
		}
	}
}

func printRecord(rec analysis.Record) {
	switch {
	case len(rec.Cycle) > 0:
		fmt.Print("  ")
		for i, m := range rec.Cycle {
			if i > 0 {
				fmt.Print(" -> ")
			}
			fmt.Print(m)
		}
		fmt.Printf(" -> %s\n", rec.Cycle[0])
	case rec.Suggestion != "":
		fmt.Printf("  %s: %s\n", rec.Module, rec.Suggestion)
	case rec.Lines > 0 && rec.Threshold > 0:
		fmt.Printf("  %s: %d lines (threshold %d)\n", rec.Module, rec.Lines, rec.Threshold)
	case rec.Module != "" && rec.Detail != "":
		if rec.Line > 0 {
			fmt.Printf("  %s:%d: %s\n", rec.Module, rec.Line, rec.Detail)
		} else {
			fmt.Printf("  %s: %s\n", rec.Module, rec.Detail)
		}
	case rec.Module != "":
		fmt.Printf("  %s\n", rec.Module)
	default:
		fmt.Printf("  %s\n", rec.Detail)
	}
}

func persistGraph(ctx context.Context, cfg *config.Config, project string, g *depgraph.Graph) error {
	if cfg.Graph.URI == "" {
		return fmt.Errorf("--store requires a configured graph store uri")
	}
	if project == "" {
		return fmt.Errorf("--store requires --project")
	}

	repo, err := neo4jstore.New(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
	if err != nil {
		return fmt.Errorf("graph store: %w", err)
	}
	defer repo.Close(ctx)

	if err := repo.StoreSnapshot(ctx, project, g); err != nil {
		return fmt.Errorf("store graph: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Graph stored under project %q\n", project)
	return nil
}

func recordSnapshot(dir string, opts analyzeOptions, outcome *pipeline.Outcome) error {
	st, err := snapshot.NewStore(dir)
	if err != nil {
		return err
	}

	fingerprints := snapshot.ComputeFingerprints(outcome.Files, outcome.Graph.Fingerprintable())
	snap := snapshot.New(outcome.Root, outcome.Graph, outcome.Result, fingerprints)
	if opts.Tag != "" {
		snap.Tag = opts.Tag
	}

	if opts.DiffAgainst != "" {
		baseline, err := resolveSnapshot(st, opts.DiffAgainst)
		if err != nil {
			return err
		}
		if baseline != nil {
			fmt.Print(snapshot.FormatDiff(snapshot.Diff(baseline, snap)))
		} else {
			fmt.Fprintln(os.Stderr, "No baseline snapshot found, skipping diff")
		}
	}

	if err := st.Save(snap); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Snapshot %s saved to %s\n", snap.ID, dir)
	return nil
}

func resolveSnapshot(st *snapshot.Store, ref string) (*snapshot.Snapshot, error) {
	if ref == "latest" {
		return st.Latest()
	}
	if snap, err := st.Load(ref); err == nil {
		return snap, nil
	}
	return st.FindByTag(ref)
}

func listSnapshots(dir string) error {
	st, err := snapshot.NewStore(dir)
	if err != nil {
		return err
	}

	summaries := st.List()
	if len(summaries) == 0 {
		fmt.Println("No snapshots recorded.")
		return nil
	}

	fmt.Printf("%-18s %-12s %-20s %8s %9s\n", "ID", "TAG", "CREATED", "MODULES", "FINDINGS")
	for _, s := range summaries {
		fmt.Printf("%-18s %-12s %-20s %8d %9d\n",
			s.ID, s.Tag, s.CreatedAt.Format("2006-01-02 15:04:05"), s.ModuleCount, s.Findings)
	}
	return nil
}

func diffSnapshots(dir, oldRef, newRef string) error {
	st, err := snapshot.NewStore(dir)
	if err != nil {
		return err
	}

	oldSnap, err := resolveSnapshot(st, oldRef)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", oldRef, err)
	}
	newSnap, err := resolveSnapshot(st, newRef)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", newRef, err)
	}
	if oldSnap == nil || newSnap == nil {
		return fmt.Errorf("snapshot not found")
	}

	d := snapshot.Diff(oldSnap, newSnap)
	fmt.Print(snapshot.FormatDiff(d))

	if d.Summary.Worse {
		return fmt.Errorf("structure regressed against %s", oldRef)
	}
	return nil
}

func queryImporters(configPath, project, module string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Graph.URI == "" {
		return fmt.Errorf("no graph store uri configured")
	}

	ctx := context.Background()
	repo, err := neo4jstore.New(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
	if err != nil {
		return fmt.Errorf("graph store: %w", err)
	}
	defer repo.Close(ctx)

	importers, err := repo.QueryImporters(ctx, project, module)
	if err != nil {
		return err
	}
	if len(importers) == 0 {
		fmt.Printf("Nothing imports %s\n", module)
		return nil
	}
	for _, imp := range importers {
		fmt.Println(imp)
	}
	return nil
}

func submitWorkflow(configPath, root, project, snapshotDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	ctx := context.Background()
	run, err := c.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		TaskQueue: cfg.Temporal.TaskQueue,
	}, temporalmod.AnalyzeWorkflow, temporalmod.AnalysisRequest{
		Root:        root,
		Project:     project,
		SnapshotDir: snapshotDir,
	})
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	fmt.Printf("Workflow started: %s\n", run.GetID())

	var report temporalmod.AnalysisReport
	if err := run.Get(ctx, &report); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}

	fmt.Printf("Analyzed %s: %d modules, %d edges\n", report.Root, report.Modules, report.Edges)
	fmt.Printf("  Cycles: %d  Dead: %d  Findings: %d\n", report.Cycles, report.DeadModules, report.Findings)
	if report.SnapshotID != "" {
		fmt.Printf("  Snapshot: %s\n", report.SnapshotID)
	}
	return nil
}
