package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// AnalysisRequest holds the workflow parameters for one project analysis.
type AnalysisRequest struct {
	Root string
	// Project is the graph-store project key. Empty disables persistence.
	Project string
	// SnapshotDir is where to record a baseline snapshot. Empty disables it.
	SnapshotDir string
}

// AnalysisReport is the workflow result.
type AnalysisReport struct {
	Root        string
	Modules     int
	Edges       int
	Cycles      int
	DeadModules int
	Findings    int
	SnapshotID  string
}

// AnalyzeWorkflow runs the scan-to-analysis pipeline as one activity, then
// optionally persists the graph and records a baseline snapshot. The heavy
// stage runs in a single activity because every analysis reads the same
// immutable graph; splitting it would only serialize the graph twice more.
func AnalyzeWorkflow(ctx workflow.Context, req AnalysisRequest) (*AnalysisReport, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var analyzed AnalyzeResult
	if err := workflow.ExecuteActivity(ctx, AnalyzeActivity, req).Get(ctx, &analyzed); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	report := &AnalysisReport{
		Root:        analyzed.Root,
		Modules:     analyzed.Modules,
		Edges:       analyzed.Edges,
		Cycles:      analyzed.Cycles,
		DeadModules: analyzed.DeadModules,
		Findings:    analyzed.Findings,
	}

	if req.Project != "" {
		if err := workflow.ExecuteActivity(ctx, StoreGraphActivity, StoreRequest{
			Project:   req.Project,
			GraphJSON: analyzed.GraphJSON,
		}).Get(ctx, nil); err != nil {
			return nil, fmt.Errorf("store graph: %w", err)
		}
	}

	if req.SnapshotDir != "" {
		var snapID string
		if err := workflow.ExecuteActivity(ctx, SnapshotActivity, SnapshotRequest{
			Root:       analyzed.Root,
			Dir:        req.SnapshotDir,
			GraphJSON:  analyzed.GraphJSON,
			ResultJSON: analyzed.ResultJSON,
		}).Get(ctx, &snapID); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		report.SnapshotID = snapID
	}

	return report, nil
}
