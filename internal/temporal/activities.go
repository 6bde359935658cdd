// Package temporal runs project analyses as durable workflows so large
// trees survive worker restarts and can be fanned out across machines.
package temporal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mertakgul/depscope/internal/analysis"
	"github.com/mertakgul/depscope/internal/config"
	"github.com/mertakgul/depscope/internal/depgraph"
	"github.com/mertakgul/depscope/internal/graphstore"
	"github.com/mertakgul/depscope/internal/pipeline"
	"github.com/mertakgul/depscope/internal/snapshot"
)

// AnalyzeResult is the serializable output of the analysis activity. The
// graph and report travel as JSON so Temporal can replay the workflow
// without re-scanning the tree.
type AnalyzeResult struct {
	Root        string
	Modules     int
	Edges       int
	Cycles      int
	DeadModules int
	Findings    int
	GraphJSON   string
	ResultJSON  string
}

// StoreRequest asks for one graph to be persisted under a project key.
type StoreRequest struct {
	Project   string
	GraphJSON string
}

// SnapshotRequest asks for a baseline snapshot to be written.
type SnapshotRequest struct {
	Root       string
	Dir        string
	GraphJSON  string
	ResultJSON string
}

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Config *config.Config
	Log    *logrus.Logger
	Store  graphstore.Repository // nil when no graph store is configured
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

// graphParts is the wire form of a graph: nodes and edges only. Indexes
// and stats are rebuilt on load.
type graphParts struct {
	Nodes []*depgraph.Node `json:"nodes"`
	Edges []*depgraph.Edge `json:"edges"`
}

func encodeGraph(g *depgraph.Graph) (string, error) {
	data, err := json.Marshal(graphParts{Nodes: g.Nodes, Edges: g.Edges})
	if err != nil {
		return "", fmt.Errorf("marshal graph: %w", err)
	}
	return string(data), nil
}

func decodeGraph(raw string) (*depgraph.Graph, error) {
	var parts graphParts
	if err := json.Unmarshal([]byte(raw), &parts); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	return depgraph.FromParts(parts.Nodes, parts.Edges), nil
}

func AnalyzeActivity(ctx context.Context, req AnalysisRequest) (AnalyzeResult, error) {
	runner := pipeline.New(deps.Config, deps.Log)
	outcome, err := runner.Run(ctx, req.Root)
	if err != nil {
		return AnalyzeResult{}, err
	}

	graphJSON, err := encodeGraph(outcome.Graph)
	if err != nil {
		return AnalyzeResult{}, err
	}
	resultJSON, err := json.Marshal(outcome.Result)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("marshal result: %w", err)
	}

	return AnalyzeResult{
		Root:        outcome.Root,
		Modules:     outcome.Graph.Stats.TotalNodes,
		Edges:       outcome.Graph.Stats.TotalEdges,
		Cycles:      len(outcome.Result.Report(analysis.KindCycles).Records),
		DeadModules: len(outcome.Result.Report(analysis.KindDeadCode).Records),
		Findings:    outcome.Result.Findings(),
		GraphJSON:   graphJSON,
		ResultJSON:  string(resultJSON),
	}, nil
}

func StoreGraphActivity(ctx context.Context, req StoreRequest) error {
	if deps.Store == nil {
		return fmt.Errorf("no graph store configured")
	}

	g, err := decodeGraph(req.GraphJSON)
	if err != nil {
		return err
	}
	return deps.Store.StoreSnapshot(ctx, req.Project, g)
}

func SnapshotActivity(ctx context.Context, req SnapshotRequest) (string, error) {
	g, err := decodeGraph(req.GraphJSON)
	if err != nil {
		return "", err
	}
	var result analysis.Result
	if err := json.Unmarshal([]byte(req.ResultJSON), &result); err != nil {
		return "", fmt.Errorf("unmarshal result: %w", err)
	}

	store, err := snapshot.NewStore(req.Dir)
	if err != nil {
		return "", err
	}
	snap := snapshot.New(req.Root, g, &result, nil)
	if err := store.Save(snap); err != nil {
		return "", err
	}
	return snap.ID, nil
}
