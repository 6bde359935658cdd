package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mertakgul/depscope/internal/depgraph"
	"github.com/mertakgul/depscope/internal/graphstore"
)

// Repository implements graphstore.Repository using Neo4j. Modules become
// (:Module) nodes scoped by project, imports become [:IMPORTS] relations.
type Repository struct {
	driver neo4j.DriverWithContext
}

// New creates a Neo4j-backed repository.
func New(ctx context.Context, uri, username, password string) (*Repository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Repository{driver: driver}, nil
}

func (r *Repository) StoreSnapshot(ctx context.Context, projectID string, g *depgraph.Graph) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	// A snapshot replaces whatever was stored before; stale edges from a
	// previous run must not survive.
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"MATCH (m:Module {project: $project}) DETACH DELETE m",
			map[string]any{"project": projectID})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("clear project %s: %w", projectID, err)
	}

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, n := range g.Nodes {
			_, err := tx.Run(ctx,
				"MERGE (m:Module {project: $project, id: $id}) "+
					"SET m.module = $module, m.lines = $lines, m.classes = $classes, "+
					"m.functions = $functions, m.entry_point = $entry, "+
					"m.unparsable = $unparsable, m.sentinel = $sentinel",
				map[string]any{
					"project":    projectID,
					"id":         n.ID,
					"module":     n.Module,
					"lines":      n.Lines,
					"classes":    n.Classes(),
					"functions":  n.Functions(),
					"entry":      n.EntryPoint,
					"unparsable": n.Unparsable,
					"sentinel":   n.Sentinel,
				})
			if err != nil {
				return nil, err
			}
		}
		for _, e := range g.Edges {
			_, err := tx.Run(ctx,
				"MATCH (a:Module {project: $project, id: $from}) "+
					"MATCH (b:Module {project: $project, id: $to}) "+
					"MERGE (a)-[r:IMPORTS]->(b) SET r.kind = $kind, r.occurrences = $count",
				map[string]any{
					"project": projectID,
					"from":    e.From,
					"to":      e.To,
					"kind":    string(e.Kind),
					"count":   len(e.Occurrences),
				})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store snapshot for %s: %w", projectID, err)
	}
	return nil
}

func (r *Repository) LoadSnapshot(ctx context.Context, projectID string) (*depgraph.Graph, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		var nodes []*depgraph.Node
		var edges []*depgraph.Edge

		records, err := tx.Run(ctx,
			"MATCH (m:Module {project: $project}) "+
				"RETURN m.id, m.module, m.lines, m.entry_point, m.unparsable, m.sentinel "+
				"ORDER BY m.id",
			map[string]any{"project": projectID})
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			id, _ := rec.Get("m.id")
			module, _ := rec.Get("m.module")
			lines, _ := rec.Get("m.lines")
			entry, _ := rec.Get("m.entry_point")
			unparsable, _ := rec.Get("m.unparsable")
			sentinel, _ := rec.Get("m.sentinel")
			nodes = append(nodes, &depgraph.Node{
				ID:         id.(string),
				Module:     module.(string),
				Lines:      int(lines.(int64)),
				EntryPoint: entry.(bool),
				Unparsable: unparsable.(bool),
				Sentinel:   sentinel.(bool),
			})
		}

		records, err = tx.Run(ctx,
			"MATCH (a:Module {project: $project})-[r:IMPORTS]->(b:Module) "+
				"RETURN a.id, b.id, r.kind ORDER BY a.id, b.id",
			map[string]any{"project": projectID})
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			from, _ := rec.Get("a.id")
			to, _ := rec.Get("b.id")
			kind, _ := rec.Get("r.kind")
			edges = append(edges, &depgraph.Edge{
				From: from.(string),
				To:   to.(string),
				Kind: depgraph.EdgeKind(kind.(string)),
			})
		}
		return depgraph.FromParts(nodes, edges), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*depgraph.Graph), nil
}

func (r *Repository) QueryImporters(ctx context.Context, projectID, moduleID string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx,
			"MATCH (a:Module {project: $project})-[:IMPORTS]->(:Module {project: $project, id: $id}) "+
				"RETURN a.id ORDER BY a.id",
			map[string]any{"project": projectID, "id": moduleID})
		if err != nil {
			return nil, err
		}
		var ids []string
		for records.Next(ctx) {
			v, _ := records.Record().Get("a.id")
			ids = append(ids, v.(string))
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (r *Repository) DeleteProject(ctx context.Context, projectID string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"MATCH (m:Module {project: $project}) DETACH DELETE m",
			map[string]any{"project": projectID})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}
	return nil
}

func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var _ graphstore.Repository = (*Repository)(nil)
