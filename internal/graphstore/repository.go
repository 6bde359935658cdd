// Package graphstore persists dependency-graph snapshots.
package graphstore

import (
	"context"

	"github.com/mertakgul/depscope/internal/depgraph"
)

// Repository stores one dependency snapshot per project. Persistence is an
// outer concern; the core analyses never read it back.
type Repository interface {
	// StoreSnapshot replaces the stored graph for a project.
	StoreSnapshot(ctx context.Context, projectID string, g *depgraph.Graph) error
	// LoadSnapshot retrieves the stored graph for a project.
	LoadSnapshot(ctx context.Context, projectID string) (*depgraph.Graph, error)
	// QueryImporters returns the modules importing the given module.
	QueryImporters(ctx context.Context, projectID, moduleID string) ([]string, error)
	// DeleteProject removes all stored data for a project.
	DeleteProject(ctx context.Context, projectID string) error
	// Close releases resources.
	Close(ctx context.Context) error
}
