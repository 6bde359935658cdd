package plugins

import (
	"context"

	"github.com/mertakgul/depscope/internal/ir"
)

// SourceFile represents a single input file to be scanned.
type SourceFile struct {
	Path    string
	Content []byte
	// ReadError is set when the enumerator could not read the file.
	// The plugin degrades such files to unparsable summaries.
	ReadError string
}

// SourcePlugin extracts structural summaries and import statements from
// source files of one language.
type SourcePlugin interface {
	// Language returns the source language identifier (e.g. "python").
	Language() string
	// Extract scans source files into a ScanResult. It never executes or
	// evaluates the source and never fails the whole batch for a single
	// undecodable file.
	Extract(ctx context.Context, files []SourceFile) (*ir.ScanResult, error)
}

// FileExtensionsProvider is an optional interface for source plugins to
// declare which file extensions they can scan (e.g. []string{".py"}).
//
// When not implemented, the scanner falls back to a conservative default.
type FileExtensionsProvider interface {
	FileExtensions() []string
}
