package ir

import "strings"

// ScanResult is the central intermediate representation produced by source
// plugins and consumed by the resolver and the graph builder.
type ScanResult struct {
	Files    []*FileSummary    `json:"files"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FileSummary is the structural summary of a single source file.
type FileSummary struct {
	// Path is the canonical file path relative to the project root,
	// always forward-slash separated.
	Path     string `json:"path"`
	Module   string `json:"module"`
	Language string `json:"language"`
	Lines    int    `json:"lines"`

	ClassNames    []string `json:"class_names,omitempty"`
	FunctionNames []string `json:"function_names,omitempty"`

	Imports      []*ImportStmt  `json:"imports,omitempty"`
	DynamicCalls []*DynamicCall `json:"dynamic_calls,omitempty"`

	// Unparsable marks files whose content could not be decoded or read.
	// Such files still become graph nodes, with zero recorded imports.
	Unparsable bool   `json:"unparsable,omitempty"`
	ParseError string `json:"parse_error,omitempty"`
}

// Classes returns the top-level class count.
func (f *FileSummary) Classes() int { return len(f.ClassNames) }

// Functions returns the top-level function count.
func (f *FileSummary) Functions() int { return len(f.FunctionNames) }

// Complexity is the structural complexity signal: classes plus
// top-level functions.
func (f *FileSummary) Complexity() int { return len(f.ClassNames) + len(f.FunctionNames) }

// ImportStmt is a single static import statement.
type ImportStmt struct {
	// Target is the dotted module path as written, without any leading
	// relative dots. Empty for "from . import x" forms.
	Target string `json:"target"`
	// Names lists imported names for from-imports; "*" records a wildcard.
	Names []string `json:"names,omitempty"`
	Alias string   `json:"alias,omitempty"`
	// Relative is true for from-imports with leading dots. Level counts
	// the dots: 1 is the importing file's own package.
	Relative bool `json:"relative,omitempty"`
	Level    int  `json:"level,omitempty"`
	Line     int  `json:"line"`
}

// DynamicCall records one reflective import call site.
type DynamicCall struct {
	// Mechanism names the call form, e.g. "importlib.import_module".
	Mechanism string  `json:"mechanism"`
	ArgKind   ArgKind `json:"arg_kind"`
	// Arg holds the target module path when ArgKind is ArgLiteral.
	Arg  string `json:"arg,omitempty"`
	Line int    `json:"line"`
}

// ArgKind classifies the argument expression of a dynamic import call.
type ArgKind string

const (
	// ArgLiteral means the target is a fixed string literal.
	ArgLiteral ArgKind = "literal"
	// ArgComputed means the target is built at runtime (variable,
	// concatenation, f-string, call) and cannot be resolved statically.
	ArgComputed ArgKind = "computed"
)

// ModuleName converts a root-relative source path to a dotted module name.
// Package initializers name the package itself:
//
//	a/b/c.py       -> a.b.c
//	a/b/__init__.py -> a.b
func ModuleName(path string) string {
	p := strings.TrimSuffix(path, ".py")
	p = strings.TrimSuffix(p, "/__init__")
	if p == "__init__" {
		return ""
	}
	return strings.ReplaceAll(p, "/", ".")
}

// BaseName returns the last dotted segment of a module name, used by
// entry-point matching and the split heuristics.
func BaseName(module string) string {
	if i := strings.LastIndex(module, "."); i >= 0 {
		return module[i+1:]
	}
	return module
}
