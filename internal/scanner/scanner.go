// Package scanner enumerates candidate source files under a project root.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mertakgul/depscope/internal/plugins"
)

// Options controls enumeration.
type Options struct {
	// ExcludeDirs are directory names skipped anywhere in the tree, in
	// addition to the built-in defaults.
	ExcludeDirs []string
	// IncludeHidden keeps dot-directories and dot-files in the walk.
	IncludeHidden bool
	// Workers bounds the file-reading pool. Values below 1 mean 4.
	Workers int
}

// defaultExcludes are directory names that never contain first-party
// Python modules.
var defaultExcludes = map[string]bool{
	"venv":          true,
	".venv":         true,
	"env":           true,
	"__pycache__":   true,
	"node_modules":  true,
	".git":          true,
	".tox":          true,
	".mypy_cache":   true,
	"site-packages": true,
	"build":         true,
	"dist":          true,
}

// Scanner walks a project root and reads the matching source files.
type Scanner struct {
	root    string
	opts    Options
	exclude map[string]bool
}

// New creates a Scanner for root. Root must be a directory.
func New(root string, opts Options) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	exclude := make(map[string]bool, len(defaultExcludes)+len(opts.ExcludeDirs))
	for name := range defaultExcludes {
		exclude[name] = true
	}
	for _, name := range opts.ExcludeDirs {
		if name = strings.TrimSpace(name); name != "" {
			exclude[name] = true
		}
	}

	return &Scanner{root: abs, opts: opts, exclude: exclude}, nil
}

// Root returns the absolute project root.
func (s *Scanner) Root() string { return s.root }

// Scan enumerates files accepted by the plugin's extensions and reads their
// contents through a bounded worker pool. Paths in the result are relative
// to the root and forward-slash separated; the result is sorted by path so
// repeated runs over unchanged input are byte-identical downstream.
// Unreadable files are kept with ReadError set rather than dropped.
func (s *Scanner) Scan(ctx context.Context, src plugins.SourcePlugin) ([]plugins.SourceFile, error) {
	allowed := extensionSet(src)

	var paths []string
	err := filepath.Walk(s.root, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			// Unreadable directory entries degrade to a skipped subtree.
			if fi != nil && fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := fi.Name()
		if fi.IsDir() {
			if p == s.root {
				return nil
			}
			if s.exclude[name] || (!s.opts.IncludeHidden && strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.opts.IncludeHidden && strings.HasPrefix(name, ".") {
			return nil
		}
		if allowed[strings.ToLower(filepath.Ext(p))] {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", s.root, err)
	}

	files := s.readAll(ctx, paths)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// readAll fans paths out to a worker pool and collects every result before
// returning. Extraction order does not matter; the barrier here is what
// guarantees the graph builder only ever sees a complete file set.
func (s *Scanner) readAll(ctx context.Context, paths []string) []plugins.SourceFile {
	workers := s.opts.Workers
	if workers < 1 {
		workers = 4
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan string)
	out := make(chan plugins.SourceFile, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				out <- s.readOne(p)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(out)

	files := make([]plugins.SourceFile, 0, len(paths))
	for f := range out {
		files = append(files, f)
	}
	return files
}

func (s *Scanner) readOne(p string) plugins.SourceFile {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		rel = p
	}
	file := plugins.SourceFile{Path: filepath.ToSlash(rel)}

	data, err := os.ReadFile(p)
	if err != nil {
		file.ReadError = err.Error()
		return file
	}
	file.Content = data
	return file
}

func extensionSet(src plugins.SourcePlugin) map[string]bool {
	fep, ok := src.(plugins.FileExtensionsProvider)
	if !ok {
		return map[string]bool{".py": true}
	}
	out := make(map[string]bool)
	for _, ext := range fep.FileExtensions() {
		ext = strings.TrimSpace(strings.ToLower(ext))
		if ext == "" {
			continue
		}
		if ext[0] != '.' {
			ext = "." + ext
		}
		out[ext] = true
	}
	return out
}
