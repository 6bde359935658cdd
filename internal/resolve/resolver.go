// Package resolve maps raw import specifiers to project-internal files.
package resolve

import (
	"fmt"
	"path"
	"strings"

	"github.com/mertakgul/depscope/internal/ir"
)

// Kind is the resolution verdict kind.
type Kind string

const (
	// KindInternal means the specifier names a file inside the project.
	KindInternal Kind = "internal"
	// KindExternal covers third-party modules, stdlib modules, and
	// relative imports that escape the project root. Expected, never
	// an error.
	KindExternal Kind = "external"
)

// Verdict is the definite outcome of resolving one import target.
// The resolver never raises; unresolvable input yields KindExternal.
type Verdict struct {
	Kind Kind
	// Target is the root-relative file path for internal verdicts and
	// the dotted specifier as written for external ones.
	Target string
	// Names carries the imported names this verdict accounts for.
	Names []string
	Line  int
	// Note records a non-fatal caveat, e.g. an ambiguity tie-break.
	Note string
}

// Resolver resolves dotted module specifiers against the set of files
// discovered in one run. It holds no state beyond that set, so runs stay
// independent.
type Resolver struct {
	files map[string]bool
	roots []string
}

// New builds a Resolver over the known root-relative file paths. Source
// roots are searched in order for absolute specifiers; an empty string
// means the project root itself.
func New(paths []string, sourceRoots []string) *Resolver {
	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		files[p] = true
	}
	roots := sourceRoots
	if len(roots) == 0 {
		roots = []string{""}
	}
	return &Resolver{files: files, roots: roots}
}

// ResolveModule resolves an absolute dotted specifier. Both the module form
// (pkg/mod.py) and the package form (pkg/mod/__init__.py) are checked; when
// both exist the package form wins and the tie-break is noted.
func (r *Resolver) ResolveModule(dotted string) Verdict {
	if dotted == "" {
		return Verdict{Kind: KindExternal, Target: dotted}
	}
	rel := strings.ReplaceAll(dotted, ".", "/")
	for _, root := range r.roots {
		modForm := joinRoot(root, rel+".py")
		pkgForm := joinRoot(root, rel+"/__init__.py")
		haveMod := r.files[modForm]
		havePkg := r.files[pkgForm]
		switch {
		case haveMod && havePkg:
			return Verdict{
				Kind:   KindInternal,
				Target: pkgForm,
				Note:   fmt.Sprintf("%s matches both a module and a package; package form preferred", dotted),
			}
		case havePkg:
			return Verdict{Kind: KindInternal, Target: pkgForm}
		case haveMod:
			return Verdict{Kind: KindInternal, Target: modForm}
		}
	}
	return Verdict{Kind: KindExternal, Target: dotted}
}

// Resolve resolves one import statement from the given importing file and
// returns one verdict per materialized edge target. For from-imports each
// imported name is additionally tried as a submodule of the base specifier,
// since "from pkg import mod" binds pkg/mod.py when it exists.
func (r *Resolver) Resolve(stmt *ir.ImportStmt, fromPath string) []Verdict {
	base := stmt.Target
	if stmt.Relative {
		prefix, ok := r.relativeBase(fromPath, stmt.Level)
		if !ok {
			return []Verdict{{
				Kind:   KindExternal,
				Target: strings.Repeat(".", stmt.Level) + stmt.Target,
				Names:  stmt.Names,
				Line:   stmt.Line,
				Note:   fmt.Sprintf("relative import walks above the project root (%d levels from %s)", stmt.Level, fromPath),
			}}
		}
		base = joinDotted(prefix, stmt.Target)
	}

	// Plain "import a.b" has no name list to expand.
	if len(stmt.Names) == 0 {
		v := r.ResolveModule(base)
		v.Line = stmt.Line
		return []Verdict{v}
	}

	var verdicts []Verdict
	var unresolved []string
	for _, name := range stmt.Names {
		if name == "*" {
			continue
		}
		sub := r.ResolveModule(joinDotted(base, name))
		if sub.Kind == KindInternal {
			sub.Names = []string{name}
			sub.Line = stmt.Line
			verdicts = append(verdicts, sub)
			continue
		}
		unresolved = append(unresolved, name)
	}

	// The remaining names bind attributes of the base module itself.
	if len(unresolved) > 0 || len(verdicts) == 0 {
		v := r.ResolveModule(base)
		if base == "" && stmt.Relative {
			v.Target = strings.Repeat(".", stmt.Level)
		}
		v.Names = unresolved
		if len(unresolved) == 0 {
			v.Names = stmt.Names
		}
		v.Line = stmt.Line
		verdicts = append(verdicts, v)
	}
	return verdicts
}

// relativeBase walks up from the importing file by level steps. Level 1 is
// the file's own package directory. Returns false when the walk escapes
// the project root.
func (r *Resolver) relativeBase(fromPath string, level int) (string, bool) {
	dir := path.Dir(fromPath)
	for i := 1; i < level; i++ {
		if dir == "." || dir == "" {
			return "", false
		}
		dir = path.Dir(dir)
	}
	if dir == "." {
		dir = ""
	}
	return strings.ReplaceAll(dir, "/", "."), true
}

func joinRoot(root, rel string) string {
	if root == "" || root == "." {
		return rel
	}
	return path.Join(root, rel)
}

func joinDotted(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "." + b
}
