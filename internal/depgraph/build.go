package depgraph

import (
	"fmt"
	"sort"

	"github.com/mertakgul/depscope/internal/ir"
	"github.com/mertakgul/depscope/internal/resolve"
)

// EntryPointConfig controls which nodes become reachability roots.
type EntryPointConfig struct {
	// Explicit lists root-relative file paths declared as entry points.
	Explicit []string
	// Patterns are module base names treated as entry points when no
	// explicit list is given, e.g. "main", "__main__", "cli".
	Patterns []string
}

// DefaultEntryPatterns is the documented fallback heuristic for entry-point
// detection when nothing is configured.
func DefaultEntryPatterns() []string { return []string{"main", "__main__", "cli"} }

// BuildInput carries everything one graph construction needs. A fresh input
// is assembled per run; nothing is shared between runs.
type BuildInput struct {
	Files       []*ir.FileSummary
	Resolver    *resolve.Resolver
	EntryPoints EntryPointConfig
}

// Build assembles one immutable dependency graph snapshot from extraction
// and resolution results. It is a pure function of its input: the same
// summaries always produce an identical graph, including ordering.
func Build(in BuildInput) *Graph {
	b := &builder{
		graph: &Graph{
			byID: make(map[string]*Node),
			out:  make(map[string][]string),
			in:   make(map[string][]string),
		},
		edges: make(map[[2]string]*Edge),
	}

	explicit := make(map[string]bool, len(in.EntryPoints.Explicit))
	for _, p := range in.EntryPoints.Explicit {
		explicit[p] = true
	}
	patterns := in.EntryPoints.Patterns
	if len(patterns) == 0 && len(explicit) == 0 {
		patterns = DefaultEntryPatterns()
	}
	patternSet := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		patternSet[p] = true
	}

	for _, f := range in.Files {
		b.addNode(f, explicit, patternSet)
	}
	for _, f := range in.Files {
		b.addEdges(f, in.Resolver)
	}

	return b.finish()
}

// FromParts rehydrates a snapshot from stored nodes and edges, rebuilding
// the indexes and stats. Used by persistence layers; Build remains the
// only constructor on the analysis path.
func FromParts(nodes []*Node, edges []*Edge) *Graph {
	b := &builder{
		graph: &Graph{
			byID: make(map[string]*Node),
			out:  make(map[string][]string),
			in:   make(map[string][]string),
		},
		edges: make(map[[2]string]*Edge),
	}
	for _, n := range nodes {
		if n.Sentinel {
			b.useSentinel = true
			continue
		}
		b.graph.Nodes = append(b.graph.Nodes, n)
		b.graph.byID[n.ID] = n
	}
	for _, e := range edges {
		if e.To == ExternalID {
			b.useSentinel = true
		}
		b.edges[[2]string{e.From, e.To}] = e
	}
	return b.finish()
}

type builder struct {
	graph       *Graph
	edges       map[[2]string]*Edge
	useSentinel bool
}

func (b *builder) addNode(f *ir.FileSummary, explicit, patterns map[string]bool) {
	n := &Node{
		ID:            f.Path,
		Module:        f.Module,
		Language:      f.Language,
		Lines:         f.Lines,
		ClassNames:    f.ClassNames,
		FunctionNames: f.FunctionNames,
		Unparsable:    f.Unparsable,
	}
	n.EntryPoint = explicit[f.Path] || patterns[ir.BaseName(f.Module)]

	if f.Unparsable {
		b.graph.Notes = append(b.graph.Notes, Note{
			Kind:    NoteParseFailure,
			Path:    f.Path,
			Message: f.ParseError,
		})
	}

	b.graph.Nodes = append(b.graph.Nodes, n)
	b.graph.byID[n.ID] = n
}

func (b *builder) addEdges(f *ir.FileSummary, r *resolve.Resolver) {
	for _, stmt := range f.Imports {
		for _, v := range r.Resolve(stmt, f.Path) {
			b.record(f.Path, v, EdgeInternal)
		}
	}

	node := b.graph.byID[f.Path]
	for _, call := range f.DynamicCalls {
		risk := DynamicRisk{Mechanism: call.Mechanism, Risk: RiskHigh, Line: call.Line}
		if call.ArgKind == ir.ArgLiteral {
			risk.Risk = RiskLow
			risk.Target = call.Arg
			if v := r.ResolveModule(call.Arg); v.Kind == resolve.KindInternal {
				risk.Target = v.Target
				v.Line = call.Line
				b.record(f.Path, v, EdgeDynamic)
			}
		}
		node.DynamicRisks = append(node.DynamicRisks, risk)
	}
}

// record folds one resolution verdict into the deduplicated edge set.
func (b *builder) record(from string, v resolve.Verdict, kind EdgeKind) {
	occ := Occurrence{Line: v.Line, Names: v.Names}
	to := v.Target
	if v.Kind == resolve.KindExternal {
		kind = EdgeExternal
		to = ExternalID
		occ.Specifier = v.Target
		b.useSentinel = true
	}
	// Self-imports carry no structural information.
	if to == from {
		return
	}

	if v.Note != "" {
		b.graph.Notes = append(b.graph.Notes, Note{
			Kind:    NoteResolutionAmbiguous,
			Path:    from,
			Line:    v.Line,
			Message: v.Note,
		})
	}

	key := [2]string{from, to}
	e, ok := b.edges[key]
	if !ok {
		e = &Edge{From: from, To: to, Kind: kind}
		b.edges[key] = e
	}
	// A static import outweighs a dynamic one between the same pair.
	if e.Kind == EdgeDynamic && kind == EdgeInternal {
		e.Kind = EdgeInternal
	}
	e.Occurrences = append(e.Occurrences, occ)
}

// finish freezes the snapshot: sorted nodes, sorted deduplicated edges,
// adjacency indexes, and stats.
func (b *builder) finish() *Graph {
	g := b.graph

	if b.useSentinel {
		s := &Node{ID: ExternalID, Module: ExternalID, Sentinel: true}
		g.Nodes = append(g.Nodes, s)
		g.byID[s.ID] = s
	}

	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })

	g.Edges = make([]*Edge, 0, len(b.edges))
	for _, e := range b.edges {
		sort.Slice(e.Occurrences, func(i, j int) bool { return e.Occurrences[i].Line < e.Occurrences[j].Line })
		g.Edges = append(g.Edges, e)
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})

	sort.Slice(g.Notes, func(i, j int) bool {
		if g.Notes[i].Path != g.Notes[j].Path {
			return g.Notes[i].Path < g.Notes[j].Path
		}
		return g.Notes[i].Line < g.Notes[j].Line
	})

	for _, e := range g.Edges {
		if e.Kind == EdgeExternal {
			continue
		}
		g.out[e.From] = append(g.out[e.From], e.To)
		g.in[e.To] = append(g.in[e.To], e.From)
	}

	g.computeStats()
	return g
}

func (g *Graph) computeStats() {
	s := &g.Stats
	s.TotalNodes = len(g.Nodes)
	s.TotalEdges = len(g.Edges)
	s.FanOut = make(map[string]int)

	fanIn := make(map[string]int)
	for _, e := range g.Edges {
		switch e.Kind {
		case EdgeInternal:
			s.InternalEdges++
		case EdgeExternal:
			s.ExternalEdges++
		case EdgeDynamic:
			s.DynamicEdges++
		}
		s.FanOut[e.From]++
		fanIn[e.To]++
	}

	for _, n := range g.Nodes {
		if n.Unparsable {
			s.UnparsableFiles++
		}
		if n.EntryPoint {
			s.EntryPoints++
		}
		// Iterate nodes rather than the fan map for deterministic
		// hotspot selection.
		if c := s.FanOut[n.ID]; c > s.MaxFanOut {
			s.MaxFanOut = c
			s.HotspotNode = n.ID
		}
		if c := fanIn[n.ID]; c > s.MaxFanIn {
			s.MaxFanIn = c
		}
	}

	s.ConnectedComponents = g.countComponents()
}

// countComponents counts weakly connected components among internal nodes
// via union-find. The sentinel is excluded so unrelated files that both
// import third-party modules do not collapse into one component.
func (g *Graph) countComponents() int {
	parent := make(map[string]string)
	var find func(string) string
	find = func(x string) string {
		if parent[x] == "" {
			parent[x] = x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		fa, fb := find(a), find(b)
		if fa != fb {
			parent[fa] = fb
		}
	}

	for _, n := range g.Nodes {
		if !n.Sentinel {
			find(n.ID)
		}
	}
	for _, e := range g.Edges {
		if e.Kind != EdgeExternal {
			union(e.From, e.To)
		}
	}

	roots := make(map[string]bool)
	for _, n := range g.Nodes {
		if !n.Sentinel {
			roots[find(n.ID)] = true
		}
	}
	return len(roots)
}

// Fingerprintable returns (path, imports) pairs for composite hashing of
// snapshots, internal edges only.
func (g *Graph) Fingerprintable() map[string][]string {
	deps := make(map[string][]string, len(g.out))
	for id, targets := range g.out {
		deps[id] = targets
	}
	return deps
}

func (e *Edge) String() string {
	return fmt.Sprintf("%s -> %s (%s)", e.From, e.To, e.Kind)
}
