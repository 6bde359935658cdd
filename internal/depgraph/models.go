package depgraph

// ExternalID is the synthetic sentinel node that every unresolved-external
// import points at, so no edge ever dangles.
const ExternalID = "<external>"

// Node represents one source file in the dependency graph.
type Node struct {
	// ID is the canonical file path relative to the project root.
	ID       string `json:"id"`
	Module   string `json:"module"`
	Language string `json:"language,omitempty"`
	Lines    int    `json:"lines"`

	ClassNames    []string `json:"class_names,omitempty"`
	FunctionNames []string `json:"function_names,omitempty"`

	EntryPoint bool `json:"entry_point,omitempty"`
	Unparsable bool `json:"unparsable,omitempty"`
	Sentinel   bool `json:"sentinel,omitempty"`

	DynamicRisks []DynamicRisk `json:"dynamic_risks,omitempty"`
}

// Classes returns the top-level class count.
func (n *Node) Classes() int { return len(n.ClassNames) }

// Functions returns the top-level function count.
func (n *Node) Functions() int { return len(n.FunctionNames) }

// Complexity is classes plus top-level functions.
func (n *Node) Complexity() int { return len(n.ClassNames) + len(n.FunctionNames) }

// RiskLevel grades a dynamic import site.
type RiskLevel string

const (
	// RiskLow marks literal-resolvable dynamic imports.
	RiskLow RiskLevel = "low"
	// RiskHigh marks computed-unresolvable dynamic imports.
	RiskHigh RiskLevel = "high"
)

// DynamicRisk records one dynamic import site attached to a node.
type DynamicRisk struct {
	Mechanism string    `json:"mechanism"`
	Risk      RiskLevel `json:"risk"`
	// Target is the literal argument for low-risk sites, empty otherwise.
	Target string `json:"target,omitempty"`
	Line   int    `json:"line"`
}

// EdgeKind classifies import edges.
type EdgeKind string

const (
	// EdgeInternal links two project files via a static import.
	EdgeInternal EdgeKind = "internal"
	// EdgeExternal points at the sentinel for unresolved specifiers.
	EdgeExternal EdgeKind = "external"
	// EdgeDynamic links two project files via a literal dynamic import.
	EdgeDynamic EdgeKind = "dynamic"
)

// Occurrence is one import statement behind a deduplicated edge.
type Occurrence struct {
	Line  int      `json:"line"`
	Names []string `json:"names,omitempty"`
	// Specifier is the raw target for external occurrences, where the
	// sentinel edge alone cannot tell imports apart.
	Specifier string `json:"specifier,omitempty"`
}

// Edge is a directed, deduplicated import relation. Multiple statements
// between the same pair collapse into one edge; the statements themselves
// are retained as occurrences for line-number reporting.
type Edge struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	Kind        EdgeKind     `json:"kind"`
	Occurrences []Occurrence `json:"occurrences,omitempty"`
}

// NoteKind tags non-fatal caveats recorded during graph construction.
type NoteKind string

const (
	NoteParseFailure        NoteKind = "parse_failure"
	NoteResolutionAmbiguous NoteKind = "resolution_ambiguous"
)

// Note is a recorded, non-fatal construction caveat.
type Note struct {
	Kind    NoteKind `json:"kind"`
	Path    string   `json:"path"`
	Line    int      `json:"line,omitempty"`
	Message string   `json:"message"`
}

// GraphStats holds computed metrics about the graph.
type GraphStats struct {
	TotalNodes          int            `json:"total_nodes"`
	TotalEdges          int            `json:"total_edges"`
	InternalEdges       int            `json:"internal_edges"`
	ExternalEdges       int            `json:"external_edges"`
	DynamicEdges        int            `json:"dynamic_edges"`
	UnparsableFiles     int            `json:"unparsable_files"`
	EntryPoints         int            `json:"entry_points"`
	MaxFanOut           int            `json:"max_fan_out"`
	MaxFanIn            int            `json:"max_fan_in"`
	HotspotNode         string         `json:"hotspot_node,omitempty"`
	ConnectedComponents int            `json:"connected_components"`
	FanOut              map[string]int `json:"fan_out,omitempty"`
}

// Graph is one immutable point-in-time dependency snapshot. It is rebuilt
// from scratch every run and safe for concurrent read-only use by all
// analyses.
type Graph struct {
	Nodes []*Node    `json:"nodes"`
	Edges []*Edge    `json:"edges"`
	Notes []Note     `json:"notes,omitempty"`
	Stats GraphStats `json:"stats"`

	byID map[string]*Node
	out  map[string][]string
	in   map[string][]string
}

// Node looks a node up by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Imports returns the internal import targets of a node, sorted. The
// sentinel and external edges are excluded; dynamic edges are included
// since their targets are real files.
func (g *Graph) Imports(id string) []string { return g.out[id] }

// ImportedBy returns the internal importers of a node, sorted.
func (g *Graph) ImportedBy(id string) []string { return g.in[id] }

// InternalNodes returns all non-sentinel nodes in ID order.
func (g *Graph) InternalNodes() []*Node {
	out := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if !n.Sentinel {
			out = append(out, n)
		}
	}
	return out
}
