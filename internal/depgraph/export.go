package depgraph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportDOT generates a Graphviz DOT representation of the graph. Nodes on
// at least one of the given cycles are highlighted. Rendering the source
// into an image is the caller's business.
func ExportDOT(g *Graph, cycles [][]string) string {
	cyclic := make(map[string]bool)
	for _, cycle := range cycles {
		for _, id := range cycle {
			cyclic[id] = true
		}
	}

	var b strings.Builder
	b.WriteString("digraph imports {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\" shape=box];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	for _, n := range g.Nodes {
		color := nodeColor(n, cyclic[n.ID])
		shape := "box"
		if n.EntryPoint {
			shape = "box3d"
		}
		if n.Sentinel {
			shape = "ellipse"
		}
		b.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\" shape=%s style=filled fillcolor=\"%s\"];\n",
			n.ID, n.Module, shape, color))
	}
	b.WriteString("\n")

	for _, e := range g.Edges {
		b.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [style=%s color=\"%s\"];\n",
			e.From, e.To, edgeStyle(e.Kind), edgeColor(e.Kind)))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid diagram of the graph.
func ExportMermaid(g *Graph) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	for _, n := range g.Nodes {
		b.WriteString(fmt.Sprintf("  %s%s\n", sanitizeID(n.ID), mermaidNodeShape(n)))
	}
	for _, e := range g.Edges {
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			sanitizeID(e.From), mermaidArrow(e.Kind), sanitizeID(e.To)))
	}

	return b.String()
}

// ExportJSON serializes the graph to JSON.
func ExportJSON(g *Graph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// FormatStats returns a human-readable summary of graph statistics.
func FormatStats(g *Graph) string {
	var b strings.Builder
	b.WriteString("Dependency Graph Statistics\n")
	b.WriteString("===========================\n\n")
	b.WriteString(fmt.Sprintf("Nodes:          %d total\n", g.Stats.TotalNodes))
	b.WriteString(fmt.Sprintf("  Entry points: %d\n", g.Stats.EntryPoints))
	b.WriteString(fmt.Sprintf("  Unparsable:   %d\n", g.Stats.UnparsableFiles))
	b.WriteString(fmt.Sprintf("Edges:          %d total\n", g.Stats.TotalEdges))
	b.WriteString(fmt.Sprintf("  Internal:     %d\n", g.Stats.InternalEdges))
	b.WriteString(fmt.Sprintf("  External:     %d\n", g.Stats.ExternalEdges))
	b.WriteString(fmt.Sprintf("  Dynamic:      %d\n", g.Stats.DynamicEdges))
	b.WriteString(fmt.Sprintf("Max Fan-Out:    %d (%s)\n", g.Stats.MaxFanOut, g.Stats.HotspotNode))
	b.WriteString(fmt.Sprintf("Max Fan-In:     %d\n", g.Stats.MaxFanIn))
	b.WriteString(fmt.Sprintf("Components:     %d\n", g.Stats.ConnectedComponents))
	return b.String()
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}

func nodeColor(n *Node, inCycle bool) string {
	switch {
	case inCycle:
		return "#f85149"
	case n.Sentinel:
		return "#30363d"
	case n.Unparsable:
		return "#d29922"
	case n.EntryPoint:
		return "#1f6feb"
	default:
		return "#238636"
	}
}

func edgeStyle(kind EdgeKind) string {
	switch kind {
	case EdgeInternal:
		return "solid"
	case EdgeExternal:
		return "dotted"
	case EdgeDynamic:
		return "dashed"
	default:
		return "solid"
	}
}

func edgeColor(kind EdgeKind) string {
	switch kind {
	case EdgeInternal:
		return "#3fb950"
	case EdgeExternal:
		return "#8b949e"
	case EdgeDynamic:
		return "#d29922"
	default:
		return "#c9d1d9"
	}
}

func mermaidNodeShape(n *Node) string {
	switch {
	case n.Sentinel:
		return fmt.Sprintf("([\"%s\"])", n.Module)
	case n.EntryPoint:
		return fmt.Sprintf("[[\"%s\"]]", n.Module)
	default:
		return fmt.Sprintf("[\"%s\"]", n.Module)
	}
}

func mermaidArrow(kind EdgeKind) string {
	switch kind {
	case EdgeExternal:
		return "-..->"
	case EdgeDynamic:
		return "-.->"
	default:
		return "-->"
	}
}
