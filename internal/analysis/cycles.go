package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mertakgul/depscope/internal/depgraph"
)

// DetectCycles enumerates simple cycles among internal nodes. DFS with a
// recursion stack; a back-edge to an on-stack node closes a cycle equal to
// the stack slice from that node. Three-state bookkeeping keeps the whole
// pass O(V+E). The same cycle reached from different start nodes is
// reported once, in canonical rotation.
func DetectCycles(g *depgraph.Graph, maxDepth int) []Record {
	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)

	state := make(map[string]int)
	var path []string
	seen := make(map[string]bool)
	var cycles [][]string
	truncated := 0

	var dfs func(id string)
	dfs = func(id string) {
		switch state[id] {
		case done:
			return
		case onStack:
			for i, p := range path {
				if p == id {
					cycle := canonical(append([]string(nil), path[i:]...))
					if maxDepth > 0 && len(cycle) > maxDepth {
						truncated++
						return
					}
					key := strings.Join(cycle, "\x00")
					if !seen[key] {
						seen[key] = true
						cycles = append(cycles, cycle)
					}
					return
				}
			}
			return
		}
		state[id] = onStack
		path = append(path, id)
		for _, next := range g.Imports(id) {
			dfs(next)
		}
		path = path[:len(path)-1]
		state[id] = done
	}

	for _, n := range g.InternalNodes() {
		if state[n.ID] == unvisited {
			dfs(n.ID)
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], "\x00") < strings.Join(cycles[j], "\x00")
	})

	records := make([]Record, 0, len(cycles))
	for _, cycle := range cycles {
		records = append(records, Record{
			Module: cycle[0],
			Cycle:  cycle,
			Detail: fmt.Sprintf("circular dependency: %s -> %s", strings.Join(cycle, " -> "), cycle[0]),
		})
	}
	if truncated > 0 {
		records = append(records, Record{
			Detail: fmt.Sprintf("%d cycle(s) longer than the reporting depth bound (%d) were omitted", truncated, maxDepth),
		})
	}
	return records
}

// canonical rotates a cycle so its lexicographically-smallest member
// comes first.
func canonical(cycle []string) []string {
	min := 0
	for i, id := range cycle {
		if id < cycle[min] {
			min = i
		}
	}
	return append(cycle[min:], cycle[:min]...)
}
