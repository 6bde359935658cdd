package analysis

import (
	"fmt"
	"sort"

	"github.com/mertakgul/depscope/internal/depgraph"
)

// DetectDead computes the modules unreachable from the declared entry
// points by BFS over internal edges. With zero entry points there is no
// evidentiary basis for "unreachable", so the report is skipped and a
// diagnostic returned instead of declaring the whole graph dead.
func DetectDead(g *depgraph.Graph) (records []Record, diag *Record) {
	var roots []string
	for _, n := range g.InternalNodes() {
		if n.EntryPoint {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 {
		return nil, &Record{
			Detail: "no entry points declared or detected; dead-code analysis skipped",
		}
	}

	reachable := make(map[string]bool, len(roots))
	queue := append([]string(nil), roots...)
	for _, r := range roots {
		reachable[r] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range g.Imports(id) {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, n := range g.InternalNodes() {
		if reachable[n.ID] {
			continue
		}
		records = append(records, Record{
			Module: n.ID,
			Detail: fmt.Sprintf("%s is unreachable from any entry point", n.ID),
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Module < records[j].Module })
	return records, nil
}
