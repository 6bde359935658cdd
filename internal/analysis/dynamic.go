package analysis

import (
	"fmt"

	"github.com/mertakgul/depscope/internal/depgraph"
)

// DynamicWarnings reports every dynamic import site in the graph. Literal
// sites were already fed through the resolver during graph construction
// and appear here as low risk; computed sites are high-risk warnings that
// never became edges.
func DynamicWarnings(g *depgraph.Graph) []Record {
	var records []Record
	for _, n := range g.InternalNodes() {
		for _, risk := range n.DynamicRisks {
			rec := Record{
				Module: n.ID,
				Line:   risk.Line,
				Risk:   string(risk.Risk),
			}
			if risk.Risk == depgraph.RiskLow {
				rec.Detail = fmt.Sprintf("%s:%d %s with literal target %q",
					n.ID, risk.Line, risk.Mechanism, risk.Target)
			} else {
				rec.Detail = fmt.Sprintf("%s:%d %s with computed argument; target cannot be resolved statically",
					n.ID, risk.Line, risk.Mechanism)
			}
			records = append(records, rec)
		}
	}
	return records
}
