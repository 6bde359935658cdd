package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mertakgul/depscope/internal/depgraph"
	"github.com/mertakgul/depscope/internal/ir"
)

// utilityName matches generic catch-all module names.
var utilityName = regexp.MustCompile(`(?i)^(utils?|helpers?|common|misc)$`)

// Suggest evaluates the split heuristics per module. Rules are independent
// and not mutually exclusive; one module may collect several suggestions.
// False positives are acceptable, these are hints, not errors.
func Suggest(g *depgraph.Graph, t Thresholds) []Record {
	t = t.withDefaults()

	var records []Record
	for _, n := range g.InternalNodes() {
		if n.Unparsable {
			continue
		}

		if n.Classes() >= t.MaxClasses {
			records = append(records, Record{
				Module:     n.ID,
				Suggestion: "split by class groups",
				Detail: fmt.Sprintf("%s defines %d top-level classes (threshold %d); move related classes into their own modules",
					n.ID, n.Classes(), t.MaxClasses),
			})
		}

		if n.Functions() >= t.MaxFunctions && utilityName.MatchString(ir.BaseName(n.Module)) {
			records = append(records, Record{
				Module:     n.ID,
				Suggestion: "split into domain-specific utility modules",
				Detail: fmt.Sprintf("%s is a generic utility module with %d top-level functions (threshold %d); group them by domain",
					n.ID, n.Functions(), t.MaxFunctions),
			})
		}

		// A big module made of many small constructs has no dominant
		// owner for its lines; name prefixes hint at responsibilities.
		if n.Lines >= t.MaxLines && n.Complexity() >= 3 {
			detail := fmt.Sprintf("%s has %d lines spread over %d top-level constructs",
				n.ID, n.Lines, n.Complexity())
			if clusters := namingClusters(n.FunctionNames); len(clusters) > 0 {
				detail += fmt.Sprintf("; candidate responsibilities: %s", strings.Join(clusters, ", "))
			}
			records = append(records, Record{
				Module:     n.ID,
				Suggestion: "split by responsibility inferred from naming clusters",
				Detail:     detail,
			})
		}
	}
	return records
}

// namingClusters groups function names by their first underscore-separated
// token and returns the largest groups, biggest first.
func namingClusters(names []string) []string {
	counts := make(map[string]int)
	for _, name := range names {
		prefix, _, found := strings.Cut(strings.TrimLeft(name, "_"), "_")
		if !found || prefix == "" {
			continue
		}
		counts[prefix]++
	}

	var prefixes []string
	for p, c := range counts {
		if c >= 2 {
			prefixes = append(prefixes, p)
		}
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if counts[prefixes[i]] != counts[prefixes[j]] {
			return counts[prefixes[i]] > counts[prefixes[j]]
		}
		return prefixes[i] < prefixes[j]
	})
	if len(prefixes) > 3 {
		prefixes = prefixes[:3]
	}

	out := make([]string, len(prefixes))
	for i, p := range prefixes {
		out[i] = p + "_*"
	}
	return out
}
