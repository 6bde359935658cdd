package analysis

import (
	"strings"
	"testing"

	"github.com/mertakgul/depscope/internal/depgraph"
	"github.com/mertakgul/depscope/internal/ir"
	"github.com/mertakgul/depscope/internal/resolve"
)

func fixture(path string, lines int, imports ...string) *ir.FileSummary {
	f := &ir.FileSummary{
		Path:     path,
		Module:   ir.ModuleName(path),
		Language: "python",
		Lines:    lines,
	}
	for i, target := range imports {
		f.Imports = append(f.Imports, &ir.ImportStmt{Target: target, Line: i + 1})
	}
	return f
}

func graphOf(files ...*ir.FileSummary) *depgraph.Graph {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return depgraph.Build(depgraph.BuildInput{
		Files:    files,
		Resolver: resolve.New(paths, nil),
	})
}

func TestDetectCycles_Triangle(t *testing.T) {
	g := graphOf(
		fixture("main.py", 5, "a"),
		fixture("a.py", 5, "b"),
		fixture("b.py", 5, "c"),
		fixture("c.py", 5, "a"),
	)

	records := DetectCycles(g, 0)
	if len(records) != 1 {
		t.Fatalf("expected 1 cycle, got %d: %+v", len(records), records)
	}
	rec := records[0]
	want := []string{"a.py", "b.py", "c.py"}
	if len(rec.Cycle) != 3 {
		t.Fatalf("expected cycle of 3, got %v", rec.Cycle)
	}
	for i := range want {
		if rec.Cycle[i] != want[i] {
			t.Errorf("cycle[%d] = %s, want %s", i, rec.Cycle[i], want[i])
		}
	}
	if !strings.Contains(rec.Detail, "a.py -> b.py -> c.py -> a.py") {
		t.Errorf("detail should spell out the closed walk, got %q", rec.Detail)
	}
}

func TestDetectCycles_CanonicalRotation(t *testing.T) {
	// The same cycle entered at different points must still start at the
	// lexicographically smallest member.
	g := graphOf(
		fixture("z_entry.py", 5, "m"),
		fixture("m.py", 5, "a"),
		fixture("a.py", 5, "m"),
	)

	records := DetectCycles(g, 0)
	if len(records) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(records))
	}
	if records[0].Cycle[0] != "a.py" {
		t.Errorf("expected rotation starting at a.py, got %v", records[0].Cycle)
	}
}

func TestDetectCycles_SeparateCyclesSorted(t *testing.T) {
	g := graphOf(
		fixture("p.py", 5, "q"),
		fixture("q.py", 5, "p"),
		fixture("x.py", 5, "y"),
		fixture("y.py", 5, "x"),
	)

	records := DetectCycles(g, 0)
	if len(records) != 2 {
		t.Fatalf("expected 2 cycles, got %d", len(records))
	}
	if records[0].Cycle[0] != "p.py" || records[1].Cycle[0] != "x.py" {
		t.Errorf("cycles not in stable order: %+v", records)
	}
}

func TestDetectCycles_NoCycles(t *testing.T) {
	g := graphOf(
		fixture("main.py", 5, "a"),
		fixture("a.py", 5, "b"),
		fixture("b.py", 5),
	)
	if records := DetectCycles(g, 0); len(records) != 0 {
		t.Errorf("acyclic graph reported cycles: %+v", records)
	}
}

func TestDetectCycles_DepthBound(t *testing.T) {
	g := graphOf(
		fixture("a.py", 5, "b"),
		fixture("b.py", 5, "c"),
		fixture("c.py", 5, "a"),
	)

	records := DetectCycles(g, 2)
	if len(records) != 1 {
		t.Fatalf("expected only the truncation notice, got %+v", records)
	}
	if records[0].Cycle != nil {
		t.Error("truncation notice must not carry a cycle")
	}
	if !strings.Contains(records[0].Detail, "omitted") {
		t.Errorf("expected omission notice, got %q", records[0].Detail)
	}
}

func TestDetectDead_Orphan(t *testing.T) {
	g := graphOf(
		fixture("main.py", 5, "used"),
		fixture("used.py", 5),
		fixture("orphan.py", 5),
		fixture("island.py", 5, "orphan"),
	)

	records, diag := DetectDead(g)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %+v", diag)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 dead modules, got %+v", records)
	}
	// Sorted by module.
	if records[0].Module != "island.py" || records[1].Module != "orphan.py" {
		t.Errorf("unexpected dead set: %+v", records)
	}
}

func TestDetectDead_TransitiveReachability(t *testing.T) {
	g := graphOf(
		fixture("main.py", 5, "a"),
		fixture("a.py", 5, "b"),
		fixture("b.py", 5),
	)

	records, diag := DetectDead(g)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %+v", diag)
	}
	if len(records) != 0 {
		t.Errorf("transitively reached modules flagged dead: %+v", records)
	}
}

func TestDetectDead_NoEntryPoints(t *testing.T) {
	g := graphOf(
		fixture("a.py", 5, "b"),
		fixture("b.py", 5),
	)

	records, diag := DetectDead(g)
	if records != nil {
		t.Errorf("expected no records, got %+v", records)
	}
	if diag == nil || !strings.Contains(diag.Detail, "no entry points") {
		t.Fatalf("expected skip diagnostic, got %+v", diag)
	}
}

func TestOversized_StrictThreshold(t *testing.T) {
	g := graphOf(
		fixture("main.py", 10),
		fixture("big.py", 600),
		fixture("exact.py", 500),
	)

	records := Oversized(g, Thresholds{MaxLines: 500})
	if len(records) != 1 {
		t.Fatalf("expected 1 oversized module, got %+v", records)
	}
	rec := records[0]
	if rec.Module != "big.py" || rec.Lines != 600 || rec.Threshold != 500 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestOversized_DefaultThreshold(t *testing.T) {
	g := graphOf(fixture("big.py", 501))

	records := Oversized(g, Thresholds{})
	if len(records) != 1 {
		t.Fatalf("zero thresholds should fall back to 500, got %+v", records)
	}
}

func TestSuggest_ClassGroups(t *testing.T) {
	f := fixture("models.py", 100)
	f.ClassNames = []string{"A", "B", "C", "D", "E"}
	g := graphOf(f, fixture("main.py", 5))

	records := Suggest(g, Thresholds{})
	if len(records) != 1 {
		t.Fatalf("expected 1 suggestion, got %+v", records)
	}
	if records[0].Suggestion != "split by class groups" {
		t.Errorf("unexpected suggestion %q", records[0].Suggestion)
	}
}

func TestSuggest_UtilityModule(t *testing.T) {
	f := fixture("utils.py", 100)
	for i := 0; i < 20; i++ {
		f.FunctionNames = append(f.FunctionNames, "f")
	}
	g := graphOf(f, fixture("main.py", 5))

	records := Suggest(g, Thresholds{})
	if len(records) != 1 {
		t.Fatalf("expected 1 suggestion, got %+v", records)
	}
	if records[0].Suggestion != "split into domain-specific utility modules" {
		t.Errorf("unexpected suggestion %q", records[0].Suggestion)
	}
}

func TestSuggest_UtilityRuleNeedsUtilityName(t *testing.T) {
	f := fixture("orders.py", 100)
	for i := 0; i < 20; i++ {
		f.FunctionNames = append(f.FunctionNames, "f")
	}
	g := graphOf(f, fixture("main.py", 5))

	if records := Suggest(g, Thresholds{}); len(records) != 0 {
		t.Errorf("non-utility name must not trigger the utility rule: %+v", records)
	}
}

func TestSuggest_NamingClusters(t *testing.T) {
	f := fixture("service.py", 700)
	f.FunctionNames = []string{
		"parse_header", "parse_body", "parse_footer",
		"render_html", "render_text",
		"load_config",
	}
	g := graphOf(f, fixture("main.py", 5))

	records := Suggest(g, Thresholds{})
	if len(records) != 1 {
		t.Fatalf("expected 1 suggestion, got %+v", records)
	}
	rec := records[0]
	if rec.Suggestion != "split by responsibility inferred from naming clusters" {
		t.Errorf("unexpected suggestion %q", rec.Suggestion)
	}
	if !strings.Contains(rec.Detail, "parse_*") || !strings.Contains(rec.Detail, "render_*") {
		t.Errorf("expected naming clusters in detail, got %q", rec.Detail)
	}
	if strings.Contains(rec.Detail, "load_*") {
		t.Error("singleton prefixes must not form a cluster")
	}
}

func TestSuggest_SkipsUnparsable(t *testing.T) {
	f := &ir.FileSummary{
		Path:       "broken.py",
		Module:     "broken",
		Lines:      9000,
		Unparsable: true,
	}
	g := graphOf(f, fixture("main.py", 5))

	if records := Suggest(g, Thresholds{}); len(records) != 0 {
		t.Errorf("unparsable module must not collect suggestions: %+v", records)
	}
}

func TestSuggest_MultipleRulesOneModule(t *testing.T) {
	f := fixture("utils.py", 700)
	f.ClassNames = []string{"A", "B", "C", "D", "E"}
	for i := 0; i < 20; i++ {
		f.FunctionNames = append(f.FunctionNames, "f")
	}
	g := graphOf(f, fixture("main.py", 5))

	records := Suggest(g, Thresholds{})
	if len(records) != 3 {
		t.Errorf("independent rules should all fire, got %d: %+v", len(records), records)
	}
}

func TestDynamicWarnings_Mixed(t *testing.T) {
	f := fixture("main.py", 5)
	f.DynamicCalls = []*ir.DynamicCall{
		{Mechanism: "importlib.import_module", ArgKind: ir.ArgLiteral, Arg: "plugin", Line: 3},
		{Mechanism: "__import__", ArgKind: ir.ArgComputed, Line: 8},
	}
	g := graphOf(f, fixture("plugin.py", 5))

	records := DynamicWarnings(g)
	if len(records) != 2 {
		t.Fatalf("expected 2 warnings, got %+v", records)
	}
	if records[0].Risk != "low" || !strings.Contains(records[0].Detail, "plugin.py") {
		t.Errorf("unexpected literal warning: %+v", records[0])
	}
	if records[1].Risk != "high" || !strings.Contains(records[1].Detail, "computed argument") {
		t.Errorf("unexpected computed warning: %+v", records[1])
	}
	if records[1].Line != 8 {
		t.Errorf("line not carried, got %d", records[1].Line)
	}
}

func TestRun_AllReportsPresent(t *testing.T) {
	g := graphOf(
		fixture("main.py", 5, "a"),
		fixture("a.py", 5),
	)

	result := Run(g, Options{})
	kinds := []ReportKind{KindCycles, KindDeadCode, KindOversized, KindSuggestions, KindDynamic, KindDiagnostics}
	for _, k := range kinds {
		if result.Report(k) == nil {
			t.Errorf("missing report %s", k)
		}
	}
	if result.Findings() != 0 {
		t.Errorf("clean tree should produce no findings, got %d", result.Findings())
	}
}

func TestRun_EmptyGraph(t *testing.T) {
	g := graphOf()

	result := Run(g, Options{})
	diag := result.Report(KindDiagnostics)
	if len(diag.Records) != 1 || !strings.Contains(diag.Records[0].Detail, "nothing to analyze") {
		t.Fatalf("expected empty-tree diagnostic, got %+v", diag.Records)
	}
	if result.Findings() != 0 {
		t.Errorf("expected 0 findings, got %d", result.Findings())
	}
}

func TestRun_SkippedDeadCode(t *testing.T) {
	g := graphOf(
		fixture("a.py", 5, "b"),
		fixture("b.py", 5),
	)

	result := Run(g, Options{})
	dead := result.Report(KindDeadCode)
	if !dead.Skipped {
		t.Error("dead-code report should be skipped without entry points")
	}
	if len(dead.Records) != 0 {
		t.Errorf("skipped report must stay empty, got %+v", dead.Records)
	}

	found := false
	for _, rec := range result.Report(KindDiagnostics).Records {
		if strings.Contains(rec.Detail, "dead-code analysis skipped") {
			found = true
		}
	}
	if !found {
		t.Error("skip reason missing from diagnostics")
	}
}

func TestRun_GraphNotesSurface(t *testing.T) {
	broken := &ir.FileSummary{
		Path:       "broken.py",
		Module:     "broken",
		Unparsable: true,
		ParseError: "content is not valid UTF-8 text",
	}
	g := graphOf(broken, fixture("main.py", 5))

	result := Run(g, Options{})
	diag := result.Report(KindDiagnostics)
	if len(diag.Records) != 1 || diag.Records[0].Module != "broken.py" {
		t.Fatalf("expected parse-failure note in diagnostics, got %+v", diag.Records)
	}
}

func TestRun_FindingsCount(t *testing.T) {
	g := graphOf(
		fixture("main.py", 5, "a"),
		fixture("a.py", 600, "b"),
		fixture("b.py", 5, "a"),
		fixture("orphan.py", 5),
	)

	result := Run(g, Options{Thresholds: Thresholds{MaxLines: 500}})
	// One cycle, one dead module, one oversized module.
	if got := result.Findings(); got != 3 {
		t.Errorf("expected 3 findings, got %d", got)
	}
}
