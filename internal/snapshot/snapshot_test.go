package snapshot

import (
	"strings"
	"testing"
	"time"

	"github.com/mertakgul/depscope/internal/analysis"
	"github.com/mertakgul/depscope/internal/depgraph"
	"github.com/mertakgul/depscope/internal/ir"
	"github.com/mertakgul/depscope/internal/plugins"
	"github.com/mertakgul/depscope/internal/resolve"
)

func testGraph(t *testing.T, files map[string][]string) *depgraph.Graph {
	t.Helper()
	var summaries []*ir.FileSummary
	var paths []string
	for path := range files {
		paths = append(paths, path)
	}
	for path, imports := range files {
		f := &ir.FileSummary{Path: path, Module: ir.ModuleName(path), Lines: 10}
		for i, target := range imports {
			f.Imports = append(f.Imports, &ir.ImportStmt{Target: target, Line: i + 1})
		}
		summaries = append(summaries, f)
	}
	return depgraph.Build(depgraph.BuildInput{
		Files:    summaries,
		Resolver: resolve.New(paths, nil),
	})
}

func TestComputeFingerprints_FileHash(t *testing.T) {
	files := []plugins.SourceFile{
		{Path: "a.py", Content: []byte("import b\n")},
		{Path: "b.py", Content: []byte("x = 1\n")},
	}

	fps := ComputeFingerprints(files, nil)
	if len(fps) != 2 {
		t.Fatalf("expected 2 fingerprints, got %d", len(fps))
	}
	if fps["a.py"].FileHash == fps["b.py"].FileHash {
		t.Error("different content must hash differently")
	}
	if fps["a.py"].CompositeHash == "" {
		t.Error("composite hash missing")
	}
}

func TestComputeFingerprints_CompositeTracksDependencies(t *testing.T) {
	deps := map[string][]string{"a.py": {"b.py"}}

	before := ComputeFingerprints([]plugins.SourceFile{
		{Path: "a.py", Content: []byte("import b\n")},
		{Path: "b.py", Content: []byte("x = 1\n")},
	}, deps)

	after := ComputeFingerprints([]plugins.SourceFile{
		{Path: "a.py", Content: []byte("import b\n")},
		{Path: "b.py", Content: []byte("x = 2\n")},
	}, deps)

	if before["a.py"].FileHash != after["a.py"].FileHash {
		t.Error("a.py content did not change, file hash must match")
	}
	if before["a.py"].CompositeHash == after["a.py"].CompositeHash {
		t.Error("dependency change must change the composite hash")
	}
}

func TestComputeFingerprints_DependencyOrderIrrelevant(t *testing.T) {
	files := []plugins.SourceFile{
		{Path: "a.py", Content: []byte("x\n")},
		{Path: "b.py", Content: []byte("y\n")},
		{Path: "c.py", Content: []byte("z\n")},
	}

	one := ComputeFingerprints(files, map[string][]string{"a.py": {"b.py", "c.py"}})
	two := ComputeFingerprints(files, map[string][]string{"a.py": {"c.py", "b.py"}})

	if one["a.py"].CompositeHash != two["a.py"].CompositeHash {
		t.Error("dependency hash order must be canonical")
	}
}

func TestNew_CapturesGraphAndResult(t *testing.T) {
	g := testGraph(t, map[string][]string{
		"main.py":   {"a"},
		"a.py":      {"b"},
		"b.py":      {"a"},
		"orphan.py": nil,
	})
	result := analysis.Run(g, analysis.Options{})

	snap := New("/proj", g, result, nil)

	if snap.ID == "" || snap.ContentHash == "" {
		t.Fatal("snapshot must be addressable")
	}
	if snap.Root != "/proj" {
		t.Errorf("root = %s", snap.Root)
	}
	if len(snap.Modules) != 4 {
		t.Errorf("expected 4 modules, got %d", len(snap.Modules))
	}
	if len(snap.Cycles) != 1 {
		t.Errorf("expected 1 captured cycle, got %v", snap.Cycles)
	}
	if len(snap.DeadModules) != 1 || snap.DeadModules[0] != "orphan.py" {
		t.Errorf("expected orphan.py dead, got %v", snap.DeadModules)
	}
	if snap.Findings != result.Findings() {
		t.Errorf("findings = %d, want %d", snap.Findings, result.Findings())
	}
}

func TestNew_FingerprintsOptional(t *testing.T) {
	g := testGraph(t, map[string][]string{"main.py": nil})

	snap := New("/proj", g, nil, nil)
	if snap.Modules[0].Fingerprint != "" {
		t.Error("fingerprint must stay empty when none were computed")
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	g := testGraph(t, map[string][]string{"main.py": {"a"}, "a.py": nil})
	snap := New("/proj", g, nil, nil)

	if err := store.Save(snap); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load(snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ContentHash != snap.ContentHash {
		t.Error("content hash lost in round trip")
	}
	if len(loaded.Modules) != 2 || len(loaded.Edges) != 1 {
		t.Errorf("structure lost: %d modules, %d edges", len(loaded.Modules), len(loaded.Edges))
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	g := testGraph(t, map[string][]string{"main.py": nil})
	older := New("/proj", g, nil, nil)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := New("/proj", g, nil, nil)

	if err := store.Save(older); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(newer); err != nil {
		t.Fatal(err)
	}

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(list))
	}
	if list[0].ID != newer.ID {
		t.Error("list must be newest first")
	}

	latest, err := store.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != newer.ID {
		t.Error("Latest must return the newest snapshot")
	}
}

func TestStore_LatestEmpty(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	latest, err := store.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Error("empty store must return nil")
	}
}

func TestStore_TagAndFind(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	g := testGraph(t, map[string][]string{"main.py": nil})
	snap := New("/proj", g, nil, nil)
	if err := store.Save(snap); err != nil {
		t.Fatal(err)
	}

	if err := store.Tag(snap.ID, "baseline"); err != nil {
		t.Fatal(err)
	}
	found, err := store.FindByTag("baseline")
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != snap.ID || found.Tag != "baseline" {
		t.Errorf("unexpected tagged snapshot: %+v", found.Summary())
	}

	if _, err := store.FindByTag("missing"); err == nil {
		t.Error("expected error for unknown tag")
	}
}

func TestStore_Delete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	g := testGraph(t, map[string][]string{"main.py": nil})
	snap := New("/proj", g, nil, nil)
	if err := store.Save(snap); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(snap.ID); err != nil {
		t.Fatal(err)
	}
	if len(store.List()) != 0 {
		t.Error("deleted snapshot still listed")
	}
	if _, err := store.Load(snap.ID); err == nil {
		t.Error("expected load error after delete")
	}
}

func TestStore_ReopenKeepsIndex(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	g := testGraph(t, map[string][]string{"main.py": nil})
	snap := New("/proj", g, nil, nil)
	if err := store.Save(snap); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(reopened.List()) != 1 {
		t.Error("index lost across reopen")
	}
}

func TestDiff_ModuleChanges(t *testing.T) {
	old := &Snapshot{
		ID: "old",
		Modules: []ModuleEntry{
			{Path: "a.py", Lines: 10, Fingerprint: "f1"},
			{Path: "gone.py", Lines: 5, Fingerprint: "f2"},
		},
	}
	new := &Snapshot{
		ID: "new",
		Modules: []ModuleEntry{
			{Path: "a.py", Lines: 25, Fingerprint: "f1-changed"},
			{Path: "fresh.py", Lines: 3, Fingerprint: "f3"},
		},
	}

	d := Diff(old, new)
	if d.Summary.ModulesAdded != 1 || d.Summary.ModulesRemoved != 1 || d.Summary.ModulesChanged != 1 {
		t.Fatalf("unexpected summary %+v", d.Summary)
	}
	for _, md := range d.Modules {
		if md.Path == "a.py" {
			if md.Type != DiffChanged || md.LinesDelta != 15 {
				t.Errorf("unexpected change record %+v", md)
			}
		}
	}
}

func TestDiff_UnchangedFingerprintSkipped(t *testing.T) {
	old := &Snapshot{
		Modules: []ModuleEntry{{Path: "a.py", Lines: 10, Fingerprint: "same"}},
	}
	new := &Snapshot{
		Modules: []ModuleEntry{{Path: "a.py", Lines: 10, Fingerprint: "same"}},
	}

	d := Diff(old, new)
	if len(d.Modules) != 0 {
		t.Errorf("intact fingerprint must not appear in the diff: %+v", d.Modules)
	}
	if d.Summary.Worse {
		t.Error("nothing changed, nothing got worse")
	}
}

func TestDiff_EdgesAndCycles(t *testing.T) {
	old := &Snapshot{
		Edges:  []EdgeEntry{{From: "a.py", To: "b.py", Kind: "internal"}},
		Cycles: [][]string{{"x.py", "y.py"}},
	}
	new := &Snapshot{
		Edges: []EdgeEntry{
			{From: "a.py", To: "b.py", Kind: "internal"},
			{From: "b.py", To: "a.py", Kind: "internal"},
		},
		Cycles: [][]string{{"a.py", "b.py"}},
	}

	d := Diff(old, new)
	if d.Summary.EdgesAdded != 1 || d.Summary.EdgesRemoved != 0 {
		t.Errorf("unexpected edge summary %+v", d.Summary)
	}
	if len(d.NewCycles) != 1 || d.NewCycles[0][0] != "a.py" {
		t.Errorf("unexpected new cycles %v", d.NewCycles)
	}
	if len(d.ResolvedCycles) != 1 || d.ResolvedCycles[0][0] != "x.py" {
		t.Errorf("unexpected resolved cycles %v", d.ResolvedCycles)
	}
	if !d.Summary.Worse {
		t.Error("new cycle must mark the diff worse")
	}
}

func TestDiff_DeadModules(t *testing.T) {
	old := &Snapshot{DeadModules: []string{"stale.py"}}
	new := &Snapshot{DeadModules: []string{"fresh_orphan.py"}}

	d := Diff(old, new)
	if len(d.NewDead) != 1 || d.NewDead[0] != "fresh_orphan.py" {
		t.Errorf("unexpected new dead %v", d.NewDead)
	}
	if len(d.ResolvedDead) != 1 || d.ResolvedDead[0] != "stale.py" {
		t.Errorf("unexpected resolved dead %v", d.ResolvedDead)
	}
	if !d.Summary.Worse {
		t.Error("new dead module must mark the diff worse")
	}
}

func TestFormatDiff(t *testing.T) {
	d := Diff(
		&Snapshot{ID: "old", Modules: []ModuleEntry{{Path: "gone.py", Fingerprint: "x"}}},
		&Snapshot{ID: "new", Cycles: [][]string{{"a.py", "b.py"}}},
	)

	out := FormatDiff(d)
	if !strings.Contains(out, "Diff: old -> new") {
		t.Errorf("missing header in %q", out)
	}
	if !strings.Contains(out, "- gone.py") {
		t.Errorf("missing removed module in %q", out)
	}
	if !strings.Contains(out, "a.py -> b.py") {
		t.Errorf("missing cycle rendering in %q", out)
	}
	if !strings.Contains(out, "worse") {
		t.Errorf("missing regression line in %q", out)
	}
}
