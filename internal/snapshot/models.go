// Package snapshot stores analysis baselines and diffs runs against them.
//
// The core pipeline itself persists nothing between runs; baselines are an
// outer convenience for pre-commit checks ("did this change introduce a
// cycle") and live entirely outside the analysis path.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/mertakgul/depscope/internal/analysis"
	"github.com/mertakgul/depscope/internal/depgraph"
)

// Snapshot is a point-in-time capture of one analysis run.
type Snapshot struct {
	ID          string    `json:"id"`
	Tag         string    `json:"tag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Root        string    `json:"root"`
	ContentHash string    `json:"content_hash"`

	Modules []ModuleEntry `json:"modules"`
	Edges   []EdgeEntry   `json:"edges"`

	Cycles      [][]string `json:"cycles,omitempty"`
	DeadModules []string   `json:"dead_modules,omitempty"`
	Findings    int        `json:"findings"`
}

// ModuleEntry records one module with its composite fingerprint.
type ModuleEntry struct {
	Path       string `json:"path"`
	Lines      int    `json:"lines"`
	EntryPoint bool   `json:"entry_point,omitempty"`
	// Fingerprint is the composite hash of the file and its resolved
	// imports; an unchanged fingerprint means the module and its direct
	// dependencies are byte-identical to the baseline.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// EdgeEntry records one deduplicated import edge.
type EdgeEntry struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// New captures a snapshot from a run's graph and analysis result.
// Fingerprints may be nil when file contents were not hashed.
func New(root string, g *depgraph.Graph, result *analysis.Result, fingerprints map[string]*Fingerprint) *Snapshot {
	snap := &Snapshot{
		CreatedAt: time.Now(),
		Root:      root,
	}

	for _, n := range g.InternalNodes() {
		entry := ModuleEntry{
			Path:       n.ID,
			Lines:      n.Lines,
			EntryPoint: n.EntryPoint,
		}
		if fp, ok := fingerprints[n.ID]; ok {
			entry.Fingerprint = fp.CompositeHash
		}
		snap.Modules = append(snap.Modules, entry)
	}
	for _, e := range g.Edges {
		snap.Edges = append(snap.Edges, EdgeEntry{From: e.From, To: e.To, Kind: string(e.Kind)})
	}

	if result != nil {
		snap.Findings = result.Findings()
		if rep := result.Report(analysis.KindCycles); rep != nil {
			for _, rec := range rep.Records {
				if len(rec.Cycle) > 0 {
					snap.Cycles = append(snap.Cycles, rec.Cycle)
				}
			}
		}
		if rep := result.Report(analysis.KindDeadCode); rep != nil {
			for _, rec := range rep.Records {
				snap.DeadModules = append(snap.DeadModules, rec.Module)
			}
		}
	}

	snap.ContentHash = contentHash(snap)
	snap.ID = generateID(snap)
	return snap
}

func contentHash(snap *Snapshot) string {
	h := sha256.New()
	for _, m := range snap.Modules {
		h.Write([]byte(m.Path))
		h.Write([]byte(m.Fingerprint))
	}
	for _, e := range snap.Edges {
		h.Write([]byte(e.From))
		h.Write([]byte(e.To))
		h.Write([]byte(e.Kind))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func generateID(snap *Snapshot) string {
	data, _ := json.Marshal(struct {
		Time    int64  `json:"t"`
		Content string `json:"c"`
	}{
		Time:    snap.CreatedAt.UnixNano(),
		Content: snap.ContentHash,
	})
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8])
}

// Summary is the minimal info for listing snapshots.
type Summary struct {
	ID          string    `json:"id"`
	Tag         string    `json:"tag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Root        string    `json:"root"`
	ModuleCount int       `json:"module_count"`
	Findings    int       `json:"findings"`
}

// Summary returns a lightweight summary of this snapshot.
func (s *Snapshot) Summary() Summary {
	return Summary{
		ID:          s.ID,
		Tag:         s.Tag,
		CreatedAt:   s.CreatedAt,
		Root:        s.Root,
		ModuleCount: len(s.Modules),
		Findings:    s.Findings,
	}
}

// Index is a lightweight listing of all snapshots for fast lookup.
type Index struct {
	Snapshots []Summary `json:"snapshots"`
	UpdatedAt time.Time `json:"updated_at"`
}
