package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/mertakgul/depscope/internal/plugins"
)

// Fingerprint is a content-addressable hash of a source file and its
// resolved direct imports.
type Fingerprint struct {
	// FileHash is the SHA-256 of the raw file content.
	FileHash string `json:"file_hash"`
	// DependencyHashes are sorted hashes of the files this one imports.
	DependencyHashes []string `json:"dependency_hashes,omitempty"`
	// CompositeHash combines FileHash and DependencyHashes. If it has
	// not changed since the baseline, the module's structural situation
	// has not changed either.
	CompositeHash string `json:"composite_hash"`
}

// ComputeFingerprints computes fingerprints for all source files. The deps
// map carries resolved import relationships: file path to imported paths.
func ComputeFingerprints(files []plugins.SourceFile, deps map[string][]string) map[string]*Fingerprint {
	fileHashes := make(map[string]string, len(files))
	for _, f := range files {
		fileHashes[f.Path] = hashBytes(f.Content)
	}

	result := make(map[string]*Fingerprint, len(files))
	for _, f := range files {
		fp := &Fingerprint{
			FileHash: fileHashes[f.Path],
		}

		if depPaths, ok := deps[f.Path]; ok && len(depPaths) > 0 {
			for _, depPath := range depPaths {
				if h, ok := fileHashes[depPath]; ok {
					fp.DependencyHashes = append(fp.DependencyHashes, h)
				}
			}
			sort.Strings(fp.DependencyHashes)
		}

		fp.CompositeHash = computeComposite(fp.FileHash, fp.DependencyHashes)
		result[f.Path] = fp
	}

	return result
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func computeComposite(fileHash string, depHashes []string) string {
	parts := make([]string, 0, 1+len(depHashes))
	parts = append(parts, fileHash)
	parts = append(parts, depHashes...)
	combined := strings.Join(parts, "|")
	h := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(h[:])
}
