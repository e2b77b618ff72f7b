package store

import "fmt"

// Sparse index backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// BuildSparseIndex constructs a sparse index snapshot over the corpus using
// the selected backend. BackendMemory is the reference behavior; an empty
// backend string selects it.
func BuildSparseIndex(backend, path string, corpus []*Document, cfg BM25Config) (SparseIndex, error) {
	switch backend {
	case BackendMemory, "":
		return BuildMemoryIndex(corpus, cfg)
	case BackendSQLite:
		return BuildSQLiteIndex(path, corpus)
	default:
		return nil, fmt.Errorf("unknown sparse index backend %q (valid: %s, %s)", backend, BackendMemory, BackendSQLite)
	}
}
