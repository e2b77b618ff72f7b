// Package store provides the sparse BM25 index (in-memory and SQLite FTS5
// backends), the corpus-keyed index cache, and an in-process HNSW vector
// store. These are the retrieval core's data-plane dependencies.
package store

import (
	"context"

	"github.com/convosearch/convosearch/internal/filter"
)

// Document is one indexable unit of a corpus: a chunk's id, its text, and
// the flattened metadata the filter predicates run against.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// BM25Result is a single sparse search hit.
type BM25Result struct {
	DocID        string
	Score        float64
	MatchedTerms []string
}

// SparseIndex is a point-in-time snapshot over a corpus. There is no
// incremental update; rebuilding (or the IndexCache) is the only mutation
// path. Safe for unlimited concurrent readers.
type SparseIndex interface {
	// Search scores every indexed document against the query, zeroes the
	// score of documents failing any filter predicate, and returns the
	// top-k non-zero results in descending score order with stable
	// corpus-order tie-breaking.
	Search(ctx context.Context, query string, topK int, filters filter.Set) ([]*BM25Result, error)

	// DocCount returns the number of indexed documents.
	DocCount() int

	// Close releases index resources.
	Close() error
}

// BM25Config holds Okapi BM25 parameters.
type BM25Config struct {
	// K1 is the term frequency saturation parameter (default: 1.5).
	K1 float64

	// B is the length normalization parameter (default: 0.75).
	B float64
}

// DefaultBM25Config returns the standard parameterization.
func DefaultBM25Config() BM25Config {
	return BM25Config{K1: 1.5, B: 0.75}
}

// VectorHit is a single dense search hit with its stored payload.
type VectorHit struct {
	ID      string
	Score   float32 // normalized similarity, higher is better
	Payload map[string]string
}

// VectorSearcher is the abstract dense-search capability the strategies
// consume. The in-process HNSWStore implements it; a remote vector store
// adapter can as well.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, filters filter.Set, topK int) ([]*VectorHit, error)
}

// VectorStoreConfig configures the in-process HNSW store.
type VectorStoreConfig struct {
	// Dimensions is the embedding dimension.
	Dimensions int

	// Metric is the distance metric: "cos" (default) or "l2".
	Metric string

	// M is HNSW max connections per layer (default: 16).
	M int

	// EfSearch is HNSW query-time search width (default: 20).
	EfSearch int
}

// DefaultVectorStoreConfig returns sensible defaults for the given
// dimensionality.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions: dimensions,
		Metric:     "cos",
		M:          16,
		EfSearch:   20,
	}
}
