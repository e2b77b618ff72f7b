// Package search implements the retrieval strategies and the engine that
// dispatches routed query plans to them. Sparse and dense rankings are
// fused with Reciprocal Rank Fusion (RRF).
package search

import (
	"context"
	"time"

	"github.com/convosearch/convosearch/internal/router"
	"github.com/convosearch/convosearch/internal/store"
)

// Source tags where a scored chunk's ranking came from.
type Source string

const (
	SourceSparse Source = "sparse"
	SourceDense  Source = "dense"
	SourceFused  Source = "fused"
)

// ScoredChunk is the unit of ranking throughout retrieval.
type ScoredChunk struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
	Source  Source  `json:"source"`
}

// HierarchicalResult is the two-level output of the hierarchical strategy:
// summary-level chunks plus the detail chunks they reference.
type HierarchicalResult struct {
	Summaries []*ScoredChunk `json:"summaries"`
	Details   []*ScoredChunk `json:"details"`
}

// RetrievalResult is what every strategy returns. Exactly one of Results or
// Hierarchical is populated, depending on the strategy. Degraded is set when
// an upstream failure forced a partial ranking instead of an error.
type RetrievalResult struct {
	Results      []*ScoredChunk      `json:"results,omitempty"`
	Hierarchical *HierarchicalResult `json:"hierarchical,omitempty"`
	Degraded     bool                `json:"degraded"`
	Strategy     string              `json:"strategy"`
}

// Request carries one retrieval invocation: the raw query plus the routed
// plan that decides strategy, sources, filters, and weights.
type Request struct {
	Query string
	Plan  *router.QueryPlan
}

// Strategy is the common retrieval capability. Implementations recover
// upstream failures locally and report them via RetrievalResult.Degraded;
// a returned error means the request itself could not proceed at all.
type Strategy interface {
	Name() string
	Retrieve(ctx context.Context, req *Request) (*RetrievalResult, error)
}

// PayloadLookup resolves a chunk ID to its stored metadata payload. The
// in-process vector store satisfies this; it backs filter boosts and
// hierarchical child resolution.
type PayloadLookup interface {
	Payload(id string) map[string]string
}

// SourceBackends bundles the per-collection search backends.
type SourceBackends struct {
	Sparse   store.SparseIndex
	Vector   store.VectorSearcher
	Payloads PayloadLookup
}

// Backends maps source collection names (router.SourceChildren,
// router.SourceParents) to their backends.
type Backends map[string]SourceBackends

// Config tunes strategy execution.
type Config struct {
	// RRFConstant is the fusion smoothing constant k.
	RRFConstant int

	// UpstreamTimeout caps each embedding or vector-store call.
	UpstreamTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RRFConstant:     DefaultRRFConstant,
		UpstreamTimeout: 5 * time.Second,
	}
}
