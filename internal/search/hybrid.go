package search

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/convosearch/convosearch/internal/embed"
	"github.com/convosearch/convosearch/internal/errors"
	"github.com/convosearch/convosearch/internal/router"
	"github.com/convosearch/convosearch/internal/store"
)

// Default fusion weights when the plan does not override them.
const (
	defaultSparseWeight = 0.4
	defaultDenseWeight  = 0.6
)

// fetchMultiplier oversizes the per-backend candidate lists so fusion has
// more than topK documents to rank.
const fetchMultiplier = 3

// HybridStrategy runs sparse (BM25) and dense (vector) search concurrently
// over the same filtered corpus and fuses the rankings via RRF. A vector
// failure or timeout degrades to sparse-only results instead of failing
// the request.
type HybridStrategy struct {
	backends Backends
	embedder embed.Embedder
	config   Config
}

var _ Strategy = (*HybridStrategy)(nil)

// NewHybridStrategy creates the keyword-heavy hybrid strategy.
func NewHybridStrategy(backends Backends, embedder embed.Embedder, cfg Config) *HybridStrategy {
	return &HybridStrategy{backends: backends, embedder: embedder, config: cfg}
}

// Name implements Strategy.
func (s *HybridStrategy) Name() string {
	return router.StrategyHybridKeywordHeavy
}

// Retrieve implements Strategy.
func (s *HybridStrategy) Retrieve(ctx context.Context, req *Request) (*RetrievalResult, error) {
	plan := req.Plan
	sparseWeight, denseWeight := plan.SparseWeight, plan.DenseWeight
	if sparseWeight == 0 && denseWeight == 0 {
		sparseWeight, denseWeight = defaultSparseWeight, defaultDenseWeight
	}

	fetch := plan.TopK * fetchMultiplier
	result := &RetrievalResult{Strategy: s.Name()}

	var merged []*ScoredChunk
	for _, source := range plan.Sources {
		backend, ok := s.backends[source]
		if !ok {
			slog.Warn("unknown source collection, skipping",
				slog.String("source", source),
				slog.String("strategy", s.Name()))
			continue
		}

		fused, degraded := s.searchSource(ctx, backend, req, fetch, sparseWeight, denseWeight)
		applyBoosts(fused, plan.MetadataBoosts, backend.Payloads)
		merged = append(merged, fused...)
		result.Degraded = result.Degraded || degraded
	}

	result.Results = sortAndTrim(dedupeMax(merged), plan.TopK)
	return result, nil
}

// searchSource runs the sparse and dense lookups for one collection in
// parallel, joins them, and fuses the two rankings.
func (s *HybridStrategy) searchSource(
	ctx context.Context,
	backend SourceBackends,
	req *Request,
	fetch int,
	sparseWeight, denseWeight float64,
) (fused []*ScoredChunk, degraded bool) {
	plan := req.Plan

	var (
		sparseResults []*store.BM25Result
		vecHits       []*store.VectorHit
		sparseErr     error
		vecErr        error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if backend.Sparse == nil {
			return nil
		}
		sparseResults, sparseErr = backend.Sparse.Search(gctx, req.Query, fetch, plan.Filters)
		// Errors degrade to an empty sparse contribution, never fail the group.
		return nil
	})

	g.Go(func() error {
		if backend.Vector == nil || s.embedder == nil {
			return nil
		}
		upstreamCtx, cancel := context.WithTimeout(gctx, s.config.UpstreamTimeout)
		defer cancel()

		embedding, err := s.embedder.Embed(upstreamCtx, req.Query)
		if err != nil {
			vecErr = err
			return nil
		}
		vecHits, vecErr = backend.Vector.Search(upstreamCtx, embedding, plan.Filters, fetch)
		return nil
	})

	if err := g.Wait(); err != nil {
		// Only context cancellation reaches here.
		return nil, true
	}

	if sparseErr != nil {
		slog.Warn("sparse search failed, continuing without keyword ranking",
			slog.String("code", errors.GetCode(sparseErr)),
			slog.String("error", sparseErr.Error()))
		degraded = true
	}
	if vecErr != nil {
		slog.Warn("vector search failed, degrading to sparse-only ranking",
			slog.String("code", errors.GetCode(vecErr)),
			slog.String("error", vecErr.Error()))
		degraded = true
	}

	sparseIDs := make([]string, len(sparseResults))
	for i, r := range sparseResults {
		sparseIDs[i] = r.DocID
	}
	denseIDs := make([]string, len(vecHits))
	for i, h := range vecHits {
		denseIDs[i] = h.ID
	}

	fused = Fuse([]RankedList{
		{Weight: sparseWeight, IDs: sparseIDs},
		{Weight: denseWeight, IDs: denseIDs},
	}, s.config.RRFConstant)
	return fused, degraded
}
