package search

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/convosearch/convosearch/internal/embed"
	"github.com/convosearch/convosearch/internal/errors"
	"github.com/convosearch/convosearch/internal/router"
)

// VariantExpander generates alternative phrasings of a query for dense
// fan-out. The original query is always searched; variants are additive.
type VariantExpander interface {
	Variants(query string) []string
}

// DenseStrategy is vector-only retrieval, optionally fanned out over
// multiple query variants with results deduplicated by chunk ID keeping the
// maximum similarity.
type DenseStrategy struct {
	backends Backends
	embedder embed.Embedder
	expander VariantExpander // optional
	config   Config
}

var _ Strategy = (*DenseStrategy)(nil)

// NewDenseStrategy creates the dense-only strategy. expander may be nil.
func NewDenseStrategy(backends Backends, embedder embed.Embedder, expander VariantExpander, cfg Config) *DenseStrategy {
	return &DenseStrategy{backends: backends, embedder: embedder, expander: expander, config: cfg}
}

// Name implements Strategy.
func (s *DenseStrategy) Name() string {
	return router.StrategyDenseSemantic
}

// Retrieve implements Strategy. One concurrent lookup runs per (variant,
// source) pair; failed lookups are skipped and flagged as degraded rather
// than failing the request.
func (s *DenseStrategy) Retrieve(ctx context.Context, req *Request) (*RetrievalResult, error) {
	plan := req.Plan

	queries := []string{req.Query}
	if s.expander != nil {
		queries = append(queries, s.expander.Variants(req.Query)...)
	}

	fetch := plan.TopK * fetchMultiplier
	result := &RetrievalResult{Strategy: s.Name()}

	var (
		mu        sync.Mutex
		collected []*ScoredChunk
		failures  int
		attempts  int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, source := range plan.Sources {
		backend, ok := s.backends[source]
		if !ok || backend.Vector == nil {
			slog.Warn("source has no vector backend, skipping",
				slog.String("source", source),
				slog.String("strategy", s.Name()))
			continue
		}

		for _, query := range queries {
			query := query
			attempts++
			g.Go(func() error {
				upstreamCtx, cancel := context.WithTimeout(gctx, s.config.UpstreamTimeout)
				defer cancel()

				embedding, err := s.embedder.Embed(upstreamCtx, query)
				if err == nil {
					vecHits, searchErr := backend.Vector.Search(upstreamCtx, embedding, plan.Filters, fetch)
					if searchErr == nil {
						scored := make([]*ScoredChunk, len(vecHits))
						for i, h := range vecHits {
							scored[i] = &ScoredChunk{ChunkID: h.ID, Score: float64(h.Score), Source: SourceDense}
						}
						applyBoosts(scored, plan.MetadataBoosts, backend.Payloads)

						mu.Lock()
						collected = append(collected, scored...)
						mu.Unlock()
						return nil
					}
					err = searchErr
				}

				slog.Warn("dense variant lookup failed, skipping",
					slog.String("code", errors.GetCode(err)),
					slog.String("error", err.Error()))
				mu.Lock()
				failures++
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Degraded = failures > 0 || attempts == 0
	result.Results = sortAndTrim(dedupeMax(collected), plan.TopK)
	return result, nil
}
