package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/convosearch/convosearch/internal/embed"
	"github.com/convosearch/convosearch/internal/errors"
	"github.com/convosearch/convosearch/internal/router"
)

// PayloadChildIDsKey is the vector payload field holding a parent chunk's
// ordered child chunk IDs, comma-separated. The ingest path writes it; the
// hierarchical strategy reads it to resolve detail chunks.
const PayloadChildIDsKey = "child_ids"

// HierarchicalStrategy retrieves in two phases: summary-level (parent)
// chunks by vector similarity first, then the detail (child) chunks each
// summary references. The result keeps the two levels separate instead of
// flattening them into one ranking.
type HierarchicalStrategy struct {
	backends Backends
	embedder embed.Embedder
	config   Config
}

var _ Strategy = (*HierarchicalStrategy)(nil)

// NewHierarchicalStrategy creates the summary-then-detail strategy.
func NewHierarchicalStrategy(backends Backends, embedder embed.Embedder, cfg Config) *HierarchicalStrategy {
	return &HierarchicalStrategy{backends: backends, embedder: embedder, config: cfg}
}

// Name implements Strategy.
func (s *HierarchicalStrategy) Name() string {
	return router.StrategyHierarchicalSummary
}

// Retrieve implements Strategy.
func (s *HierarchicalStrategy) Retrieve(ctx context.Context, req *Request) (*RetrievalResult, error) {
	plan := req.Plan
	result := &RetrievalResult{
		Strategy:     s.Name(),
		Hierarchical: &HierarchicalResult{Summaries: []*ScoredChunk{}, Details: []*ScoredChunk{}},
	}

	backend, ok := s.summaryBackend(plan.Sources)
	if !ok {
		slog.Warn("no summary source with a vector backend, returning empty hierarchy",
			slog.String("strategy", s.Name()))
		result.Degraded = true
		return result, nil
	}

	summaryK := plan.TopK / 2
	if summaryK < 1 {
		summaryK = 1
	}

	upstreamCtx, cancel := context.WithTimeout(ctx, s.config.UpstreamTimeout)
	defer cancel()

	embedding, err := s.embedder.Embed(upstreamCtx, req.Query)
	if err != nil {
		slog.Warn("summary embedding failed, returning empty hierarchy",
			slog.String("code", errors.GetCode(err)),
			slog.String("error", err.Error()))
		result.Degraded = true
		return result, nil
	}

	hits, err := backend.Vector.Search(upstreamCtx, embedding, plan.Filters, summaryK)
	if err != nil {
		slog.Warn("summary search failed, returning empty hierarchy",
			slog.String("code", errors.GetCode(err)),
			slog.String("error", err.Error()))
		result.Degraded = true
		return result, nil
	}

	seen := make(map[string]bool)
	for _, hit := range hits {
		summary := &ScoredChunk{ChunkID: hit.ID, Score: float64(hit.Score), Source: SourceDense}
		result.Hierarchical.Summaries = append(result.Hierarchical.Summaries, summary)

		for _, childID := range childIDsFromPayload(hit.Payload) {
			if seen[childID] {
				continue
			}
			seen[childID] = true
			result.Hierarchical.Details = append(result.Hierarchical.Details, &ScoredChunk{
				ChunkID: childID,
				Score:   float64(hit.Score),
				Source:  SourceDense,
			})
		}
	}

	applyBoosts(result.Hierarchical.Summaries, plan.MetadataBoosts, backend.Payloads)
	return result, nil
}

// summaryBackend picks the parents collection when routed, otherwise the
// first source that has a vector backend.
func (s *HierarchicalStrategy) summaryBackend(sources []string) (SourceBackends, bool) {
	for _, source := range sources {
		if source == router.SourceParents {
			if b, ok := s.backends[source]; ok && b.Vector != nil {
				return b, true
			}
		}
	}
	for _, source := range sources {
		if b, ok := s.backends[source]; ok && b.Vector != nil {
			return b, true
		}
	}
	return SourceBackends{}, false
}

// childIDsFromPayload parses the comma-separated child ID list.
func childIDsFromPayload(payload map[string]string) []string {
	raw, ok := payload[PayloadChildIDsKey]
	if !ok || raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
