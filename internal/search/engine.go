package search

import (
	"context"
	"log/slog"

	"github.com/convosearch/convosearch/internal/embed"
	"github.com/convosearch/convosearch/internal/errors"
	"github.com/convosearch/convosearch/internal/router"
)

// Engine dispatches a routed query plan to the matching strategy. It holds
// no state beyond the strategy registry built at startup, so it is safe for
// unlimited concurrent callers.
type Engine struct {
	strategies map[string]Strategy
	fallback   Strategy
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithStrategy registers an additional or replacement strategy.
func WithStrategy(s Strategy) EngineOption {
	return func(e *Engine) {
		e.strategies[s.Name()] = s
	}
}

// NewEngine builds the engine with the standard strategy set. The dense
// strategy doubles as the fallback for unknown strategy names.
func NewEngine(backends Backends, embedder embed.Embedder, cfg Config, opts ...EngineOption) *Engine {
	dense := NewDenseStrategy(backends, embedder, nil, cfg)

	e := &Engine{
		strategies: map[string]Strategy{
			router.StrategyHybridKeywordHeavy:  NewHybridStrategy(backends, embedder, cfg),
			router.StrategyDenseSemantic:       dense,
			router.StrategyHierarchicalSummary: NewHierarchicalStrategy(backends, embedder, cfg),
		},
		fallback: dense,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retrieve executes the plan's strategy and returns its result unchanged.
// An unknown strategy name falls back to dense retrieval with a warning,
// never an error; strategy-internal failures surface as Degraded results.
func (e *Engine) Retrieve(ctx context.Context, plan *router.QueryPlan, query string) (*RetrievalResult, error) {
	strategy, ok := e.strategies[plan.Strategy]
	if !ok {
		slog.Warn("unknown retrieval strategy, falling back to dense",
			slog.String("code", errors.ErrCodeUnknownStrategy),
			slog.String("requested", plan.Strategy),
			slog.String("fallback", e.fallback.Name()))
		strategy = e.fallback
	}

	result, err := strategy.Retrieve(ctx, &Request{Query: query, Plan: plan})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		slog.Warn("strategy failed, returning degraded empty result",
			slog.String("strategy", strategy.Name()),
			slog.String("code", errors.GetCode(err)),
			slog.String("error", err.Error()))
		return &RetrievalResult{Strategy: strategy.Name(), Degraded: true, Results: []*ScoredChunk{}}, nil
	}
	return result, nil
}

// Strategies returns the registered strategy names, for diagnostics.
func (e *Engine) Strategies() []string {
	names := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	return names
}
