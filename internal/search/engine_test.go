package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosearch/convosearch/internal/embed"
	"github.com/convosearch/convosearch/internal/router"
	"github.com/convosearch/convosearch/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	sparse := buildSparse(t,
		&store.Document{ID: "a", Text: "the deal amount was fifty thousand"},
		&store.Document{ID: "b", Text: "weather small talk"},
	)
	vector := &fakeVector{hits: []*store.VectorHit{hit("a", 0.9)}}
	backends := Backends{
		router.SourceChildren: {Sparse: sparse, Vector: vector, Payloads: vector},
		router.SourceParents:  {Vector: vector, Payloads: vector},
	}
	return NewEngine(backends, embed.NewStaticEmbedder(), testConfig())
}

func TestEngine_DispatchesByStrategyName(t *testing.T) {
	engine := newTestEngine(t)

	plan := childPlan(router.StrategyHybridKeywordHeavy, 5)
	result, err := engine.Retrieve(context.Background(), plan, "deal amount")
	require.NoError(t, err)

	assert.Equal(t, router.StrategyHybridKeywordHeavy, result.Strategy)
	require.NotEmpty(t, result.Results)
	assert.Equal(t, "a", result.Results[0].ChunkID)
}

func TestEngine_UnknownStrategyFallsBackToDense(t *testing.T) {
	engine := newTestEngine(t)

	plan := childPlan("experimental_v9", 5)
	result, err := engine.Retrieve(context.Background(), plan, "deal amount")

	require.NoError(t, err, "unknown strategy never errors")
	assert.Equal(t, router.StrategyDenseSemantic, result.Strategy)
	require.NotEmpty(t, result.Results)
}

func TestEngine_RegistersAllStandardStrategies(t *testing.T) {
	engine := newTestEngine(t)

	names := engine.Strategies()
	assert.ElementsMatch(t, []string{
		router.StrategyHybridKeywordHeavy,
		router.StrategyDenseSemantic,
		router.StrategyHierarchicalSummary,
	}, names)
}

func TestEngine_WithStrategyOverride(t *testing.T) {
	custom := &recordingStrategy{name: "custom"}
	engine := NewEngine(Backends{}, embed.NewStaticEmbedder(), testConfig(), WithStrategy(custom))

	plan := childPlan("custom", 5)
	result, err := engine.Retrieve(context.Background(), plan, "query")
	require.NoError(t, err)

	assert.True(t, custom.called)
	assert.Equal(t, "custom", result.Strategy)
}

type recordingStrategy struct {
	name   string
	called bool
}

func (r *recordingStrategy) Name() string { return r.name }

func (r *recordingStrategy) Retrieve(ctx context.Context, req *Request) (*RetrievalResult, error) {
	r.called = true
	return &RetrievalResult{Strategy: r.name, Results: []*ScoredChunk{}}, nil
}
