package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosearch/convosearch/internal/chunk"
	"github.com/convosearch/convosearch/internal/filter"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	r, err := NewRouter(0)
	require.NoError(t, err)
	return r
}

func TestRoute_FactLookup(t *testing.T) {
	r := newTestRouter(t)

	plan := r.Route("What was the deal amount?", nil)

	assert.Equal(t, IntentFactLookup, plan.Intent)
	assert.Equal(t, StrategyHybridKeywordHeavy, plan.Strategy)
	assert.Equal(t, 0.7, plan.SparseWeight)
	assert.Equal(t, 0.3, plan.DenseWeight)
	assert.Equal(t, 5, plan.TopK)
	assert.True(t, plan.Rerank)
	assert.True(t, plan.Cacheable)
}

func TestRoute_IntentClassification(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		query string
		want  Intent
	}{
		{"What was the deal amount?", IntentFactLookup},
		{"How much did they quote?", IntentFactLookup},
		{"Who mentioned the competitor?", IntentEntitySearch},
		{"Which company are they using now?", IntentEntitySearch},
		{"Why did the client hesitate?", IntentContextQuestion},
		{"Compare our offer with their current vendor", IntentComparison},
		{"Summarize the objections raised", IntentAggregation},
		{"When did they discuss the timeline?", IntentTemporal},
		{"tell me about the integration plans", IntentContextQuestion},
		{"", IntentContextQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Route(tt.query, nil).Intent)
		})
	}
}

func TestRoute_BehaviorTableIsExhaustive(t *testing.T) {
	for _, intent := range Intents {
		_, ok := intentBehaviors[intent]
		assert.True(t, ok, "intent %q missing from behavior table", intent)
	}
}

func TestRoute_ExtractsStageAndRoleFilters(t *testing.T) {
	r := newTestRouter(t)

	plan := r.Route("what pricing objections did the client raise", nil)

	stage, ok := plan.Filters["sales_stage"]
	require.True(t, ok)
	assert.True(t, stage.Matches(string(chunk.StagePricing)))

	speaker, ok := plan.Filters["speaker"]
	require.True(t, ok)
	assert.True(t, speaker.Matches("client"))
	assert.False(t, speaker.Matches("agent"))
}

func TestRoute_ExtractsSentimentFilter(t *testing.T) {
	r := newTestRouter(t)

	plan := r.Route("where did the customer sound frustrated", nil)

	sentiment, ok := plan.Filters["sentiment"]
	require.True(t, ok)
	assert.True(t, sentiment.Matches("negative"))
}

func TestRoute_TranscriptIDFromContext(t *testing.T) {
	r := newTestRouter(t)

	plan := r.Route("summarize the call", map[string]any{"transcript_id": "t-42"})

	id, ok := plan.Filters["transcript_id"]
	require.True(t, ok)
	assert.True(t, id.Matches("t-42"))
}

func TestRoute_ContextFilters(t *testing.T) {
	r := newTestRouter(t)

	plan := r.Route("why did they hesitate", map[string]any{
		"filters": map[string]any{
			"kind":    "child",
			"speaker": []string{"alice", "bob"},
			"broken":  42, // unsupported type, dropped
		},
	})

	kind, ok := plan.Filters["kind"]
	require.True(t, ok)
	assert.True(t, kind.Matches("child"))

	speaker, ok := plan.Filters["speaker"]
	require.True(t, ok)
	assert.True(t, speaker.Matches("bob"))

	_, ok = plan.Filters["broken"]
	assert.False(t, ok, "malformed filter is dropped, not kept or fatal")
}

func TestRoute_PricingMentionAddsBoost(t *testing.T) {
	r := newTestRouter(t)

	plan := r.Route("What was the deal amount?", nil)

	require.NotNil(t, plan.MetadataBoosts)
	assert.Equal(t, 1.5, plan.MetadataBoosts["sales_stage"][string(chunk.StagePricing)])
}

func TestRoute_EntitySearchBoostsEntityChunks(t *testing.T) {
	r := newTestRouter(t)

	plan := r.Route("who mentioned the competitor", nil)

	require.NotNil(t, plan.MetadataBoosts)
	assert.Equal(t, 1.2, plan.MetadataBoosts["contains_entity"]["true"])
}

func TestRoute_CacheableQueriesAreCached(t *testing.T) {
	r := newTestRouter(t)

	first := r.Route("What was the deal amount?", nil)
	second := r.Route("what was the deal amount?", nil)

	assert.Equal(t, first, second, "case-insensitive cache hit returns an equal plan")
	assert.NotSame(t, first, second, "cached plans are cloned, not shared")
}

func TestRoute_CachedPlanIsIsolatedFromCallerMutation(t *testing.T) {
	r := newTestRouter(t)

	first := r.Route("What was the deal amount?", nil)
	first.Filters["speaker"] = filter.Exact("mallory")
	first.Sources[0] = "tampered"

	second := r.Route("What was the deal amount?", nil)
	_, ok := second.Filters["speaker"]
	assert.False(t, ok)
	assert.Equal(t, SourceChildren, second.Sources[0])
}

func TestRoute_PerTranscriptCacheKeys(t *testing.T) {
	r := newTestRouter(t)

	a := r.Route("summarize the call", map[string]any{"transcript_id": "t-1"})
	b := r.Route("summarize the call", map[string]any{"transcript_id": "t-2"})

	assert.True(t, a.Filters["transcript_id"].Matches("t-1"))
	assert.True(t, b.Filters["transcript_id"].Matches("t-2"), "per-transcript cache keys do not collide")
}
