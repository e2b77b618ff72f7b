package router

import (
	"github.com/convosearch/convosearch/internal/filter"
)

// Intent is the classified purpose of a query, used to select a retrieval
// strategy.
type Intent string

const (
	IntentFactLookup      Intent = "fact_lookup"
	IntentEntitySearch    Intent = "entity_search"
	IntentContextQuestion Intent = "context_question"
	IntentComparison      Intent = "comparison"
	IntentAggregation     Intent = "aggregation"
	IntentTemporal        Intent = "temporal"
)

// Intents lists every intent. Behavior tables are checked against this list
// for exhaustiveness.
var Intents = []Intent{
	IntentFactLookup,
	IntentEntitySearch,
	IntentContextQuestion,
	IntentComparison,
	IntentAggregation,
	IntentTemporal,
}

// Strategy names referenced by plans. The search package registers
// implementations under these names.
const (
	StrategyHybridKeywordHeavy  = "hybrid_keyword_heavy"
	StrategyDenseSemantic       = "dense_semantic"
	StrategyHierarchicalSummary = "hierarchical_summary"
)

// Source collection names.
const (
	SourceChildren = "children"
	SourceParents  = "parents"
)

// QueryPlan is the structured output of routing: everything the retrieval
// engine needs to execute a query. Immutable once returned.
type QueryPlan struct {
	Intent    Intent     `json:"intent"`
	Sources   []string   `json:"sources"`
	Strategy  string     `json:"strategy"`
	TopK      int        `json:"top_k"`
	Filters   filter.Set `json:"filters,omitempty"`
	Rerank    bool       `json:"rerank"`
	Cacheable bool       `json:"cacheable"`

	// SparseWeight and DenseWeight control rank fusion for hybrid
	// strategies. They sum to 1 for every table entry.
	SparseWeight float64 `json:"sparse_weight"`
	DenseWeight  float64 `json:"dense_weight"`

	// MetadataBoosts multiplies fused scores for chunks whose metadata
	// field holds the given value, e.g. {"sales_stage": {"pricing": 1.5}}.
	MetadataBoosts map[string]map[string]float64 `json:"metadata_boosts,omitempty"`
}

// Clone returns a deep copy so cached plans can be handed out safely.
func (p *QueryPlan) Clone() *QueryPlan {
	clone := *p
	clone.Sources = append([]string(nil), p.Sources...)
	clone.Filters = p.Filters.Clone()
	if p.MetadataBoosts != nil {
		clone.MetadataBoosts = make(map[string]map[string]float64, len(p.MetadataBoosts))
		for field, boosts := range p.MetadataBoosts {
			inner := make(map[string]float64, len(boosts))
			for value, boost := range boosts {
				inner[value] = boost
			}
			clone.MetadataBoosts[field] = inner
		}
	}
	return &clone
}
