// Package router classifies query intent and emits a structured retrieval
// plan. Classification is rule-based: an ordered trigger table decides the
// intent, and per-intent static tables decide strategy, sources, top_k,
// weights, and boosts.
package router

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/convosearch/convosearch/internal/chunk"
)

// DefaultPlanCacheSize bounds the routed-plan LRU cache.
const DefaultPlanCacheSize = 512

// pricingBoostPattern adds a pricing-stage boost on top of whatever the
// intent table prescribes whenever the query mentions money.
var pricingBoostPattern = regexp.MustCompile(`(?i)\b(price|pricing|cost|amount|budget|discount|quote)\b`)

const pricingBoostFactor = 1.5

// Router turns queries into QueryPlans.
type Router struct {
	planCache *lru.Cache[string, *QueryPlan]
}

// NewRouter creates a router. It verifies the behavior table covers every
// intent so a rule can never classify into a hole.
func NewRouter(cacheSize int) (*Router, error) {
	for _, intent := range Intents {
		if _, ok := intentBehaviors[intent]; !ok {
			return nil, fmt.Errorf("intent %q has no behavior table entry", intent)
		}
	}

	if cacheSize <= 0 {
		cacheSize = DefaultPlanCacheSize
	}
	cache, _ := lru.New[string, *QueryPlan](cacheSize)
	return &Router{planCache: cache}, nil
}

// Route classifies the query and builds its retrieval plan. It never fails:
// unclassifiable queries default to context_question and malformed context
// filters are dropped rather than erroring.
func (r *Router) Route(query string, qctx map[string]any) *QueryPlan {
	normalized := strings.ToLower(strings.TrimSpace(query))

	cacheKey := normalized
	if qctx != nil {
		if id, ok := qctx["transcript_id"].(string); ok {
			cacheKey += "\x00" + id
		}
	}
	if cached, ok := r.planCache.Get(cacheKey); ok {
		return cached.Clone()
	}

	intent := classify(normalized)
	b := intentBehaviors[intent]

	plan := &QueryPlan{
		Intent:       intent,
		Sources:      append([]string(nil), b.sources...),
		Strategy:     b.strategy,
		TopK:         b.topK,
		Filters:      extractFilters(normalized, qctx),
		Rerank:       b.rerank,
		Cacheable:    b.cacheable,
		SparseWeight: b.sparseWeight,
		DenseWeight:  b.denseWeight,
	}
	for field, boosts := range b.boosts {
		plan.addBoosts(field, boosts)
	}
	if pricingBoostPattern.MatchString(normalized) {
		plan.addBoosts("sales_stage", map[string]float64{
			string(chunk.StagePricing): pricingBoostFactor,
		})
	}

	slog.Debug("routed query",
		slog.String("intent", string(intent)),
		slog.String("strategy", plan.Strategy),
		slog.Int("top_k", plan.TopK),
		slog.Int("filters", len(plan.Filters)),
		slog.Bool("cacheable", plan.Cacheable))

	if plan.Cacheable {
		r.planCache.Add(cacheKey, plan.Clone())
	}
	return plan
}

// classify runs the ordered rule table; the first matching rule wins.
func classify(query string) Intent {
	if query == "" {
		return IntentContextQuestion
	}
	for _, rule := range intentRules {
		for _, pattern := range rule.patterns {
			if pattern.MatchString(query) {
				return rule.intent
			}
		}
	}
	return IntentContextQuestion
}

// addBoosts merges boost factors into the plan, multiplying on overlap.
func (p *QueryPlan) addBoosts(field string, boosts map[string]float64) {
	if p.MetadataBoosts == nil {
		p.MetadataBoosts = make(map[string]map[string]float64)
	}
	if p.MetadataBoosts[field] == nil {
		p.MetadataBoosts[field] = make(map[string]float64)
	}
	for value, boost := range boosts {
		if existing, ok := p.MetadataBoosts[field][value]; ok {
			p.MetadataBoosts[field][value] = existing * boost
		} else {
			p.MetadataBoosts[field][value] = boost
		}
	}
}
