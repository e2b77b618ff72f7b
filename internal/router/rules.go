package router

import "regexp"

// intentRule pairs an intent with its trigger patterns. Rules are evaluated
// in order; the first match wins.
type intentRule struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// intentRules is the ordered classification table. More specific intents
// come first so that, e.g., "compare the pricing options" classifies as
// comparison rather than fact_lookup. Queries matching nothing default to
// context_question.
var intentRules = []intentRule{
	{
		intent: IntentComparison,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(compare[ds]?|comparison)\b`),
			regexp.MustCompile(`(?i)\b(versus|vs\.?)\b`),
			regexp.MustCompile(`(?i)\bdifference between\b`),
			regexp.MustCompile(`(?i)\b(better|worse) than\b`),
		},
	},
	{
		intent: IntentAggregation,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bsummar(y|ize|ise)\b`),
			regexp.MustCompile(`(?i)\boverall\b`),
			regexp.MustCompile(`(?i)\b(list|all of) the\b`),
			regexp.MustCompile(`(?i)\bhow (often|many times)\b`),
			regexp.MustCompile(`(?i)\bmain (points|topics|takeaways)\b`),
		},
	},
	{
		intent: IntentTemporal,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^when\b`),
			regexp.MustCompile(`(?i)\bwhat time\b`),
			regexp.MustCompile(`(?i)\b(before|after|during) the\b`),
			regexp.MustCompile(`(?i)\b(timeline|chronolog)`),
			regexp.MustCompile(`(?i)\b(first|last) (mention|time|thing)\b`),
		},
	},
	{
		intent: IntentFactLookup,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^what (was|is|were|are) the\b`),
			regexp.MustCompile(`(?i)\bhow (much|many)\b`),
			regexp.MustCompile(`(?i)\b(amount|price|cost|number|figure|value|total) of\b`),
			regexp.MustCompile(`(?i)\b(deal|contract) (amount|size|value|price)\b`),
			regexp.MustCompile(`(?i)\bexact(ly)?\b`),
		},
	},
	{
		intent: IntentEntitySearch,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^who\b`),
			regexp.MustCompile(`(?i)\bwhich (company|vendor|person|competitor)\b`),
			regexp.MustCompile(`(?i)\bname of\b`),
			regexp.MustCompile(`(?i)\b(email|phone|contact) (address|number|info)\b`),
			regexp.MustCompile(`(?i)\bmentioned\b`),
		},
	},
	// context_question is the default; its own triggers exist only so
	// explicit matches short-circuit before the fallback.
	{
		intent: IntentContextQuestion,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^why\b`),
			regexp.MustCompile(`(?i)^how did\b`),
			regexp.MustCompile(`(?i)\b(context|explain|elaborate)\b`),
			regexp.MustCompile(`(?i)\bwhat did .+ mean\b`),
		},
	},
}

// behavior is one row of the intent→plan table.
type behavior struct {
	sources      []string
	strategy     string
	topK         int
	rerank       bool
	cacheable    bool
	sparseWeight float64
	denseWeight  float64
	boosts       map[string]map[string]float64
}

// intentBehaviors is the single source of truth for intent→plan mapping.
// It must cover every entry of Intents; New verifies this.
var intentBehaviors = map[Intent]behavior{
	IntentFactLookup: {
		sources:      []string{SourceChildren},
		strategy:     StrategyHybridKeywordHeavy,
		topK:         5,
		rerank:       true,
		cacheable:    true,
		sparseWeight: 0.7,
		denseWeight:  0.3,
	},
	IntentEntitySearch: {
		sources:      []string{SourceChildren},
		strategy:     StrategyHybridKeywordHeavy,
		topK:         10,
		rerank:       false,
		cacheable:    true,
		sparseWeight: 0.6,
		denseWeight:  0.4,
		boosts:       map[string]map[string]float64{"contains_entity": {"true": 1.2}},
	},
	IntentContextQuestion: {
		sources:      []string{SourceChildren, SourceParents},
		strategy:     StrategyDenseSemantic,
		topK:         10,
		rerank:       false,
		cacheable:    false,
		sparseWeight: 0.4,
		denseWeight:  0.6,
	},
	IntentComparison: {
		sources:      []string{SourceParents},
		strategy:     StrategyDenseSemantic,
		topK:         15,
		rerank:       true,
		cacheable:    false,
		sparseWeight: 0.4,
		denseWeight:  0.6,
	},
	IntentAggregation: {
		sources:      []string{SourceParents, SourceChildren},
		strategy:     StrategyHierarchicalSummary,
		topK:         10,
		rerank:       false,
		cacheable:    true,
		sparseWeight: 0.4,
		denseWeight:  0.6,
	},
	IntentTemporal: {
		sources:      []string{SourceChildren},
		strategy:     StrategyHybridKeywordHeavy,
		topK:         10,
		rerank:       false,
		cacheable:    true,
		sparseWeight: 0.5,
		denseWeight:  0.5,
	},
}
