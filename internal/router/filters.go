package router

import (
	"log/slog"
	"regexp"

	"github.com/convosearch/convosearch/internal/chunk"
	"github.com/convosearch/convosearch/internal/filter"
)

// stageCues maps explicit phase mentions in a query to a sales stage
// filter. Deliberately narrower than chunk.StageForPhase: that mapping
// treats any "question" as Discovery, which is far too aggressive for
// free-form query text.
var stageCues = []struct {
	pattern *regexp.Regexp
	stage   chunk.SalesStage
}{
	{regexp.MustCompile(`(?i)\b(pricing|price|cost|budget|quote)\b`), chunk.StagePricing},
	{regexp.MustCompile(`(?i)\b(objection|pushback|rebuttal)\b`), chunk.StageObjectionHandling},
	{regexp.MustCompile(`(?i)\b(discovery|qualification)\b`), chunk.StageDiscovery},
	{regexp.MustCompile(`(?i)\b(demo|presentation|pitch)\b`), chunk.StagePresentation},
	{regexp.MustCompile(`(?i)\b(opening|introduction|greeting)\b`), chunk.StageOpening},
	{regexp.MustCompile(`(?i)\bclosing\b`), chunk.StageClosing},
	{regexp.MustCompile(`(?i)\b(next steps?|follow[- ]up)\b`), chunk.StageNextSteps},
}

// Role markers. Speaker labels vary across upstream parsers, so role cues
// become membership filters over the common label spellings.
var (
	counterpartyPattern = regexp.MustCompile(`(?i)\b(client|customer|prospect|buyer)\b`)
	agentPattern        = regexp.MustCompile(`(?i)\b(agent|rep|salesperson|seller)\b`)

	counterpartyLabels = []string{"client", "customer", "prospect", "buyer"}
	agentLabels        = []string{"agent", "rep", "salesperson", "seller"}
)

// Sentiment polarity cues.
var (
	positivePattern = regexp.MustCompile(`(?i)\b(positive|happy|excited|pleased|enthusiastic)\b`)
	negativePattern = regexp.MustCompile(`(?i)\b(negative|unhappy|angry|frustrated|upset)\b`)
)

// extractFilters scans the query for domain cues and merges caller-supplied
// context filters. Malformed context filters are dropped with a warning,
// never failing the whole query.
func extractFilters(query string, qctx map[string]any) filter.Set {
	filters := filter.Set{}

	for _, cue := range stageCues {
		if cue.pattern.MatchString(query) {
			filters["sales_stage"] = filter.Exact(string(cue.stage))
			break
		}
	}

	if counterpartyPattern.MatchString(query) {
		if v, err := filter.Membership(counterpartyLabels...); err == nil {
			filters["speaker"] = v
		}
	} else if agentPattern.MatchString(query) {
		if v, err := filter.Membership(agentLabels...); err == nil {
			filters["speaker"] = v
		}
	}

	switch {
	case positivePattern.MatchString(query):
		filters["sentiment"] = filter.Exact("positive")
	case negativePattern.MatchString(query):
		filters["sentiment"] = filter.Exact("negative")
	}

	if qctx != nil {
		if id, ok := qctx["transcript_id"].(string); ok && id != "" {
			filters["transcript_id"] = filter.Exact(id)
		}
		mergeContextFilters(filters, qctx)
	}

	return filters
}

// mergeContextFilters folds caller-supplied filters into the set. Strings
// become exact filters, string slices membership filters, and pre-built
// filter.Values pass through. Anything else is a malformed filter and is
// dropped.
func mergeContextFilters(filters filter.Set, qctx map[string]any) {
	raw, ok := qctx["filters"].(map[string]any)
	if !ok {
		return
	}
	for field, value := range raw {
		switch v := value.(type) {
		case string:
			filters[field] = filter.Exact(v)
		case []string:
			if fv, err := filter.Membership(v...); err == nil {
				filters[field] = fv
			} else {
				slog.Warn("dropping malformed filter",
					slog.String("field", field),
					slog.String("reason", err.Error()))
			}
		case filter.Value:
			filters[field] = v
		default:
			slog.Warn("dropping malformed filter",
				slog.String("field", field),
				slog.String("reason", "unsupported value type"))
		}
	}
}
