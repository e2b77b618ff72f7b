package chunk

import "strings"

// SalesStage is the coarse sales-process stage derived from a chunk's
// conversation phase.
type SalesStage string

const (
	StageOpening           SalesStage = "Opening"
	StageDiscovery         SalesStage = "Discovery"
	StagePresentation      SalesStage = "Presentation"
	StagePricing           SalesStage = "Pricing"
	StageObjectionHandling SalesStage = "ObjectionHandling"
	StageClosing           SalesStage = "Closing"
	StageNextSteps         SalesStage = "NextSteps"
	StageUnknown           SalesStage = "Unknown"
)

// stageRule maps phase-name keywords to a sales stage.
// Rules are checked in order; the first keyword hit wins.
type stageRule struct {
	keywords []string
	stage    SalesStage
}

// stageRules is the single source of truth for phase-to-stage mapping.
// Matching is case-insensitive substring containment, so phase labels from
// different upstream classifiers ("Pricing Discussion", "price talk") land
// on the same stage.
var stageRules = []stageRule{
	{[]string{"pric", "cost", "fee", "budget", "quote"}, StagePricing},
	{[]string{"objection", "rebuttal", "concern", "pushback"}, StageObjectionHandling},
	{[]string{"open", "greet", "intro", "rapport", "small talk"}, StageOpening},
	{[]string{"discover", "need", "qualif", "pain", "question"}, StageDiscovery},
	{[]string{"demo", "present", "pitch", "feature", "solution"}, StagePresentation},
	{[]string{"clos", "commit", "sign", "deal", "contract"}, StageClosing},
	{[]string{"next step", "follow", "schedul", "action item", "wrap"}, StageNextSteps},
}

// StageForPhase resolves a conversation phase label to a sales stage.
// Total: unmapped or empty phases resolve to StageUnknown, never an error.
func StageForPhase(phase string) SalesStage {
	lower := strings.ToLower(phase)
	if lower == "" {
		return StageUnknown
	}
	for _, rule := range stageRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.stage
			}
		}
	}
	return StageUnknown
}
