package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageForPhase(t *testing.T) {
	tests := []struct {
		phase string
		want  SalesStage
	}{
		{"Pricing Discussion", StagePricing},
		{"cost review", StagePricing},
		{"fee negotiation", StagePricing},
		{"Objection Handling", StageObjectionHandling},
		{"rebuttal", StageObjectionHandling},
		{"opening remarks", StageOpening},
		{"needs discovery", StageDiscovery},
		{"product demo", StagePresentation},
		{"closing", StageClosing},
		{"next steps", StageNextSteps},
		{"", StageUnknown},
		{"completely unrelated label", StageUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StageForPhase(tt.phase), "phase %q", tt.phase)
	}
}

func TestDetectTopics_CapAndOrder(t *testing.T) {
	text := "the price and fee fit our budget, send the contract, timeline works, " +
		"competitor comparison done, api integration needed, support and security matter"

	topics := DetectTopics(text, MaxTopicsPerChild)

	assert.Len(t, topics, MaxTopicsPerChild, "capped at top-N")
	// Vocabulary order is deterministic.
	assert.Equal(t, []string{"pricing", "contract", "timeline", "competitors", "integration"}, topics)
}

func TestDetectTopics_Empty(t *testing.T) {
	assert.Empty(t, DetectTopics("", 5))
	assert.Empty(t, DetectTopics("nothing relevant here", 5))
	assert.Empty(t, DetectTopics("price", 0))
}
