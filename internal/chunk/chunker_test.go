package chunk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTurns produces n turns spaced 10s apart, alternating speakers.
func makeTurns(n int, phase string) []Turn {
	turns := make([]Turn, n)
	for i := range turns {
		speaker := "Agent"
		if i%2 == 1 {
			speaker = "Client"
		}
		turns[i] = Turn{
			Speaker:   speaker,
			Text:      fmt.Sprintf("turn number %d", i),
			Timestamp: fmt.Sprintf("%d", i*10),
			Phase:     phase,
		}
	}
	return turns
}

func TestChunk_EmptyInput(t *testing.T) {
	c := New(Options{})
	children, parents := c.Chunk(nil, nil)

	assert.NotNil(t, children)
	assert.NotNil(t, parents)
	assert.Empty(t, children)
	assert.Empty(t, parents)
}

func TestChunk_ChildrenAreOneToOne(t *testing.T) {
	turns := makeTurns(4, "discovery")
	c := New(Options{})

	children, _ := c.Chunk(turns, nil)

	require.Len(t, children, 4)
	for i, child := range children {
		assert.Equal(t, KindChild, child.Kind)
		assert.Equal(t, i, child.TurnIndex)
		assert.Equal(t, turns[i].Text, child.Text)
		assert.Equal(t, turns[i].Speaker, child.Speaker)
	}
}

func TestChunk_ChildTimes(t *testing.T) {
	turns := []Turn{
		{Speaker: "Agent", Text: "a", Timestamp: "00:00"},
		{Speaker: "Client", Text: "b", Timestamp: "00:30"},
		{Speaker: "Agent", Text: "c", Timestamp: "01:00"},
	}
	c := New(Options{})

	children, _ := c.Chunk(turns, nil)

	require.Len(t, children, 3)
	assert.Equal(t, 0.0, children[0].StartTime)
	assert.Equal(t, 30.0, children[0].EndTime)
	assert.Equal(t, 30.0, children[1].StartTime)
	assert.Equal(t, 60.0, children[1].EndTime)
	// Final turn has no successor: default 15s duration.
	assert.Equal(t, 60.0, children[2].StartTime)
	assert.Equal(t, 75.0, children[2].EndTime)
}

func TestChunk_UnparsableTimestampDefaultsToZero(t *testing.T) {
	turns := []Turn{
		{Speaker: "Agent", Text: "a", Timestamp: "garbage"},
		{Speaker: "Client", Text: "b", Timestamp: "also bad"},
	}
	c := New(Options{})

	children, _ := c.Chunk(turns, nil)

	require.Len(t, children, 2)
	assert.Equal(t, 0.0, children[0].StartTime)
	assert.Equal(t, 0.0, children[1].StartTime)
}

// Two phases of 6 turns each with a window of 7: each phase yields a single
// group of 6, which meets the minimum, so no merge happens.
func TestChunk_TwoPhasesSixTurnsEach(t *testing.T) {
	turns := append(makeTurns(6, "discovery"), makeTurns(6, "pricing discussion")...)
	for i := range turns {
		turns[i].Timestamp = fmt.Sprintf("%d", i*10)
	}
	boundaries := []PhaseBoundary{
		{Phase: "discovery", StartTimestamp: "0"},
		{Phase: "pricing discussion", StartTimestamp: "60"},
	}
	c := New(Options{TurnsPerParent: 7, MinTurnsPerParent: 5})

	children, parents := c.Chunk(turns, boundaries)

	require.Len(t, children, 12)
	require.Len(t, parents, 2)
	assert.Equal(t, 6, parents[0].TurnCount)
	assert.Equal(t, 6, parents[1].TurnCount)
	assert.Equal(t, "discovery", parents[0].ConversationPhase)
	assert.Equal(t, "pricing discussion", parents[1].ConversationPhase)
	assert.Equal(t, StagePricing, parents[1].SalesStage)
}

// Eight turns in a single phase with a window of 7: the trailing single turn
// is under the minimum and merges into the first parent.
func TestChunk_TrailingGroupMerged(t *testing.T) {
	turns := makeTurns(8, "discovery")
	c := New(Options{TurnsPerParent: 7, MinTurnsPerParent: 5})

	children, parents := c.Chunk(turns, nil)

	require.Len(t, children, 8)
	require.Len(t, parents, 1)
	assert.Equal(t, 8, parents[0].TurnCount)
	assert.Len(t, parents[0].ChildChunkIDs, 8)
}

func TestChunk_SoleUndersizedGroupStandsAlone(t *testing.T) {
	turns := makeTurns(3, "intro")
	c := New(Options{TurnsPerParent: 7, MinTurnsPerParent: 5})

	_, parents := c.Chunk(turns, nil)

	require.Len(t, parents, 1)
	assert.Equal(t, 3, parents[0].TurnCount)
}

func TestChunk_NoPhaseMetadataFallsBackToFixedWindows(t *testing.T) {
	turns := makeTurns(14, "")
	c := New(Options{TurnsPerParent: 7, MinTurnsPerParent: 5})

	_, parents := c.Chunk(turns, nil)

	require.Len(t, parents, 2)
	assert.Equal(t, 7, parents[0].TurnCount)
	assert.Equal(t, 7, parents[1].TurnCount)
}

// Every child's ParentID must point at exactly one parent, and that parent
// must list the child exactly once.
func TestChunk_ParentChildLinkingInvariant(t *testing.T) {
	turns := append(makeTurns(9, "discovery"), makeTurns(8, "pricing")...)
	for i := range turns {
		turns[i].Timestamp = fmt.Sprintf("%d", i*10)
	}
	boundaries := []PhaseBoundary{{Phase: "discovery", StartTimestamp: "0"}}
	c := New(Options{})

	children, parents := c.Chunk(turns, boundaries)

	parentByID := make(map[string]*Chunk, len(parents))
	for _, p := range parents {
		parentByID[p.ID] = p
	}

	for _, child := range children {
		require.NotEmpty(t, child.ParentID)
		parent, ok := parentByID[child.ParentID]
		require.True(t, ok, "child references nonexistent parent")

		occurrences := 0
		for _, id := range parent.ChildChunkIDs {
			if id == child.ID {
				occurrences++
			}
		}
		assert.Equal(t, 1, occurrences, "child must appear exactly once in parent")
	}

	for _, p := range parents {
		assert.Equal(t, len(p.ChildChunkIDs), p.TurnCount)
	}
}

// Concatenating children in turn order must reproduce the original turn
// sequence verbatim.
func TestChunk_RoundTrip(t *testing.T) {
	turns := append(makeTurns(7, "discovery"), makeTurns(6, "closing")...)
	for i := range turns {
		turns[i].Timestamp = fmt.Sprintf("%d", i*10)
		turns[i].Text = fmt.Sprintf("unique text %d", i)
	}
	c := New(Options{})

	children, _ := c.Chunk(turns, []PhaseBoundary{{Phase: "discovery", StartTimestamp: "0"}})

	require.Len(t, children, len(turns))
	for i, child := range children {
		assert.Equal(t, i, child.TurnIndex)
		assert.Equal(t, turns[i].Text, child.Text)
		assert.Equal(t, turns[i].Speaker, child.Speaker)
	}
}

func TestChunk_ParentAggregation(t *testing.T) {
	turns := []Turn{
		{Speaker: "Agent", Text: "what is your budget", Timestamp: "0", Phase: "pricing talk"},
		{Speaker: "Client", Text: "around 50k, but the price matters", Timestamp: "10", Phase: "pricing talk"},
		{Speaker: "Client", Text: "we also need api integration", Timestamp: "20", Phase: "pricing talk"},
		{Speaker: "Agent", Text: "our fee covers support", Timestamp: "30", Phase: "pricing talk"},
		{Speaker: "Client", Text: "send the contract terms", Timestamp: "40", Phase: "pricing talk"},
	}
	c := New(Options{TurnsPerParent: 5, MinTurnsPerParent: 2})

	_, parents := c.Chunk(turns, []PhaseBoundary{{Phase: "pricing talk", StartTimestamp: "0"}})

	require.Len(t, parents, 1)
	p := parents[0]

	// 3 of 5 turns come from the client side.
	assert.InDelta(t, 0.6, p.SpeakerBalance, 1e-9)
	assert.Equal(t, []string{"Agent", "Client"}, p.Speakers)
	assert.Equal(t, StagePricing, p.SalesStage)
	assert.Equal(t, 0.0, p.TimestampStart)
	assert.Equal(t, 55.0, p.TimestampEnd)

	// Text joins turns as "[timestamp] speaker: text" in order.
	assert.Contains(t, p.Text, "[00:00] Agent: what is your budget")
	assert.Contains(t, p.Text, "[00:40] Client: send the contract terms")

	// Topics union from children.
	assert.Contains(t, p.DetectedTopics, "pricing")
	assert.Contains(t, p.DetectedTopics, "integration")
	assert.Contains(t, p.DetectedTopics, "contract")
	assert.LessOrEqual(t, len(p.DetectedTopics), MaxTopicsPerParent)
}

func TestChunk_MajorityPhaseTieBrokenByFirstOccurrence(t *testing.T) {
	counts := map[string]int{"discovery": 2, "pricing": 2}
	order := []string{"discovery", "pricing"}
	assert.Equal(t, "discovery", majorityPhase(counts, order))
}

func TestChunk_PhaseAssignedFromBoundaries(t *testing.T) {
	turns := []Turn{
		{Speaker: "Agent", Text: "hello there", Timestamp: "0"},
		{Speaker: "Client", Text: "hi", Timestamp: "10"},
		{Speaker: "Agent", Text: "about the cost", Timestamp: "70"},
	}
	boundaries := []PhaseBoundary{
		{Phase: "opening", StartTimestamp: "0"},
		{Phase: "pricing", StartTimestamp: "60"},
	}
	c := New(Options{})

	children, _ := c.Chunk(turns, boundaries)

	assert.Equal(t, "opening", children[0].ConversationPhase)
	assert.Equal(t, "opening", children[1].ConversationPhase)
	assert.Equal(t, "pricing", children[2].ConversationPhase)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"00:01:23", 83},
		{"01:23", 83},
		{"83.5", 83.5},
		{"1m23s", 83},
		{"", 0},
		{"nonsense", 0},
		{"1:xx", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTimestamp(tt.in), "input %q", tt.in)
	}
}
