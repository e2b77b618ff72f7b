// Package chunk converts ordered dialogue turns into a two-level
// parent/child chunk hierarchy suitable for hybrid retrieval.
// Children map 1:1 to turns; parents group children by conversation phase
// into fixed-size windows.
package chunk

// Intent is the classified purpose of a single turn, produced upstream.
type Intent string

const (
	IntentQuestion  Intent = "question"
	IntentStatement Intent = "statement"
	IntentObjection Intent = "objection"
	IntentAgreement Intent = "agreement"
	IntentRequest   Intent = "request"
)

// Sentiment is the turn-level sentiment polarity, produced upstream.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// DiscourseMarker flags a turn that signals conversational structure.
type DiscourseMarker string

const (
	MarkerTopicShift  DiscourseMarker = "topic_shift"
	MarkerContrast    DiscourseMarker = "contrast"
	MarkerConclusion  DiscourseMarker = "conclusion"
	MarkerElaboration DiscourseMarker = "elaboration"
)

// Turn is one dialogue turn from the upstream transcript parser.
// Immutable once produced.
type Turn struct {
	Speaker         string          `json:"speaker"`
	Text            string          `json:"text"`
	Timestamp       string          `json:"timestamp"` // "HH:MM:SS", "MM:SS", or seconds
	Phase           string          `json:"phase,omitempty"`
	Intent          Intent          `json:"intent,omitempty"`
	Sentiment       Sentiment       `json:"sentiment,omitempty"`
	DiscourseMarker DiscourseMarker `json:"discourse_marker,omitempty"`
	ContainsEntity  bool            `json:"contains_entity,omitempty"`
}

// PhaseBoundary marks where a conversation phase begins.
type PhaseBoundary struct {
	Phase          string `json:"phase"`
	StartTimestamp string `json:"start_timestamp"`
}

// Kind discriminates child and parent chunks.
type Kind string

const (
	KindChild  Kind = "child"
	KindParent Kind = "parent"
)

// Chunk is a retrievable unit of dialogue with metadata.
// A child chunk wraps exactly one turn; a parent chunk aggregates an ordered
// window of children from the same conversation phase.
type Chunk struct {
	ID                string     `json:"chunk_id"`
	ParentID          string     `json:"parent_id,omitempty"` // children only; empty when ungrouped
	Kind              Kind       `json:"kind"`
	Text              string     `json:"text"`
	ConversationPhase string     `json:"conversation_phase,omitempty"`
	SalesStage        SalesStage `json:"sales_stage"`
	DetectedTopics    []string   `json:"detected_topics,omitempty"`

	// Child-only fields.
	Speaker         string          `json:"speaker,omitempty"`
	StartTime       float64         `json:"start_time,omitempty"`
	EndTime         float64         `json:"end_time,omitempty"`
	TurnIndex       int             `json:"turn_index"`
	Intent          Intent          `json:"intent,omitempty"`
	Sentiment       Sentiment       `json:"sentiment,omitempty"`
	DiscourseMarker DiscourseMarker `json:"discourse_marker,omitempty"`
	ContainsEntity  bool            `json:"contains_entity,omitempty"`

	// Parent-only fields.
	TimestampStart float64  `json:"timestamp_start,omitempty"`
	TimestampEnd   float64  `json:"timestamp_end,omitempty"`
	TurnCount      int      `json:"turn_count,omitempty"`
	SpeakerBalance float64  `json:"speaker_balance,omitempty"`
	Speakers       []string `json:"speakers,omitempty"`
	ChildChunkIDs  []string `json:"child_chunk_ids,omitempty"`
}

// Metadata flattens the chunk's filterable fields into the string map the
// sparse index and vector store payloads carry.
func (c *Chunk) Metadata() map[string]string {
	m := map[string]string{
		"kind":        string(c.Kind),
		"sales_stage": string(c.SalesStage),
	}
	if c.ConversationPhase != "" {
		m["conversation_phase"] = c.ConversationPhase
	}
	if c.Kind == KindChild {
		m["speaker"] = c.Speaker
		if c.Intent != "" {
			m["intent"] = string(c.Intent)
		}
		if c.Sentiment != "" {
			m["sentiment"] = string(c.Sentiment)
		}
		if c.ContainsEntity {
			m["contains_entity"] = "true"
		}
	}
	return m
}
