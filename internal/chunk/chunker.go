package chunk

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Grouping defaults. A parent window targets TurnsPerParent children; a
// trailing window smaller than MinTurnsPerParent is merged into the previous
// parent of the same phase. MaxTurnsPerParent is a soft cap enforced only
// through the window size.
const (
	DefaultTurnsPerParent    = 7
	DefaultMinTurnsPerParent = 5
	DefaultMaxTurnsPerParent = 10

	// finalTurnDuration is assumed for the last turn, which has no
	// successor to derive an end time from.
	finalTurnDuration = 15.0
)

// DefaultCounterpartyKeywords identify client-side speakers for the
// speaker-balance metric.
var DefaultCounterpartyKeywords = []string{"client", "customer", "prospect", "buyer"}

// Options configures the chunker. Zero values fall back to defaults.
type Options struct {
	TurnsPerParent    int
	MinTurnsPerParent int
	MaxTurnsPerParent int

	// CounterpartyKeywords mark speaker names counted as the counterparty
	// side when computing a parent's speaker balance.
	CounterpartyKeywords []string
}

// Chunker builds the child/parent hierarchy from dialogue turns.
type Chunker struct {
	opts Options
}

// New creates a chunker, applying defaults and clamping the window size to
// the max-turns soft cap.
func New(opts Options) *Chunker {
	if opts.TurnsPerParent <= 0 {
		opts.TurnsPerParent = DefaultTurnsPerParent
	}
	if opts.MinTurnsPerParent <= 0 {
		opts.MinTurnsPerParent = DefaultMinTurnsPerParent
	}
	if opts.MaxTurnsPerParent <= 0 {
		opts.MaxTurnsPerParent = DefaultMaxTurnsPerParent
	}
	if opts.TurnsPerParent > opts.MaxTurnsPerParent {
		opts.TurnsPerParent = opts.MaxTurnsPerParent
	}
	if len(opts.CounterpartyKeywords) == 0 {
		opts.CounterpartyKeywords = DefaultCounterpartyKeywords
	}
	return &Chunker{opts: opts}
}

// Chunk converts ordered turns into child chunks (1:1 with turns) and parent
// chunks grouping children by conversation phase. Chunking is lossless:
// concatenating children in turn order reproduces the turn sequence.
// Empty input yields empty slices, never nil maps downstream.
func (c *Chunker) Chunk(turns []Turn, boundaries []PhaseBoundary) (children, parents []*Chunk) {
	children = make([]*Chunk, 0, len(turns))
	parents = make([]*Chunk, 0)
	if len(turns) == 0 {
		return children, parents
	}

	children = c.buildChildren(turns, boundaries)

	groups := groupByPhase(children, len(boundaries) > 0)
	for _, group := range groups {
		parents = append(parents, c.buildParents(group)...)
	}
	return children, parents
}

// buildChildren maps each turn to exactly one child chunk, deriving start and
// end times from consecutive timestamps.
func (c *Chunker) buildChildren(turns []Turn, boundaries []PhaseBoundary) []*Chunk {
	children := make([]*Chunk, len(turns))
	for i, turn := range turns {
		start := ParseTimestamp(turn.Timestamp)
		end := start + finalTurnDuration
		if i+1 < len(turns) {
			end = ParseTimestamp(turns[i+1].Timestamp)
		}

		phase := turn.Phase
		if phase == "" {
			phase = phaseAt(boundaries, start)
		}

		children[i] = &Chunk{
			ID:                uuid.NewString(),
			Kind:              KindChild,
			Text:              turn.Text,
			ConversationPhase: phase,
			SalesStage:        StageForPhase(phase),
			DetectedTopics:    DetectTopics(turn.Text, MaxTopicsPerChild),
			Speaker:           turn.Speaker,
			StartTime:         start,
			EndTime:           end,
			TurnIndex:         i,
			Intent:            turn.Intent,
			Sentiment:         turn.Sentiment,
			DiscourseMarker:   turn.DiscourseMarker,
			ContainsEntity:    turn.ContainsEntity,
		}
	}
	return children
}

// groupByPhase partitions children into consecutive runs of the same phase.
// Without phase metadata there is a single run over the whole sequence.
func groupByPhase(children []*Chunk, havePhases bool) [][]*Chunk {
	if !havePhases {
		return [][]*Chunk{children}
	}
	var groups [][]*Chunk
	var current []*Chunk
	for _, child := range children {
		if len(current) > 0 && child.ConversationPhase != current[len(current)-1].ConversationPhase {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, child)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// buildParents windows one phase group into parents of TurnsPerParent
// children. A trailing window smaller than MinTurnsPerParent merges into the
// preceding parent; the sole window of a group always stands alone.
func (c *Chunker) buildParents(group []*Chunk) []*Chunk {
	var windows [][]*Chunk
	for start := 0; start < len(group); start += c.opts.TurnsPerParent {
		end := start + c.opts.TurnsPerParent
		if end > len(group) {
			end = len(group)
		}
		windows = append(windows, group[start:end])
	}

	if n := len(windows); n > 1 && len(windows[n-1]) < c.opts.MinTurnsPerParent {
		windows[n-2] = append(append([]*Chunk{}, windows[n-2]...), windows[n-1]...)
		windows = windows[:n-1]
	}

	parents := make([]*Chunk, 0, len(windows))
	for _, window := range windows {
		parents = append(parents, c.aggregateParent(window))
	}
	return parents
}

// aggregateParent builds one parent chunk from an ordered child window and
// links the children back to it.
func (c *Chunker) aggregateParent(window []*Chunk) *Chunk {
	parent := &Chunk{
		ID:             uuid.NewString(),
		Kind:           KindParent,
		TurnCount:      len(window),
		TimestampStart: window[0].StartTime,
		TimestampEnd:   window[len(window)-1].EndTime,
	}

	var (
		lines        []string
		topicLists   [][]string
		childIDs     []string
		speakers     []string
		speakerSeen  = make(map[string]struct{})
		phaseCounts  = make(map[string]int)
		phaseOrder   []string
		counterparty int
	)
	for _, child := range window {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", formatTimestamp(child.StartTime), child.Speaker, child.Text))
		topicLists = append(topicLists, child.DetectedTopics)
		childIDs = append(childIDs, child.ID)
		child.ParentID = parent.ID

		if _, ok := speakerSeen[child.Speaker]; !ok {
			speakerSeen[child.Speaker] = struct{}{}
			speakers = append(speakers, child.Speaker)
		}
		if _, ok := phaseCounts[child.ConversationPhase]; !ok {
			phaseOrder = append(phaseOrder, child.ConversationPhase)
		}
		phaseCounts[child.ConversationPhase]++
		if c.isCounterparty(child.Speaker) {
			counterparty++
		}
	}

	parent.Text = strings.Join(lines, "\n")
	parent.DetectedTopics = unionTopics(topicLists, MaxTopicsPerParent)
	parent.ChildChunkIDs = childIDs
	parent.Speakers = speakers
	parent.SpeakerBalance = float64(counterparty) / float64(len(window))
	parent.ConversationPhase = majorityPhase(phaseCounts, phaseOrder)
	parent.SalesStage = StageForPhase(parent.ConversationPhase)
	return parent
}

// majorityPhase picks the most frequent phase, ties broken by first
// occurrence order.
func majorityPhase(counts map[string]int, order []string) string {
	best, bestCount := "", -1
	for _, phase := range order {
		if counts[phase] > bestCount {
			best, bestCount = phase, counts[phase]
		}
	}
	return best
}

func (c *Chunker) isCounterparty(speaker string) bool {
	lower := strings.ToLower(speaker)
	for _, kw := range c.opts.CounterpartyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// phaseAt returns the phase of the latest boundary starting at or before the
// given time. Boundaries are ordered by start timestamp.
func phaseAt(boundaries []PhaseBoundary, at float64) string {
	phase := ""
	for _, b := range boundaries {
		if ParseTimestamp(b.StartTimestamp) <= at {
			phase = b.Phase
		} else {
			break
		}
	}
	return phase
}

// ParseTimestamp converts a transcript timestamp into seconds. It accepts
// "HH:MM:SS", "MM:SS", plain seconds ("83.5"), and Go duration strings
// ("1m23s"). Unparsable input defaults to 0 rather than failing.
func ParseTimestamp(ts string) float64 {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return 0
	}
	if strings.Contains(ts, ":") {
		parts := strings.Split(ts, ":")
		var total float64
		for _, p := range parts {
			n, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return 0
			}
			total = total*60 + n
		}
		return total
	}
	if n, err := strconv.ParseFloat(ts, 64); err == nil {
		return n
	}
	if d, err := time.ParseDuration(ts); err == nil {
		return d.Seconds()
	}
	return 0
}

// formatTimestamp renders seconds as "MM:SS" (or "H:MM:SS" past an hour) for
// parent text assembly.
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
