// Package telemetry collects retrieval metrics for tuning the router and
// strategies. All data stays in process memory - nothing is reported
// externally.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/convosearch/convosearch/internal/router"
)

// LatencyBucket is a retrieval latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// RetrievalEvent is one executed query, as seen by the metrics collector.
type RetrievalEvent struct {
	Query       string
	Intent      router.Intent
	Strategy    string
	ResultCount int
	Degraded    bool
	Latency     time.Duration
	Timestamp   time.Time
}

// IsZeroResult reports whether the query returned nothing.
func (e RetrievalEvent) IsZeroResult() bool {
	return e.ResultCount == 0
}

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	items    []T
	head     int // next write position
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a circular buffer with the given capacity.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add appends an item, evicting the oldest when full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity

	if b.size < b.capacity {
		b.size++
	}
}

// Items returns the buffered items oldest-first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return []T{}
	}

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Size returns the current number of items.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Clear removes all items.
func (b *CircularBuffer[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.size = 0
}

// ExtractTerms pulls searchable terms from a query: lowercased words of at
// least three characters.
func ExtractTerms(query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var terms []string
	for _, w := range strings.Fields(query) {
		if len(w) >= 3 {
			terms = append(terms, w)
		}
	}
	return terms
}

// TermCount is a term and its frequency.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is an immutable view of collected metrics.
type Snapshot struct {
	IntentCounts        map[router.Intent]int64 `json:"intent_counts"`
	StrategyCounts      map[string]int64        `json:"strategy_counts"`
	TopTerms            []TermCount             `json:"top_terms"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TotalQueries        int64                   `json:"total_queries"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	DegradedCount       int64                   `json:"degraded_count"`
	ExactRepeatCount    int64                   `json:"exact_repeat_count"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of zero-result queries in percent.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

// DegradedPercentage returns the share of degraded retrievals in percent.
func (s *Snapshot) DegradedPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.DegradedCount) / float64(s.TotalQueries) * 100
}

// Config sizes the metrics collector's bounded state.
type Config struct {
	TopTermsCapacity      int // max terms tracked (default: 100)
	ZeroResultsCapacity   int // max zero-result queries kept (default: 100)
	RecentQueriesCapacity int // max query hashes for repeat detection (default: 500)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TopTermsCapacity:      100,
		ZeroResultsCapacity:   100,
		RecentQueriesCapacity: 500,
	}
}

// Metrics collects retrieval telemetry. Safe for concurrent use.
type Metrics struct {
	mu sync.RWMutex

	intents          map[router.Intent]int64
	strategies       map[string]int64
	topTerms         *lru.Cache[string, int64]
	zeroResults      *CircularBuffer[string]
	latencies        map[LatencyBucket]int64
	recentQueries    *lru.Cache[string, struct{}]
	totalQueries     int64
	zeroResultCount  int64
	degradedCount    int64
	exactRepeatCount int64
	startTime        time.Time
	closed           bool
}

// New creates a metrics collector with default configuration.
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a metrics collector with custom capacities.
func NewWithConfig(cfg Config) *Metrics {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = 100
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = 100
	}
	if cfg.RecentQueriesCapacity <= 0 {
		cfg.RecentQueriesCapacity = 500
	}

	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)
	recentQueries, _ := lru.New[string, struct{}](cfg.RecentQueriesCapacity)

	return &Metrics{
		intents:       make(map[router.Intent]int64),
		strategies:    make(map[string]int64),
		topTerms:      topTerms,
		zeroResults:   NewCircularBuffer[string](cfg.ZeroResultsCapacity),
		latencies:     make(map[LatencyBucket]int64),
		recentQueries: recentQueries,
		startTime:     time.Now(),
	}
}

// Record captures one executed retrieval. Non-blocking and thread-safe.
func (m *Metrics) Record(event RetrievalEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.intents[event.Intent]++
	m.strategies[event.Strategy]++
	m.totalQueries++

	for _, term := range ExtractTerms(event.Query) {
		count, _ := m.topTerms.Get(term)
		m.topTerms.Add(term, count+1)
	}

	if event.IsZeroResult() {
		m.zeroResults.Add(event.Query)
		m.zeroResultCount++
	}
	if event.Degraded {
		m.degradedCount++
	}

	m.latencies[LatencyToBucket(event.Latency)]++

	hash := hashQuery(event.Query)
	if _, exists := m.recentQueries.Get(hash); exists {
		m.exactRepeatCount++
	}
	m.recentQueries.Add(hash, struct{}{})
}

// hashQuery normalizes and hashes a query for repeat detection.
func hashQuery(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:16])
}

// Snapshot returns the current metrics for reporting.
func (m *Metrics) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	intents := make(map[router.Intent]int64, len(m.intents))
	for k, v := range m.intents {
		intents[k] = v
	}
	strategies := make(map[string]int64, len(m.strategies))
	for k, v := range m.strategies {
		strategies[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	var topTerms []TermCount
	for _, key := range m.topTerms.Keys() {
		if count, ok := m.topTerms.Peek(key); ok {
			topTerms = append(topTerms, TermCount{Term: key, Count: count})
		}
	}
	// Sort by count descending, stable on insertion order for ties.
	for i := 0; i < len(topTerms); i++ {
		for j := i + 1; j < len(topTerms); j++ {
			if topTerms[j].Count > topTerms[i].Count {
				topTerms[i], topTerms[j] = topTerms[j], topTerms[i]
			}
		}
	}

	return &Snapshot{
		IntentCounts:        intents,
		StrategyCounts:      strategies,
		TopTerms:            topTerms,
		ZeroResultQueries:   m.zeroResults.Items(),
		LatencyDistribution: latencies,
		TotalQueries:        m.totalQueries,
		ZeroResultCount:     m.zeroResultCount,
		DegradedCount:       m.degradedCount,
		ExactRepeatCount:    m.exactRepeatCount,
		Since:               m.startTime,
	}
}

// Close stops accepting events. Idempotent.
func (m *Metrics) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
