package store

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/convosearch/convosearch/internal/filter"
)

// HNSWStore is the in-process VectorSearcher, backed by coder/hnsw (pure Go,
// no CGO). It stores each vector's payload so filters and hierarchical child
// resolution work without a round trip to an external store.
type HNSWStore struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config VectorStoreConfig

	// ID mapping (string <-> uint64) plus per-ID payloads.
	idMap    map[string]uint64
	keyMap   map[uint64]string
	payloads map[string]map[string]string
	nextKey  uint64

	closed bool
}

var _ VectorSearcher = (*HNSWStore)(nil)

// NewHNSWStore creates a new HNSW-based vector store.
func NewHNSWStore(cfg VectorStoreConfig) (*HNSWStore, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("vector store requires positive dimensions, got %d", cfg.Dimensions)
	}
	if cfg.Metric == "" {
		cfg.Metric = "cos"
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	switch cfg.Metric {
	case "l2":
		graph.Distance = hnsw.EuclideanDistance
	default:
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &HNSWStore{
		graph:    graph,
		config:   cfg,
		idMap:    make(map[string]uint64),
		keyMap:   make(map[uint64]string),
		payloads: make(map[string]map[string]string),
	}, nil
}

// Add inserts vectors with their IDs and payloads. Existing IDs are replaced
// via lazy deletion: the old graph node is orphaned rather than removed,
// which avoids coder/hnsw issues when deleting the last node.
func (s *HNSWStore) Add(ctx context.Context, ids []string, vectors [][]float32, payloads []map[string]string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	if payloads != nil && len(payloads) != len(ids) {
		return fmt.Errorf("ids and payloads length mismatch: %d vs %d", len(ids), len(payloads))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, v := range vectors {
		if len(v) != s.config.Dimensions {
			return fmt.Errorf("dimension mismatch: expected %d, got %d", s.config.Dimensions, len(v))
		}
	}

	for i, id := range ids {
		if existingKey, exists := s.idMap[id]; exists {
			delete(s.keyMap, existingKey)
			delete(s.idMap, id)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		if s.config.Metric == "cos" {
			normalizeVectorInPlace(vec)
		}

		s.graph.Add(hnsw.MakeNode(key, vec))
		s.idMap[id] = key
		s.keyMap[key] = id
		if payloads != nil {
			s.payloads[id] = payloads[i]
		}
	}
	return nil
}

// Search implements VectorSearcher. When filters are present the graph is
// oversampled so filtered-out neighbors do not starve the result; exact
// post-filter recall is not guaranteed (approximate index, approximate
// filtering).
func (s *HNSWStore) Search(ctx context.Context, query []float32, filters filter.Set, topK int) ([]*VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	if len(query) != s.config.Dimensions {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", s.config.Dimensions, len(query))
	}
	if s.graph.Len() == 0 || topK <= 0 {
		return []*VectorHit{}, nil
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	if s.config.Metric == "cos" {
		normalizeVectorInPlace(normalized)
	}

	fetch := topK
	if len(filters) > 0 {
		fetch = topK * 4
	}
	if total := len(s.idMap); fetch > total {
		fetch = total
	}

	nodes := s.graph.Search(normalized, fetch)

	hits := make([]*VectorHit, 0, topK)
	for _, node := range nodes {
		id, exists := s.keyMap[node.Key]
		if !exists {
			continue // lazily deleted
		}
		payload := s.payloads[id]
		if filters != nil && !filters.MatchesAll(payload) {
			continue
		}

		distance := s.graph.Distance(normalized, node.Value)
		hits = append(hits, &VectorHit{
			ID:      id,
			Score:   distanceToScore(distance, s.config.Metric),
			Payload: payload,
		})
		if len(hits) >= topK {
			break
		}
	}
	return hits, nil
}

// Payload returns the stored payload for an ID, or nil if absent.
func (s *HNSWStore) Payload(id string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payloads[id]
}

// Count returns the number of live vectors.
func (s *HNSWStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idMap)
}

// Close releases the store. Idempotent.
func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// normalizeVectorInPlace scales v to unit length. Zero vectors are left
// unchanged.
func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return
	}
	for i, val := range v {
		v[i] = float32(float64(val) / magnitude)
	}
}

// distanceToScore converts a distance to a normalized similarity in [0, 1].
func distanceToScore(distance float32, metric string) float32 {
	switch metric {
	case "l2":
		return 1 / (1 + distance)
	default:
		// Cosine distance ranges [0, 2].
		score := 1 - distance/2
		if score < 0 {
			return 0
		}
		return score
	}
}
