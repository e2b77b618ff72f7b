package store

import (
	"context"
	"math"
	"sort"

	"github.com/convosearch/convosearch/internal/errors"
	"github.com/convosearch/convosearch/internal/filter"
)

// MemoryBM25Index is the reference SparseIndex: an immutable in-memory
// Okapi BM25 snapshot built once per corpus. Scores are computed for every
// indexed document per query; filters zero scores before ranking rather than
// removing documents from the index.
type MemoryBM25Index struct {
	cfg  BM25Config
	docs []*Document

	termFreqs []map[string]int // per-doc term frequency, corpus order
	docLens   []int
	docFreq   map[string]int // term -> number of docs containing it
	avgDocLen float64
}

var _ SparseIndex = (*MemoryBM25Index)(nil)

// BuildMemoryIndex builds an immutable BM25 snapshot over the corpus.
// Returns ErrCodeIndexBuild for an empty corpus; callers treat that as an
// empty sparse contribution, not a fatal error.
func BuildMemoryIndex(corpus []*Document, cfg BM25Config) (*MemoryBM25Index, error) {
	if len(corpus) == 0 {
		return nil, errors.New(errors.ErrCodeIndexBuild, "cannot build sparse index over empty corpus", nil)
	}
	if cfg.K1 <= 0 {
		cfg.K1 = DefaultBM25Config().K1
	}
	if cfg.B <= 0 {
		cfg.B = DefaultBM25Config().B
	}

	idx := &MemoryBM25Index{
		cfg:       cfg,
		docs:      corpus,
		termFreqs: make([]map[string]int, len(corpus)),
		docLens:   make([]int, len(corpus)),
		docFreq:   make(map[string]int),
	}

	var totalLen int
	for i, doc := range corpus {
		tokens := Tokenize(doc.Text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		idx.termFreqs[i] = tf
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)
		for term := range tf {
			idx.docFreq[term]++
		}
	}
	idx.avgDocLen = float64(totalLen) / float64(len(corpus))
	return idx, nil
}

// Search implements SparseIndex.
func (m *MemoryBM25Index) Search(_ context.Context, query string, topK int, filters filter.Set) ([]*BM25Result, error) {
	terms := Tokenize(query)
	if len(terms) == 0 || topK <= 0 {
		return []*BM25Result{}, nil
	}

	type scored struct {
		pos     int
		score   float64
		matched []string
	}

	n := float64(len(m.docs))
	hits := make([]scored, 0, len(m.docs))
	for i, doc := range m.docs {
		var score float64
		var matched []string
		for _, term := range terms {
			tf, ok := m.termFreqs[i][term]
			if !ok {
				continue
			}
			df := float64(m.docFreq[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			norm := 1 - m.cfg.B + m.cfg.B*float64(m.docLens[i])/m.avgDocLen
			score += idf * float64(tf) * (m.cfg.K1 + 1) / (float64(tf) + m.cfg.K1*norm)
			matched = append(matched, term)
		}
		// Filters zero the score pre-ranking; the document stays indexed.
		if filters != nil && !filters.MatchesAll(doc.Metadata) {
			score = 0
		}
		if score > 0 {
			hits = append(hits, scored{pos: i, score: score, matched: matched})
		}
	}

	// Descending score, stable tie-break by original corpus order.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]*BM25Result, len(hits))
	for i, h := range hits {
		results[i] = &BM25Result{
			DocID:        m.docs[h.pos].ID,
			Score:        h.score,
			MatchedTerms: h.matched,
		}
	}
	return results, nil
}

// DocCount implements SparseIndex.
func (m *MemoryBM25Index) DocCount() int { return len(m.docs) }

// Close implements SparseIndex. The snapshot holds no external resources.
func (m *MemoryBM25Index) Close() error { return nil }
