package search

import "sort"

// DefaultRRFConstant is the standard RRF smoothing parameter. k=60 is
// empirically validated across domains (used by Azure AI Search,
// OpenSearch, etc.).
const DefaultRRFConstant = 60

// RankedList is one input to fusion: a weight and an ordered list of IDs,
// best first.
type RankedList struct {
	Weight float64
	IDs    []string
}

// Fuse merges ranked lists via Reciprocal Rank Fusion. Each document
// contributes weight/(k+rank+1) per list it appears in, with rank its
// 0-based position; documents absent from a list contribute 0 from it.
// Output covers every document seen in any list, sorted by cumulative
// score descending; ties retain first-seen order, so the result is a
// deterministic function of the inputs.
func Fuse(lists []RankedList, k int) []*ScoredChunk {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	scores := make(map[string]float64)
	var order []string

	for _, list := range lists {
		for rank, id := range list.IDs {
			if _, seen := scores[id]; !seen {
				order = append(order, id)
			}
			scores[id] += list.Weight / float64(k+rank+1)
		}
	}

	results := make([]*ScoredChunk, 0, len(order))
	for _, id := range order {
		results = append(results, &ScoredChunk{
			ChunkID: id,
			Score:   scores[id],
			Source:  SourceFused,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
