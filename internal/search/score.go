package search

import "sort"

// applyBoosts multiplies chunk scores by the plan's metadata boosts,
// looking up each chunk's payload in the given store. Chunks without a
// payload, and fields without a boost entry, are left untouched.
func applyBoosts(results []*ScoredChunk, boosts map[string]map[string]float64, payloads PayloadLookup) {
	if len(boosts) == 0 || payloads == nil {
		return
	}
	for _, r := range results {
		payload := payloads.Payload(r.ChunkID)
		if payload == nil {
			continue
		}
		for field, factors := range boosts {
			value, ok := payload[field]
			if !ok {
				continue
			}
			if factor, ok := factors[value]; ok {
				r.Score *= factor
			}
		}
	}
}

// dedupeMax collapses duplicate chunk IDs, keeping the maximum score.
// First-seen order is preserved for the survivors.
func dedupeMax(results []*ScoredChunk) []*ScoredChunk {
	best := make(map[string]*ScoredChunk, len(results))
	deduped := make([]*ScoredChunk, 0, len(results))
	for _, r := range results {
		if existing, ok := best[r.ChunkID]; ok {
			if r.Score > existing.Score {
				existing.Score = r.Score
				existing.Source = r.Source
			}
			continue
		}
		best[r.ChunkID] = r
		deduped = append(deduped, r)
	}
	return deduped
}

// sortAndTrim orders by score descending (stable, so ties keep first-seen
// order) and bounds the result to topK.
func sortAndTrim(results []*ScoredChunk, topK int) []*ScoredChunk {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
