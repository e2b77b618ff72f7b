package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuse_Scores(t *testing.T) {
	lists := []RankedList{
		{Weight: 0.7, IDs: []string{"a", "b"}},
		{Weight: 0.3, IDs: []string{"b", "a"}},
	}

	results := Fuse(lists, 60)

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ChunkID)
	assert.InDelta(t, 0.7/61+0.3/62, results[0].Score, 1e-12)
	assert.Equal(t, "b", results[1].ChunkID)
	assert.InDelta(t, 0.7/62+0.3/61, results[1].Score, 1e-12)
	assert.Equal(t, SourceFused, results[0].Source)
}

func TestFuse_Deterministic(t *testing.T) {
	lists := []RankedList{
		{Weight: 0.4, IDs: []string{"a", "b", "c"}},
		{Weight: 0.6, IDs: []string{"c", "a", "d"}},
	}

	first := Fuse(lists, 60)
	second := Fuse(lists, 60)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ChunkID, second[i].ChunkID)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestFuse_TopOfBothListsDominates(t *testing.T) {
	lists := []RankedList{
		{Weight: 0.5, IDs: []string{"winner", "b", "c"}},
		{Weight: 0.5, IDs: []string{"winner", "c", "d"}},
	}

	results := Fuse(lists, 60)

	require.NotEmpty(t, results)
	assert.Equal(t, "winner", results[0].ChunkID)
	for _, r := range results[1:] {
		assert.Less(t, r.Score, results[0].Score)
	}
}

func TestFuse_AbsentFromListContributesZero(t *testing.T) {
	onlySparse := Fuse([]RankedList{
		{Weight: 0.7, IDs: []string{"a"}},
		{Weight: 0.3, IDs: nil},
	}, 60)

	require.Len(t, onlySparse, 1)
	assert.InDelta(t, 0.7/61, onlySparse[0].Score, 1e-12)
}

func TestFuse_TiesKeepFirstSeenOrder(t *testing.T) {
	// Equal weights, rank 0 in separate lists: identical scores.
	results := Fuse([]RankedList{
		{Weight: 0.5, IDs: []string{"first"}},
		{Weight: 0.5, IDs: []string{"second"}},
	}, 60)

	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, "first", results[0].ChunkID)
	assert.Equal(t, "second", results[1].ChunkID)
}

func TestFuse_EmptyInput(t *testing.T) {
	results := Fuse(nil, 60)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFuse_DefaultKWhenNonPositive(t *testing.T) {
	results := Fuse([]RankedList{{Weight: 1, IDs: []string{"a"}}}, 0)

	require.Len(t, results, 1)
	assert.InDelta(t, 1.0/61, results[0].Score, 1e-12)
}
