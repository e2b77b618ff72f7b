package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosearch/convosearch/internal/errors"
	"github.com/convosearch/convosearch/internal/filter"
)

func doc(id, text string, meta map[string]string) *Document {
	return &Document{ID: id, Text: text, Metadata: meta}
}

func TestBuildMemoryIndex_EmptyCorpus(t *testing.T) {
	_, err := BuildMemoryIndex(nil, DefaultBM25Config())

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeIndexBuild))
}

func TestMemoryBM25_RanksMatchingDocsFirst(t *testing.T) {
	corpus := []*Document{
		doc("a", "the deal amount was fifty thousand", nil),
		doc("b", "we discussed the weather", nil),
		doc("c", "deal deal deal amount amount", nil),
	}
	idx, err := BuildMemoryIndex(corpus, DefaultBM25Config())
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), "deal amount", 10, nil)
	require.NoError(t, err)

	require.Len(t, results, 2, "zero-score documents are excluded")
	assert.Equal(t, "c", results[0].DocID, "higher term frequency ranks first")
	assert.Equal(t, "a", results[1].DocID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

// Adding an occurrence of a query term to a document must never decrease its
// score for that query.
func TestMemoryBM25_Monotonicity(t *testing.T) {
	base := []*Document{
		doc("target", "pricing discussion about the budget", nil),
		doc("other", "unrelated small talk entirely", nil),
	}
	more := []*Document{
		doc("target", "pricing pricing discussion about the budget", nil),
		doc("other", "unrelated small talk entirely", nil),
	}

	idxBase, err := BuildMemoryIndex(base, DefaultBM25Config())
	require.NoError(t, err)
	idxMore, err := BuildMemoryIndex(more, DefaultBM25Config())
	require.NoError(t, err)

	ctx := context.Background()
	baseResults, err := idxBase.Search(ctx, "pricing", 10, nil)
	require.NoError(t, err)
	moreResults, err := idxMore.Search(ctx, "pricing", 10, nil)
	require.NoError(t, err)

	require.NotEmpty(t, baseResults)
	require.NotEmpty(t, moreResults)
	assert.GreaterOrEqual(t, moreResults[0].Score, baseResults[0].Score)
}

func TestMemoryBM25_FiltersZeroScoresBeforeRanking(t *testing.T) {
	corpus := []*Document{
		doc("agent1", "the price is negotiable", map[string]string{"speaker": "agent"}),
		doc("client1", "what price did you mean", map[string]string{"speaker": "client"}),
	}
	idx, err := BuildMemoryIndex(corpus, DefaultBM25Config())
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), "price", 10, filter.Set{
		"speaker": filter.Exact("client"),
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "client1", results[0].DocID)
	// The filtered document stays in the index.
	assert.Equal(t, 2, idx.DocCount())
}

func TestMemoryBM25_StableTieBreakByCorpusOrder(t *testing.T) {
	// Identical documents produce identical scores; corpus order decides.
	corpus := []*Document{
		doc("first", "identical pricing text", nil),
		doc("second", "identical pricing text", nil),
		doc("third", "identical pricing text", nil),
	}
	idx, err := BuildMemoryIndex(corpus, DefaultBM25Config())
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), "pricing", 10, nil)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].DocID)
	assert.Equal(t, "second", results[1].DocID)
	assert.Equal(t, "third", results[2].DocID)
}

func TestMemoryBM25_TopKBoundsResults(t *testing.T) {
	var corpus []*Document
	for i := 0; i < 20; i++ {
		corpus = append(corpus, doc(string(rune('a'+i)), "pricing talk", nil))
	}
	idx, err := BuildMemoryIndex(corpus, DefaultBM25Config())
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), "pricing", 5, nil)
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestMemoryBM25_EmptyQuery(t *testing.T) {
	idx, err := BuildMemoryIndex([]*Document{doc("a", "text", nil)}, DefaultBM25Config())
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), "   ", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "was", "the", "deal", "amount?"}, Tokenize("What was the DEAL amount?"))
	assert.Empty(t, Tokenize("   "))
}
