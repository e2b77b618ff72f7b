package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedder_Deterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	first, err := e.Embed(ctx, "what was the deal amount")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "what was the deal amount")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, StaticDimensions)
}

func TestStaticEmbedder_NormalizedOutput(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "pricing discussion with the client")
	require.NoError(t, err)

	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
}

func TestStaticEmbedder_EmptyInputIsZeroVector(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)

	assert.Len(t, vec, StaticDimensions)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStaticEmbedder_SimilarTextIsCloser(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	query, err := e.Embed(ctx, "pricing and budget discussion")
	require.NoError(t, err)
	related, err := e.Embed(ctx, "budget and pricing conversation")
	require.NoError(t, err)
	unrelated, err := e.Embed(ctx, "kubernetes cluster deployment")
	require.NoError(t, err)

	assert.Greater(t, dot(query, related), dot(query, unrelated))
}

func TestStaticEmbedder_EmbedBatchPreservesOrder(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	vecs, err := e.EmbedBatch(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	alpha, err := e.Embed(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, alpha, vecs[0])
}

func TestStaticEmbedder_ClosedReturnsError(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
