package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesFromCode(t *testing.T) {
	err := New(ErrCodeUpstreamTimeout, "vector store deadline exceeded", nil)

	assert.Equal(t, CategoryUpstream, err.Category)
	assert.Equal(t, SeverityWarning, err.Severity)
	assert.True(t, err.Retryable)
	assert.Equal(t, "[ERR_201_UPSTREAM_TIMEOUT] vector store deadline exceeded", err.Error())
}

func TestCategories(t *testing.T) {
	tests := []struct {
		code string
		want Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeEmbeddingFailed, CategoryUpstream},
		{ErrCodeIndexBuild, CategoryRetrieval},
		{ErrCodeMalformedFilter, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{"bogus", CategoryInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categoryFromCode(tt.code), tt.code)
	}
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestHasCode_UnwrapsChain(t *testing.T) {
	inner := New(ErrCodeIndexBuild, "empty corpus", nil)
	wrapped := fmt.Errorf("building index for transcript: %w", inner)

	assert.True(t, HasCode(wrapped, ErrCodeIndexBuild))
	assert.False(t, HasCode(wrapped, ErrCodeUpstreamTimeout))
	assert.Equal(t, ErrCodeIndexBuild, GetCode(wrapped))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeUnknownStrategy, "no strategy named graph_walk", nil)
	b := New(ErrCodeUnknownStrategy, "different message", nil)

	assert.True(t, stderrors.Is(a, b))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := New(ErrCodeUpstreamUnavailable, "embedding service down", cause)

	require.ErrorIs(t, err, cause)
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCodeSearchFailed, "dense lookup failed", nil).
		WithDetail("source", "transcript_chunks").
		WithDetail("top_k", "10")

	assert.Equal(t, "transcript_chunks", err.Details["source"])
	assert.Equal(t, "10", err.Details["top_k"])
}
