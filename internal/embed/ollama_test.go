package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosearch/convosearch/internal/errors"
)

// fakeOllama serves /api/tags and /api/embed with canned responses.
func fakeOllama(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(OllamaModelListResponse{
			Models: []OllamaModelInfo{{Name: "nomic-embed-text:latest"}},
		})
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req OllamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		count := 1
		if inputs, ok := req.Input.([]any); ok {
			count = len(inputs)
		}
		embeddings := make([][]float64, count)
		for i := range embeddings {
			vec := make([]float64, dims)
			vec[0] = 1
			embeddings[i] = vec
		}
		_ = json.NewEncoder(w).Encode(OllamaEmbedResponse{Embeddings: embeddings})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEmbedder_HealthCheckResolvesModel(t *testing.T) {
	srv := fakeOllama(t, 8)

	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:  srv.URL,
		Model: "nomic-embed-text",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	assert.Equal(t, "nomic-embed-text:latest", e.ModelName())
	assert.Equal(t, 8, e.Dimensions(), "dimensions auto-detected")
}

func TestOllamaEmbedder_EmbedBatch(t *testing.T) {
	srv := fakeOllama(t, 4)

	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:            srv.URL,
		Dimensions:      4,
		SkipHealthCheck: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	vecs, err := e.EmbedBatch(context.Background(), []string{"hello", "", "world"})
	require.NoError(t, err)

	require.Len(t, vecs, 3)
	assert.InDelta(t, 1.0, float64(vecs[0][0]), 1e-5, "normalized unit vector")
	assert.Equal(t, make([]float32, 4), vecs[1], "empty text gets a zero vector without an API call")
}

func TestOllamaEmbedder_UnreachableHostFailsConstruction(t *testing.T) {
	_, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:    "http://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
	})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUpstreamUnavailable))
}

func TestOllamaEmbedder_TimeoutIsUpstreamTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:            srv.URL,
		Dimensions:      4,
		Timeout:         50 * time.Millisecond,
		MaxRetries:      1,
		SkipHealthCheck: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	_, err = e.Embed(context.Background(), "slow")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUpstreamTimeout))
}

func TestOllamaEmbedder_ClosedReturnsError(t *testing.T) {
	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:            "http://localhost:11434",
		Dimensions:      4,
		SkipHealthCheck: true,
	})
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "close is idempotent")

	_, err = e.Embed(context.Background(), "text")
	assert.Error(t, err)
}
