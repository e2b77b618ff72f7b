package embed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/convosearch/convosearch/internal/errors"
)

// OpenAI embedding defaults.
const (
	// DefaultOpenAIModel is the default embedding model.
	DefaultOpenAIModel = string(openai.SmallEmbedding3)

	// DefaultOpenAIDimensions is the dimension of text-embedding-3-small.
	DefaultOpenAIDimensions = 1536
)

// OpenAIEmbedder generates embeddings using the OpenAI embeddings API, or any
// OpenAI-compatible endpoint via BaseURL.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dims      int
	batchSize int

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates a new OpenAI embedder.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "OpenAI API key is required", nil)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultOpenAIDimensions
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = DefaultBatchSize
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     openai.EmbeddingModel(cfg.Model),
		dims:      cfg.Dimensions,
		batchSize: cfg.BatchSize,
	}, nil
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dims), nil
	}

	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, preserving order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeUpstreamTimeout, err)
		}

		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input:      texts[start:end],
			Model:      e.model,
			Dimensions: e.dims,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrap(errors.ErrCodeUpstreamTimeout, ctx.Err())
			}
			return nil, errors.Wrap(errors.ErrCodeEmbeddingFailed, err)
		}
		if len(resp.Data) != end-start {
			return nil, errors.New(errors.ErrCodeEmbeddingFailed,
				fmt.Sprintf("expected %d embeddings, got %d", end-start, len(resp.Data)), nil)
		}

		for i, item := range resp.Data {
			results[start+i] = normalizeVector(item.Embedding)
		}
	}

	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the model identifier.
func (e *OpenAIEmbedder) ModelName() string {
	return string(e.model)
}

// Close releases resources. Idempotent.
func (e *OpenAIEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
