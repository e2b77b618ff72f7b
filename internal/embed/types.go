package embed

import (
	"context"
	"math"
	"time"
)

// Common embedding constants.
const (
	// DefaultBatchSize is the default batch size for embedding requests.
	DefaultBatchSize = 32

	// MaxBatchSize caps batch size to prevent memory exhaustion.
	MaxBatchSize = 256

	// DefaultTimeout is the default per-request timeout for remote embedders.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retry attempts.
	DefaultMaxRetries = 3
)

// Static embedder constants.
const (
	// StaticDimensions is the embedding dimension for the static embedder.
	StaticDimensions = 256
)

// Ollama constants.
const (
	// DefaultOllamaHost is the default Ollama API endpoint.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is the default embedding model.
	DefaultOllamaModel = "nomic-embed-text"

	// OllamaPoolSize is the HTTP connection pool size.
	OllamaPoolSize = 4
)

// FallbackOllamaModels are tried in order when the configured model is not
// installed.
var FallbackOllamaModels = []string{
	"nomic-embed-text",
	"mxbai-embed-large",
	"all-minilm",
}

// Embedder generates dense vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	// Empty or whitespace-only input returns a zero vector, not an error.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier, used for cache keys.
	ModelName() string

	// Close releases resources. Idempotent.
	Close() error
}

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	Host           string
	Model          string
	FallbackModels []string
	Dimensions     int // 0 = auto-detect from the first embedding
	BatchSize      int
	Timeout        time.Duration
	MaxRetries     int

	// SkipHealthCheck skips model discovery on construction (tests).
	SkipHealthCheck bool
}

// OpenAIConfig configures the OpenAI embedder.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // optional, for OpenAI-compatible endpoints
	Model      string
	Dimensions int
	BatchSize  int
}

// normalizeVector scales v to unit length. Zero vectors are returned
// unchanged so callers never divide by zero downstream.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
