package embed

import (
	"context"
	"fmt"
)

// Provider identifies an embedding backend.
type Provider string

const (
	ProviderStatic Provider = "static"
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// FactoryConfig selects and configures an embedding provider.
type FactoryConfig struct {
	Provider  Provider
	Ollama    OllamaConfig
	OpenAI    OpenAIConfig
	CacheSize int // 0 = default, negative = no cache
}

// NewEmbedder constructs the configured embedder, wrapped with an LRU cache
// unless CacheSize is negative. The static provider needs no cache: it is
// already cheaper than a cache lookup plus a copy.
func NewEmbedder(ctx context.Context, cfg FactoryConfig) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)

	switch cfg.Provider {
	case ProviderStatic, "":
		return NewStaticEmbedder(), nil
	case ProviderOllama:
		inner, err = NewOllamaEmbedder(ctx, cfg.Ollama)
	case ProviderOpenAI:
		inner, err = NewOpenAIEmbedder(cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize < 0 {
		return inner, nil
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
