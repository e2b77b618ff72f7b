package preflight

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/convosearch/convosearch/internal/config"
	"github.com/convosearch/convosearch/internal/embed"
)

// providerProbeTimeout bounds the reachability probe so a hung embedding
// service cannot stall the whole check run.
const providerProbeTimeout = 3 * time.Second

func providerName(cfg *config.Config) string {
	if cfg == nil || cfg.Embeddings.Provider == "" {
		return string(embed.ProviderStatic)
	}
	return cfg.Embeddings.Provider
}

// CheckEmbeddingProvider verifies the configured embedding provider is
// usable. Non-critical: retrieval falls back to static embeddings.
func (c *Checker) CheckEmbeddingProvider(ctx context.Context, cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:     "embedding_provider",
		Required: false,
	}

	switch providerName(cfg) {
	case string(embed.ProviderStatic):
		result.Status = StatusPass
		result.Message = "static embeddings, no service needed"
		return result

	case string(embed.ProviderOllama):
		host := cfg.Embeddings.OllamaHost
		if host == "" {
			host = embed.DefaultOllamaHost
		}
		return c.probeOllama(ctx, host, result)

	case string(embed.ProviderOpenAI):
		if config.OpenAIAPIKey() == "" {
			result.Status = StatusWarn
			result.Message = "no API key set (export CONVOSEARCH_OPENAI_API_KEY)"
			return result
		}
		result.Status = StatusPass
		result.Message = "API key present"
		return result

	default:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("unknown provider %q", cfg.Embeddings.Provider)
		return result
	}
}

// probeOllama checks that the Ollama API answers on its tags endpoint.
func (c *Checker) probeOllama(ctx context.Context, host string, result CheckResult) CheckResult {
	probeCtx, cancel := context.WithTimeout(ctx, providerProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, host+"/api/tags", nil)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("invalid host %q: %v", host, err)
		return result
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Ollama unreachable at %s (start it or switch to static embeddings)", host)
		result.Details = err.Error()
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Ollama answered %d at %s", resp.StatusCode, host)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("Ollama reachable at %s", host)
	return result
}
