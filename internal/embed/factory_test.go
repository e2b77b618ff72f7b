package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder_DefaultsToStatic(t *testing.T) {
	e, err := NewEmbedder(context.Background(), FactoryConfig{})
	require.NoError(t, err)

	assert.IsType(t, &StaticEmbedder{}, e)
}

func TestNewEmbedder_WrapsRemoteProvidersWithCache(t *testing.T) {
	srv := fakeOllama(t, 4)

	e, err := NewEmbedder(context.Background(), FactoryConfig{
		Provider: ProviderOllama,
		Ollama:   OllamaConfig{Host: srv.URL, Dimensions: 4, SkipHealthCheck: true},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	assert.IsType(t, &CachedEmbedder{}, e)
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := NewEmbedder(context.Background(), FactoryConfig{Provider: "bogus"})
	assert.Error(t, err)
}
