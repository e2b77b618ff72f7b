package store

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCache_BuildsOncePerKey(t *testing.T) {
	cache := NewIndexCache(8)
	var builds atomic.Int32

	build := func() (SparseIndex, error) {
		builds.Add(1)
		return BuildMemoryIndex([]*Document{doc("a", "text", nil)}, DefaultBM25Config())
	}

	key := CorpusKey("transcript-1", 1)
	first, err := cache.Get(key, build)
	require.NoError(t, err)
	second, err := cache.Get(key, build)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), builds.Load())
}

func TestIndexCache_ConcurrentGetBuildsOnce(t *testing.T) {
	cache := NewIndexCache(8)
	var builds atomic.Int32

	build := func() (SparseIndex, error) {
		builds.Add(1)
		return BuildMemoryIndex([]*Document{doc("a", "text", nil)}, DefaultBM25Config())
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(CorpusKey("transcript-1", 1), build)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
}

func TestIndexCache_InvalidateForcesRebuild(t *testing.T) {
	cache := NewIndexCache(8)
	var builds atomic.Int32

	build := func() (SparseIndex, error) {
		builds.Add(1)
		return BuildMemoryIndex([]*Document{doc("a", "text", nil)}, DefaultBM25Config())
	}

	key := CorpusKey("transcript-1", 1)
	_, err := cache.Get(key, build)
	require.NoError(t, err)

	cache.Invalidate(key)

	_, err = cache.Get(key, build)
	require.NoError(t, err)
	assert.Equal(t, int32(2), builds.Load())
}

func TestIndexCache_VersionBumpIsNewKey(t *testing.T) {
	cache := NewIndexCache(8)
	var builds atomic.Int32

	build := func() (SparseIndex, error) {
		builds.Add(1)
		return BuildMemoryIndex([]*Document{doc("a", "text", nil)}, DefaultBM25Config())
	}

	_, err := cache.Get(CorpusKey("transcript-1", 1), build)
	require.NoError(t, err)
	_, err = cache.Get(CorpusKey("transcript-1", 2), build)
	require.NoError(t, err)

	assert.Equal(t, int32(2), builds.Load())
	assert.Equal(t, 2, cache.Len())
}
