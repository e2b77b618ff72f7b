package store

import (
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultIndexCacheSize bounds how many corpus snapshots stay resident.
// Transcripts are indexed whole, so entries are cheap relative to rebuild.
const DefaultIndexCacheSize = 64

// IndexCache caches built sparse indexes keyed by corpus identity
// (transcript id + corpus version). Single-writer builds, unlimited
// concurrent readers: the mutex covers only the build-and-insert path, and
// cached snapshots are immutable. Rebuilding on every call remains available
// by bypassing the cache or calling Invalidate first.
type IndexCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, SparseIndex]
}

// NewIndexCache creates a cache with the given capacity (<= 0 selects the
// default). Evicted indexes are closed.
func NewIndexCache(size int) *IndexCache {
	if size <= 0 {
		size = DefaultIndexCacheSize
	}
	cache, _ := lru.NewWithEvict[string, SparseIndex](size, func(key string, idx SparseIndex) {
		if err := idx.Close(); err != nil {
			slog.Warn("closing evicted sparse index",
				slog.String("corpus", key),
				slog.String("error", err.Error()))
		}
	})
	return &IndexCache{cache: cache}
}

// CorpusKey derives the cache key from a corpus identity and version.
func CorpusKey(corpusID string, version int) string {
	return fmt.Sprintf("%s@%d", corpusID, version)
}

// Get returns the cached index for key, building and caching it on miss.
// Concurrent callers for the same key build at most once.
func (c *IndexCache) Get(key string, build func() (SparseIndex, error)) (SparseIndex, error) {
	if idx, ok := c.cache.Get(key); ok {
		return idx, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check under the lock: another writer may have built it.
	if idx, ok := c.cache.Get(key); ok {
		return idx, nil
	}

	idx, err := build()
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, idx)
	slog.Debug("sparse index built and cached", slog.String("corpus", key))
	return idx, nil
}

// Invalidate drops the cached index for key, closing it. Call when the
// corpus changes (new chunks ingested for the transcript).
func (c *IndexCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(key)
}

// Len returns the number of cached indexes.
func (c *IndexCache) Len() int {
	return c.cache.Len()
}
