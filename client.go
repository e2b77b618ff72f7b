// Package convosearch is the hybrid retrieval core for dialogue
// transcripts: it chunks dialogue turns into a parent/child hierarchy,
// indexes the chunks for keyword and vector search, routes queries to
// intent-matched retrieval strategies, and fuses rankings with RRF.
package convosearch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/convosearch/convosearch/internal/chunk"
	"github.com/convosearch/convosearch/internal/config"
	"github.com/convosearch/convosearch/internal/embed"
	"github.com/convosearch/convosearch/internal/errors"
	"github.com/convosearch/convosearch/internal/router"
	"github.com/convosearch/convosearch/internal/search"
	"github.com/convosearch/convosearch/internal/store"
	"github.com/convosearch/convosearch/internal/telemetry"
)

// Client composes the chunker, router, indexes, and retrieval engine behind
// the three operations external callers use: Chunk, Route, and Retrieve.
// Construct one per process and share it; all methods are safe for
// concurrent use.
type Client struct {
	cfg      *config.Config
	chunker  *chunk.Chunker
	router   *router.Router
	embedder embed.Embedder
	metrics  *telemetry.Metrics

	indexCache *store.IndexCache

	// mu guards the corpora, backends, and the engine built from them;
	// retrievals take the read side, ingest swaps under the write side.
	mu         sync.RWMutex
	corpora    map[string][]*store.Document
	generation map[string]int
	backends   search.Backends
	vectors    map[string]*store.HNSWStore
	engine     *search.Engine
}

// ClientOption customizes client construction.
type ClientOption func(*clientOptions)

type clientOptions struct {
	embedder embed.Embedder
}

// WithEmbedder overrides the configured embedding provider, e.g. to inject
// a fake in tests.
func WithEmbedder(e embed.Embedder) ClientOption {
	return func(o *clientOptions) {
		o.embedder = e
	}
}

// New constructs a Client from configuration.
func New(ctx context.Context, cfg *config.Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var options clientOptions
	for _, opt := range opts {
		opt(&options)
	}

	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = embed.NewEmbedder(ctx, embed.FactoryConfig{
			Provider: embed.Provider(cfg.Embeddings.Provider),
			Ollama: embed.OllamaConfig{
				Host:       cfg.Embeddings.OllamaHost,
				Model:      cfg.Embeddings.Model,
				Dimensions: cfg.Embeddings.Dimensions,
				BatchSize:  cfg.Embeddings.BatchSize,
			},
			OpenAI: embed.OpenAIConfig{
				APIKey:     config.OpenAIAPIKey(),
				BaseURL:    cfg.Embeddings.OpenAIBaseURL,
				Model:      cfg.Embeddings.Model,
				Dimensions: cfg.Embeddings.Dimensions,
				BatchSize:  cfg.Embeddings.BatchSize,
			},
			CacheSize: cfg.Embeddings.CacheSize,
		})
		if err != nil {
			return nil, err
		}
	}

	rt, err := router.NewRouter(0)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:        cfg,
		chunker:    chunk.New(chunkerOptions(cfg)),
		router:     rt,
		embedder:   embedder,
		metrics:    telemetry.New(),
		indexCache: store.NewIndexCache(cfg.Search.IndexCacheSize),
		corpora:    map[string][]*store.Document{},
		generation: map[string]int{},
		backends:   search.Backends{},
		vectors:    map[string]*store.HNSWStore{},
	}
	c.engine = search.NewEngine(c.backends, embedder, c.searchConfig())
	return c, nil
}

func chunkerOptions(cfg *config.Config) chunk.Options {
	return chunk.Options{
		TurnsPerParent:       cfg.Chunking.TurnsPerParent,
		MinTurnsPerParent:    cfg.Chunking.MinTurnsPerParent,
		MaxTurnsPerParent:    cfg.Chunking.MaxTurnsPerParent,
		CounterpartyKeywords: cfg.Chunking.CounterpartyKeywords,
	}
}

func (c *Client) searchConfig() search.Config {
	return search.Config{
		RRFConstant:     c.cfg.Search.RRFConstant,
		UpstreamTimeout: c.cfg.Search.UpstreamTimeout.Std(),
	}
}

// Chunk converts ordered dialogue turns into child and parent chunks.
func (c *Client) Chunk(turns []chunk.Turn, boundaries []chunk.PhaseBoundary) (children, parents []*chunk.Chunk) {
	return c.chunker.Chunk(turns, boundaries)
}

// Route classifies the query and returns its retrieval plan.
func (c *Client) Route(query string, qctx map[string]any) *router.QueryPlan {
	return c.router.Route(query, qctx)
}

// Retrieve executes the plan's strategy and returns ranked chunks (or a
// hierarchical result). Recoverable upstream failures surface as a
// Degraded result, never as an error.
func (c *Client) Retrieve(ctx context.Context, plan *router.QueryPlan, query string) (*search.RetrievalResult, error) {
	c.mu.RLock()
	engine := c.engine
	c.mu.RUnlock()

	start := time.Now()
	result, err := engine.Retrieve(ctx, plan, query)
	if err != nil {
		return nil, err
	}

	resultCount := len(result.Results)
	if result.Hierarchical != nil {
		resultCount = len(result.Hierarchical.Summaries) + len(result.Hierarchical.Details)
	}
	c.metrics.Record(telemetry.RetrievalEvent{
		Query:       query,
		Intent:      plan.Intent,
		Strategy:    result.Strategy,
		ResultCount: resultCount,
		Degraded:    result.Degraded,
		Latency:     time.Since(start),
		Timestamp:   start,
	})
	return result, nil
}

// Metrics returns a snapshot of retrieval telemetry since the client was
// created.
func (c *Client) Metrics() *telemetry.Snapshot {
	return c.metrics.Snapshot()
}

// Search is the route-then-retrieve convenience used by most callers.
func (c *Client) Search(ctx context.Context, query string, qctx map[string]any) (*router.QueryPlan, *search.RetrievalResult, error) {
	plan := c.Route(query, qctx)
	result, err := c.Retrieve(ctx, plan, query)
	return plan, result, err
}

// IngestTranscript chunks a transcript and indexes its children and parents
// for both sparse and dense retrieval. version identifies the transcript
// snapshot; re-ingesting the same transcript ID and version replaces its
// documents in the sparse corpus. Retrieval over multiple ingested
// transcripts is scoped with a transcript_id query filter.
func (c *Client) IngestTranscript(
	ctx context.Context,
	transcriptID string,
	version int,
	turns []chunk.Turn,
	boundaries []chunk.PhaseBoundary,
) (children, parents []*chunk.Chunk, err error) {
	children, parents = c.chunker.Chunk(turns, boundaries)

	if err := c.indexSource(ctx, transcriptID, version, router.SourceChildren, children); err != nil {
		return nil, nil, err
	}
	if err := c.indexSource(ctx, transcriptID, version, router.SourceParents, parents); err != nil {
		return nil, nil, err
	}

	c.rebuildEngine()

	slog.Info("transcript ingested",
		slog.String("transcript_id", transcriptID),
		slog.Int("version", version),
		slog.Int("children", len(children)),
		slog.Int("parents", len(parents)))
	return children, parents, nil
}

// indexSource builds the sparse index and fills the vector store for one
// chunk level.
func (c *Client) indexSource(ctx context.Context, transcriptID string, version int, source string, chunks []*chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	corpus := make([]*store.Document, len(chunks))
	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	payloads := make([]map[string]string, len(chunks))

	for i, ch := range chunks {
		meta := ch.Metadata()
		meta["transcript_id"] = transcriptID
		meta["transcript_version"] = strconv.Itoa(version)
		if ch.Kind == chunk.KindParent {
			meta[search.PayloadChildIDsKey] = strings.Join(ch.ChildChunkIDs, ",")
		}
		corpus[i] = &store.Document{ID: ch.ID, Text: ch.Text, Metadata: meta}
		texts[i] = ch.Text
		ids[i] = ch.ID
		payloads[i] = meta
	}

	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %s corpus: %w", source, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Replace any earlier ingest of the same transcript, then index the
	// accumulated corpus so earlier transcripts stay searchable. The
	// filtered corpus goes into a fresh slice: sparse indexes alias the
	// slice they were built over, and in-flight searches may still be
	// reading the old snapshot.
	kept := make([]*store.Document, 0, len(c.corpora[source])+len(corpus))
	for _, doc := range c.corpora[source] {
		if doc.Metadata["transcript_id"] != transcriptID {
			kept = append(kept, doc)
		}
	}
	c.corpora[source] = append(kept, corpus...)
	c.generation[source]++

	key := store.CorpusKey(source, c.generation[source])
	sparse, err := c.indexCache.Get(key, func() (store.SparseIndex, error) {
		return store.BuildSparseIndex(
			c.cfg.Search.SparseBackend,
			c.cfg.Search.SparseIndexPath,
			c.corpora[source],
			store.BM25Config{K1: c.cfg.Search.BM25K1, B: c.cfg.Search.BM25B},
		)
	})
	if err != nil {
		// An unbuildable sparse index degrades retrieval to dense-only.
		slog.Warn("sparse index build failed, source will be dense-only",
			slog.String("code", errors.GetCode(err)),
			slog.String("source", source),
			slog.String("error", err.Error()))
		sparse = nil
	}

	vec, ok := c.vectors[source]
	if !ok {
		vec, err = store.NewHNSWStore(store.DefaultVectorStoreConfig(c.embedder.Dimensions()))
		if err != nil {
			return err
		}
		c.vectors[source] = vec
	}
	if err := vec.Add(ctx, ids, vectors, payloads); err != nil {
		return err
	}

	// Engines hold the map they were constructed over, so the updated
	// backend set goes into a copy; mutating the shared map would race
	// with retrievals running against the previous engine.
	backends := make(search.Backends, len(c.backends)+1)
	for name, b := range c.backends {
		backends[name] = b
	}
	backends[source] = search.SourceBackends{Sparse: sparse, Vector: vec, Payloads: vec}
	c.backends = backends
	return nil
}

// rebuildEngine swaps in an engine over the current backends.
func (c *Client) rebuildEngine() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine = search.NewEngine(c.backends, c.embedder, c.searchConfig())
}

// Close releases the embedder and vector stores.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	if err := c.embedder.Close(); err != nil {
		firstErr = err
	}
	_ = c.metrics.Close()
	for _, vec := range c.vectors {
		if err := vec.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
