package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/convosearch/convosearch/internal/errors"
	"github.com/convosearch/convosearch/internal/filter"
)

// SQLiteSparseIndex implements SparseIndex on SQLite FTS5. It is the
// persistent alternative to MemoryBM25Index: same snapshot contract, but the
// index survives process restarts and supports concurrent multi-process
// readers via WAL mode.
type SQLiteSparseIndex struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ SparseIndex = (*SQLiteSparseIndex)(nil)

// BuildSQLiteIndex creates an FTS5-backed sparse index over the corpus.
// An empty path builds an in-memory database. Like BuildMemoryIndex, an
// empty corpus yields ErrCodeIndexBuild.
func BuildSQLiteIndex(path string, corpus []*Document) (*SQLiteSparseIndex, error) {
	if len(corpus) == 0 {
		return nil, errors.New(errors.ErrCodeIndexBuild, "cannot build sparse index over empty corpus", nil)
	}

	dsn := ":memory:"
	if path != "" {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sparse index database: %w", err)
	}

	// Single writer prevents lock contention; the index is read-mostly.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if path != "" {
		for _, pragma := range []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA synchronous = NORMAL",
		} {
			if _, err := db.Exec(pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("set pragma: %w", err)
			}
		}
	}

	idx := &SQLiteSparseIndex{db: db, path: path}
	if err := idx.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sparse index schema: %w", err)
	}
	if err := idx.load(corpus); err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

func (s *SQLiteSparseIndex) initSchema() error {
	schema := `
	CREATE VIRTUAL TABLE IF NOT EXISTS fts_chunks USING fts5(
		doc_id UNINDEXED,
		content,
		tokenize='unicode61'
	);

	-- seq preserves corpus order for stable tie-breaking.
	CREATE TABLE IF NOT EXISTS doc_order (
		doc_id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS doc_meta (
		doc_id TEXT NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (doc_id, field)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// load snapshots the corpus into the FTS5 table. Content is pre-tokenized
// with the same lowercase whitespace scheme the memory backend uses so both
// backends see identical term boundaries.
func (s *SQLiteSparseIndex) load(corpus []*Document) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin corpus load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Rebuild is the only mutation path: clear any previous snapshot.
	for _, stmt := range []string{
		`DELETE FROM fts_chunks`, `DELETE FROM doc_order`, `DELETE FROM doc_meta`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear previous snapshot: %w", err)
		}
	}

	insertDoc, err := tx.PrepareContext(ctx, `INSERT INTO fts_chunks(doc_id, content) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare content insert: %w", err)
	}
	defer insertDoc.Close()

	insertOrder, err := tx.PrepareContext(ctx, `INSERT INTO doc_order(doc_id, seq) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare order insert: %w", err)
	}
	defer insertOrder.Close()

	insertMeta, err := tx.PrepareContext(ctx, `INSERT INTO doc_meta(doc_id, field, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare metadata insert: %w", err)
	}
	defer insertMeta.Close()

	for i, doc := range corpus {
		content := strings.Join(Tokenize(doc.Text), " ")
		if _, err := insertDoc.ExecContext(ctx, doc.ID, content); err != nil {
			return fmt.Errorf("index document %s: %w", doc.ID, err)
		}
		if _, err := insertOrder.ExecContext(ctx, doc.ID, i); err != nil {
			return fmt.Errorf("record order for %s: %w", doc.ID, err)
		}
		for field, value := range doc.Metadata {
			if _, err := insertMeta.ExecContext(ctx, doc.ID, field, value); err != nil {
				return fmt.Errorf("record metadata for %s: %w", doc.ID, err)
			}
		}
	}
	return tx.Commit()
}

// Search implements SparseIndex. FTS5 only scores matching documents; since
// zero-score documents are excluded from results anyway, dropping filtered
// hits after scoring observes the same contract as the memory backend.
func (s *SQLiteSparseIndex) Search(ctx context.Context, query string, topK int, filters filter.Set) ([]*BM25Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("sparse index is closed")
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 || topK <= 0 {
		return []*BM25Result{}, nil
	}

	// Quote tokens and OR-join so any-term matches score, like Okapi.
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
	}
	match := strings.Join(quoted, " OR ")

	// FTS5 bm25() returns negative scores where lower is better; seq breaks
	// ties in corpus order. No LIMIT here: filters may drop hits, and top_k
	// bounds the post-filter result.
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.doc_id, bm25(fts_chunks) AS score
		FROM fts_chunks f
		JOIN doc_order o ON o.doc_id = f.doc_id
		WHERE f.content MATCH ?
		ORDER BY score, o.seq`, match)
	if err != nil {
		// FTS5 rejects some token sequences as syntax errors; treat as no
		// results rather than failing the query.
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return []*BM25Result{}, nil
		}
		return nil, fmt.Errorf("sparse search: %w", err)
	}
	defer rows.Close()

	results := make([]*BM25Result, 0, topK)
	for rows.Next() {
		var docID string
		var score float64
		if err := rows.Scan(&docID, &score); err != nil {
			return nil, fmt.Errorf("scan sparse hit: %w", err)
		}
		if filters != nil {
			meta, err := s.metadataFor(ctx, docID)
			if err != nil {
				return nil, err
			}
			if !filters.MatchesAll(meta) {
				continue
			}
		}
		results = append(results, &BM25Result{
			DocID:        docID,
			Score:        -score,
			MatchedTerms: tokens,
		})
		if len(results) >= topK {
			break
		}
	}
	return results, rows.Err()
}

func (s *SQLiteSparseIndex) metadataFor(ctx context.Context, docID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT field, value FROM doc_meta WHERE doc_id = ?`, docID)
	if err != nil {
		return nil, fmt.Errorf("load metadata for %s: %w", docID, err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		meta[field] = value
	}
	return meta, rows.Err()
}

// DocCount implements SparseIndex.
func (s *SQLiteSparseIndex) DocCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0
	}
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM doc_order`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// Close implements SparseIndex. Idempotent.
func (s *SQLiteSparseIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
