package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/packcheck/pkg/types"
)

const (
	// DefaultOverfetch multiplies top to size the lexical candidate pool.
	DefaultOverfetch = 8

	// maxCandidateHint bounds the initial result slice capacity.
	maxCandidateHint = 256

	// UntitledDoc replaces a NULL document title.
	UntitledDoc = "<untitled>"

	maxOpenConns = 4
)

const candidateQuery = `
	SELECT
		c.id AS rowid,
		c.doc_id AS doc_id,
		c.ord AS ord,
		d.title AS doc_title,
		c.text AS text,
		bm25(chunks_fts) AS bm25_score,
		ce.embedding AS embedding
	FROM chunks_fts
	JOIN chunks c ON c.id = chunks_fts.rowid
	JOIN docs d ON d.id = c.doc_id
	LEFT JOIN chunk_embeddings ce ON ce.rowid = c.id
	WHERE chunks_fts MATCH ?
	ORDER BY bm25_score ASC
	LIMIT ?
`

// Pack is a read-only handle on a search pack file.
type Pack struct {
	db        *sql.DB
	path      string
	overfetch int
	logger    *zap.Logger
}

var _ Reader = (*Pack)(nil)

// Option configures a Pack.
type Option func(*Pack)

// WithOverfetch sets the candidate pool multiplier. Values below 1 are ignored.
func WithOverfetch(n int) Option {
	return func(p *Pack) {
		if n >= 1 {
			p.overfetch = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pack) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// OpenPack opens the pack at path read-only. A missing file yields an error
// wrapping types.ErrPackNotFound.
func OpenPack(ctx context.Context, path string, opts ...Option) (*Pack, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: pack file %s does not exist", types.ErrPackNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat pack %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", types.ErrPackNotFound, path)
	}

	db, err := sql.Open(DriverName, readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open pack: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open pack: %w", err)
	}

	p := &Pack{
		db:        db,
		path:      path,
		overfetch: DefaultOverfetch,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.logger.Debug("pack opened",
		zap.String("path", path),
		zap.String("driver", DriverName),
		zap.String("build_mode", BuildMode))
	return p, nil
}

// Path returns the pack file path.
func (p *Pack) Path() string {
	return p.path
}

// Close releases the database handle.
func (p *Pack) Close() error {
	return p.db.Close()
}

// RetrieveCandidates runs the full-text query and returns up to top*overfetch
// candidates ordered by ascending BM25. A blank query returns no candidates.
// A query FTS5 cannot parse is retried once with every term quoted.
func (p *Pack) RetrieveCandidates(ctx context.Context, query string, top int) ([]Candidate, error) {
	if top < 1 {
		return nil, fmt.Errorf("%w: top must be greater than zero, got %d", types.ErrInvalidArgument, top)
	}
	if strings.TrimSpace(query) == "" {
		return []Candidate{}, nil
	}

	limit := candidateLimit(top, p.overfetch)
	candidates, err := p.queryCandidates(ctx, query, limit)
	if err != nil && isFTSSyntaxError(err) {
		quoted := quoteFTSQuery(query)
		p.logger.Debug("retrying FTS query with quoted terms",
			zap.String("query", query),
			zap.String("quoted", quoted),
			zap.Error(err))
		candidates, err = p.queryCandidates(ctx, quoted, limit)
	}
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// candidateLimit returns top*overfetch, saturating at math.MaxInt.
func candidateLimit(top, overfetch int) int {
	if top > math.MaxInt/overfetch {
		return math.MaxInt
	}
	return top * overfetch
}

func (p *Pack) queryCandidates(ctx context.Context, match string, limit int) ([]Candidate, error) {
	rows, err := p.db.QueryContext(ctx, candidateQuery, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]Candidate, 0, min(limit, maxCandidateHint))
	for rows.Next() {
		var (
			c     Candidate
			title sql.NullString
			bm25  sql.NullFloat64
			blob  []byte
		)
		if err := rows.Scan(&c.RowID, &c.DocID, &c.Ord, &title, &c.Text, &bm25, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}

		c.DocTitle = UntitledDoc
		if title.Valid {
			c.DocTitle = title.String
		}
		c.BM25 = math.MaxFloat64
		if bm25.Valid {
			c.BM25 = bm25.Float64
		}
		if blob != nil {
			vector, err := DecodeEmbedding(blob)
			if err != nil {
				return nil, fmt.Errorf("chunk %d: %w", c.RowID, err)
			}
			c.Embedding = vector
		}

		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to execute FTS query: %w", err)
	}
	return candidates, nil
}

// Stats counts the pack's rows and samples its first chunk. Tables that are
// missing count as zero.
func (p *Pack) Stats(ctx context.Context) (*PackStats, error) {
	stats := &PackStats{Path: p.path}
	if info, err := os.Stat(p.path); err == nil {
		stats.SizeBytes = info.Size()
	}

	stats.Docs = p.countRows(ctx, "docs")
	stats.Chunks = p.countRows(ctx, "chunks")
	stats.FTSRows = p.countIndexedRows(ctx)
	stats.Embeddings = p.countRows(ctx, "chunk_embeddings")

	var byteLen sql.NullInt64
	err := p.db.QueryRowContext(ctx,
		"SELECT LENGTH(embedding) FROM chunk_embeddings ORDER BY rowid LIMIT 1").Scan(&byteLen)
	switch {
	case err == nil && byteLen.Valid:
		dim := int(byteLen.Int64 / 4)
		stats.EmbeddingDim = &dim
	case err != nil && !errors.Is(err, sql.ErrNoRows) && !isMissingTable(err):
		return nil, fmt.Errorf("failed to read embedding dimension: %w", err)
	}

	if stats.Chunks > 0 {
		var (
			sample SampleChunk
			title  sql.NullString
		)
		err := p.db.QueryRowContext(ctx, `
			SELECT d.title, c.doc_id, c.id
			FROM docs d
			JOIN chunks c ON c.doc_id = d.id
			ORDER BY c.id ASC
			LIMIT 1
		`).Scan(&title, &sample.DocID, &sample.ChunkID)
		switch {
		case err == nil:
			sample.DocTitle = UntitledDoc
			if title.Valid {
				sample.DocTitle = title.String
			}
			stats.Sample = &sample
		case !errors.Is(err, sql.ErrNoRows) && !isMissingTable(err):
			return nil, fmt.Errorf("failed to sample chunk: %w", err)
		}
	}

	return stats, nil
}

// countRows returns the row count of table, or 0 if it cannot be counted.
func (p *Pack) countRows(ctx context.Context, table string) int64 {
	var n int64
	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		p.logger.Debug("count failed", zap.String("table", table), zap.Error(err))
		return 0
	}
	return n
}

// countIndexedRows counts rows present in the full-text index. The docsize shadow
// table holds one row per indexed chunk; without it, the virtual table is counted.
func (p *Pack) countIndexedRows(ctx context.Context) int64 {
	var n int64
	err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks_fts_docsize").Scan(&n)
	if err == nil {
		return n
	}
	return p.countRows(ctx, "chunks_fts")
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
