package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Check names, in report order.
const (
	CheckSchema             = "schema"
	CheckFTSSync            = "fts_sync"
	CheckOrphanChunks       = "orphan_chunks"
	CheckEmbeddingAlignment = "embedding_alignment"
	CheckEmbeddingDimension = "embedding_dimension"
	CheckOrphanEmbeddings   = "orphan_embeddings"
	CheckIntegrity          = "integrity"
)

type check struct {
	name     string
	severity Severity
	run      func(ctx context.Context, db *sql.DB) (ok bool, detail string, err error)
}

var checks = []check{
	{CheckSchema, SeverityError, checkSchema},
	{CheckFTSSync, SeverityError, checkFTSSync},
	{CheckOrphanChunks, SeverityWarning, checkOrphanChunks},
	{CheckEmbeddingAlignment, SeverityError, checkEmbeddingAlignment},
	{CheckEmbeddingDimension, SeverityError, checkEmbeddingDimension},
	{CheckOrphanEmbeddings, SeverityWarning, checkOrphanEmbeddings},
	{CheckIntegrity, SeverityError, checkIntegrity},
}

// Verify runs every structural check against the pack concurrently. A check whose
// query fails is reported as failed; only context cancellation returns an error.
func (p *Pack) Verify(ctx context.Context) (*VerifyReport, error) {
	results := make([]CheckResult, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxOpenConns)
	for i, c := range checks {
		g.Go(func() error {
			ok, detail, err := c.run(gctx, p.db)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				ok, detail = false, err.Error()
			}
			results[i] = CheckResult{Name: c.name, Severity: c.severity, OK: ok, Detail: detail}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("verification interrupted: %w", err)
	}

	report := &VerifyReport{Path: p.path, Checks: results}
	for _, r := range report.Failed() {
		p.logger.Debug("check failed",
			zap.String("check", r.Name),
			zap.String("severity", string(r.Severity)),
			zap.String("detail", r.Detail))
	}
	return report, nil
}

func checkSchema(ctx context.Context, db *sql.DB) (bool, string, error) {
	var missing []string
	for _, name := range RequiredRelations {
		var n int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n); err != nil {
			return false, "", err
		}
		if n == 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return false, "missing: " + strings.Join(missing, ", "), nil
	}
	return true, fmt.Sprintf("%d relations present", len(RequiredRelations)), nil
}

// checkFTSSync compares chunks with the index's per-row size table. Counting
// chunks_fts itself would read through to the content table.
func checkFTSSync(ctx context.Context, db *sql.DB) (bool, string, error) {
	var chunks, indexed, unindexed int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&chunks); err != nil {
		return false, "", err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks_fts_docsize").Scan(&indexed); err != nil {
		return false, "", err
	}
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE id NOT IN (SELECT id FROM chunks_fts_docsize)").Scan(&unindexed); err != nil {
		return false, "", err
	}
	if indexed != chunks || unindexed != 0 {
		return false, fmt.Sprintf("%d chunks, %d indexed rows, %d chunks not indexed", chunks, indexed, unindexed), nil
	}
	return true, fmt.Sprintf("%d chunks indexed", chunks), nil
}

func checkOrphanChunks(ctx context.Context, db *sql.DB) (bool, string, error) {
	var n int64
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chunks c
		LEFT JOIN docs d ON d.id = c.doc_id
		WHERE d.id IS NULL`).Scan(&n); err != nil {
		return false, "", err
	}
	if n > 0 {
		return false, fmt.Sprintf("%d chunks reference missing docs", n), nil
	}
	return true, "", nil
}

func checkEmbeddingAlignment(ctx context.Context, db *sql.DB) (bool, string, error) {
	var (
		n     int64
		first sql.NullInt64
	)
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(rowid) FROM chunk_embeddings
		WHERE embedding IS NOT NULL AND LENGTH(CAST(embedding AS BLOB)) % 4 != 0`).Scan(&n, &first); err != nil {
		return false, "", err
	}
	if n > 0 {
		return false, fmt.Sprintf("%d blobs are not a multiple of 4 bytes (first rowid %d)", n, first.Int64), nil
	}
	return true, "", nil
}

func checkEmbeddingDimension(ctx context.Context, db *sql.DB) (bool, string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT LENGTH(CAST(embedding AS BLOB)) / 4 AS dim, COUNT(*) AS n
		FROM chunk_embeddings
		WHERE embedding IS NOT NULL AND LENGTH(CAST(embedding AS BLOB)) % 4 = 0
		GROUP BY dim
		ORDER BY n DESC, dim ASC`)
	if err != nil {
		return false, "", err
	}
	defer func() { _ = rows.Close() }()

	var parts []string
	for rows.Next() {
		var dim, n int64
		if err := rows.Scan(&dim, &n); err != nil {
			return false, "", err
		}
		parts = append(parts, fmt.Sprintf("%d (%d rows)", dim, n))
	}
	if err := rows.Err(); err != nil {
		return false, "", err
	}

	switch len(parts) {
	case 0:
		return true, "no embeddings stored", nil
	case 1:
		return true, "dimension " + parts[0], nil
	default:
		return false, "mixed dimensions: " + strings.Join(parts, ", "), nil
	}
}

func checkOrphanEmbeddings(ctx context.Context, db *sql.DB) (bool, string, error) {
	var n int64
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chunk_embeddings e
		LEFT JOIN chunks c ON c.id = e.rowid
		WHERE c.id IS NULL`).Scan(&n); err != nil {
		return false, "", err
	}
	if n > 0 {
		return false, fmt.Sprintf("%d embeddings reference missing chunks", n), nil
	}
	return true, "", nil
}

func checkIntegrity(ctx context.Context, db *sql.DB) (bool, string, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA quick_check")
	if err != nil {
		return false, "", err
	}
	defer func() { _ = rows.Close() }()

	var messages []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return false, "", err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return false, "", err
	}
	if len(messages) == 1 && messages[0] == "ok" {
		return true, "", nil
	}
	return false, strings.Join(messages, "; "), nil
}
