package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

// packRelations is the DDL produced by the pack-building pipeline, one statement
// per relation.
var packRelations = []struct {
	name string
	ddl  string
}{
	{"docs", `CREATE TABLE IF NOT EXISTS docs (
    id INTEGER PRIMARY KEY,
    source_url TEXT,
    repo_path TEXT,
    title TEXT,
    lang TEXT,
    mime TEXT,
    version TEXT,
    docset TEXT,
    published_at TEXT,
    fetched_at TEXT NOT NULL,
    hash TEXT NOT NULL UNIQUE
)`},
	{"chunks", `CREATE TABLE IF NOT EXISTS chunks (
    id INTEGER PRIMARY KEY,
    doc_id INTEGER NOT NULL REFERENCES docs(id) ON DELETE CASCADE,
    ord INTEGER NOT NULL,
    text TEXT NOT NULL,
    code TEXT,
    heading_path TEXT,
    page_no INTEGER,
    tokens INTEGER,
    UNIQUE(doc_id, ord)
)`},
	{"chunks_fts", `CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
    text,
    content='chunks',
    content_rowid='id'
)`},
	{"chunk_embeddings", `CREATE TABLE IF NOT EXISTS chunk_embeddings (
    rowid INTEGER PRIMARY KEY,
    embedding BLOB
)`},
}

// RequiredRelations are the tables and virtual tables every pack must contain.
var RequiredRelations = []string{"docs", "chunks", "chunks_fts", "chunk_embeddings"}

// FixtureDoc is a document row for WritePack. NoTitle stores a NULL title.
type FixtureDoc struct {
	ID      int64
	Title   string
	NoTitle bool
}

// FixtureChunk is a chunk row for WritePack. SkipFTS leaves it out of the
// full-text index.
type FixtureChunk struct {
	ID      int64
	DocID   int64
	Ord     int64
	Text    string
	SkipFTS bool
}

// FixtureEmbedding stores Blob verbatim, so malformed blobs can be written.
// A nil Blob stores NULL.
type FixtureEmbedding struct {
	RowID int64
	Blob  []byte
}

// PackFixture describes the rows of a small pack.
type PackFixture struct {
	Docs       []FixtureDoc
	Chunks     []FixtureChunk
	Embeddings []FixtureEmbedding
	// OmitTables skips creating the named relations.
	OmitTables []string
}

// WritePack creates a pack at path with the pipeline schema and the fixture rows.
// It refuses to overwrite an existing file.
func WritePack(ctx context.Context, path string, fx PackFixture) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("pack %s already exists", path)
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return fmt.Errorf("failed to create pack: %w", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rel := range packRelations {
		if omitted(fx.OmitTables, rel.name) {
			continue
		}
		if _, err := tx.ExecContext(ctx, rel.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", rel.name, err)
		}
	}

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	for _, d := range fx.Docs {
		var title any = d.Title
		if d.NoTitle {
			title = nil
		}
		sum := sha256.Sum256([]byte(strconv.FormatInt(d.ID, 10) + "\x00" + d.Title))
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO docs (id, title, fetched_at, hash) VALUES (?, ?, ?, ?)",
			d.ID, title, fetchedAt, hex.EncodeToString(sum[:])); err != nil {
			return fmt.Errorf("failed to insert doc %d: %w", d.ID, err)
		}
	}

	for _, c := range fx.Chunks {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (id, doc_id, ord, text) VALUES (?, ?, ?, ?)",
			c.ID, c.DocID, c.Ord, c.Text); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.ID, err)
		}
		if c.SkipFTS || omitted(fx.OmitTables, "chunks_fts") || omitted(fx.OmitTables, "chunks") {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks_fts (rowid, text) VALUES (?, ?)", c.ID, c.Text); err != nil {
			return fmt.Errorf("failed to index chunk %d: %w", c.ID, err)
		}
	}

	for _, e := range fx.Embeddings {
		var blob any
		if e.Blob != nil {
			blob = e.Blob
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunk_embeddings (rowid, embedding) VALUES (?, ?)", e.RowID, blob); err != nil {
			return fmt.Errorf("failed to insert embedding %d: %w", e.RowID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pack: %w", err)
	}
	return nil
}

func omitted(omit []string, name string) bool {
	for _, o := range omit {
		if o == name {
			return true
		}
	}
	return false
}
