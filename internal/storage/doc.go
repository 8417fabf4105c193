// Package storage provides read-only access to search packs.
//
// A pack is a SQLite file produced by the indexing pipeline. It holds:
//   - docs: one row per source document (title may be NULL)
//   - chunks: ordered text segments of each document
//   - chunks_fts: FTS5 external-content index over chunks.text
//   - chunk_embeddings: optional little-endian float32 vectors keyed by chunk id
//
// # Basic Usage
//
//	pack, err := storage.OpenPack(ctx, "packs/fluorite-pack.sqlite3")
//	if err != nil {
//	    return err // errors.Is(err, types.ErrPackNotFound) for a missing file
//	}
//	defer pack.Close()
//
//	candidates, err := pack.RetrieveCandidates(ctx, "hybrid search", 5)
//	for _, c := range candidates {
//	    fmt.Printf("chunk %d bm25 %.4f\n", c.RowID, c.BM25)
//	}
//
// RetrieveCandidates over-fetches top*8 rows (see WithOverfetch) ordered by
// ascending bm25, the FTS5 convention where lower is more relevant. Embedding
// blobs are decoded with DecodeEmbedding; a blob whose length is not a multiple
// of 4 aborts the retrieval with types.ErrMalformedEmbedding.
//
// # Verification
//
// Verify runs structural checks concurrently and returns a VerifyReport:
//
//	report, err := pack.Verify(ctx)
//	if !report.OK() {
//	    for _, c := range report.Failed() {
//	        fmt.Println(c.Name, c.Detail)
//	    }
//	}
//
// # Build Tags
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build ./...
//
// CGO Build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires the sqlite_fts5 tag for the full-text index
//
//     CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5" ./...
//
// Packs are always opened read-only: mode=ro in the URI plus query_only on
// every connection.
package storage
