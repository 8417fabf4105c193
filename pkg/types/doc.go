// Package types provides shared type definitions for packcheck.
//
// This package defines the result types and sentinel errors used across the
// storage, embedder and searcher packages, and by the CLI and servers.
//
// # Search Results
//
// SearchResult is one fused hit, carrying every signal that contributed to
// its position:
//
//	result := types.SearchResult{
//	    Rank:     1,
//	    DocID:    3,
//	    ChunkID:  42,
//	    BM25:     -7.31,
//	    RRF:      0.0328,
//	}
//
// BM25 follows the SQLite FTS5 convention: lower values are more relevant.
// Cosine is nil when the candidate was not scored by the vector pass.
//
// # Errors
//
// Errors are sentinels wrapped with context by the package that detects them;
// compare with errors.Is:
//
//	if errors.Is(err, types.ErrMalformedEmbedding) {
//	    // the pack is corrupt and must be rebuilt upstream
//	}
package types
