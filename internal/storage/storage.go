package storage

import (
	"context"
)

// Retriever returns lexical candidates for a query.
type Retriever interface {
	RetrieveCandidates(ctx context.Context, query string, top int) ([]Candidate, error)
}

// Reader is the read-only view of an open pack.
type Reader interface {
	Retriever

	Path() string
	Stats(ctx context.Context) (*PackStats, error)
	Verify(ctx context.Context) (*VerifyReport, error)
	Close() error
}

// Candidate is one chunk returned by the full-text retrieval, with its BM25 score
// and decoded embedding.
type Candidate struct {
	RowID    int64
	DocID    int64
	Ord      int64
	DocTitle string
	Text     string
	// BM25 as reported by FTS5: lower is more relevant.
	BM25 float64
	// Embedding is nil when the chunk has no stored embedding.
	Embedding []float32
}

// HasEmbedding reports whether the candidate carries a stored vector.
func (c Candidate) HasEmbedding() bool {
	return c.Embedding != nil
}

// PackStats summarizes the contents of a pack.
type PackStats struct {
	Path       string `json:"path"`
	SizeBytes  int64  `json:"size_bytes"`
	Docs       int64  `json:"docs"`
	Chunks     int64  `json:"chunks"`
	FTSRows    int64  `json:"fts_rows"`
	Embeddings int64  `json:"embeddings"`
	// EmbeddingDim is nil when no embeddings are stored.
	EmbeddingDim *int         `json:"embedding_dim,omitempty"`
	Sample       *SampleChunk `json:"sample,omitempty"`
}

// SizeMiB returns the file size in mebibytes.
func (s *PackStats) SizeMiB() float64 {
	return float64(s.SizeBytes) / (1024.0 * 1024.0)
}

// SampleChunk identifies the earliest chunk in the pack and its document.
type SampleChunk struct {
	DocID    int64  `json:"doc_id"`
	DocTitle string `json:"doc_title"`
	ChunkID  int64  `json:"chunk_id"`
}

// Severity classifies a failed verification check.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// CheckResult is the outcome of one verification check.
type CheckResult struct {
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
	OK       bool     `json:"ok"`
	Detail   string   `json:"detail,omitempty"`
}

// VerifyReport collects every check run against a pack, in a fixed order.
type VerifyReport struct {
	Path   string        `json:"path"`
	Checks []CheckResult `json:"checks"`
}

// OK is false when any error-severity check failed. Warnings do not fail a pack.
func (r *VerifyReport) OK() bool {
	for _, c := range r.Checks {
		if !c.OK && c.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Failed returns the checks that did not pass.
func (r *VerifyReport) Failed() []CheckResult {
	var failed []CheckResult
	for _, c := range r.Checks {
		if !c.OK {
			failed = append(failed, c)
		}
	}
	return failed
}
