package types

import "math"

// SearchResult represents a single fused search hit
type SearchResult struct {
	// Identification
	Rank    int   `json:"rank"` // Position in result set (1-based)
	DocID   int64 `json:"doc_id"`
	ChunkID int64 `json:"chunk_id"`
	Ord     int64 `json:"ord"`

	// Scoring
	BM25   float64  `json:"bm25"`             // Raw FTS5 score, lower is better
	Cosine *float32 `json:"cosine,omitempty"` // Nil when not vector scored
	RRF    float64  `json:"rrf"`              // Fused Reciprocal Rank Fusion score

	// Content
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Validate checks if the search result is well formed
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == 0 {
		return ErrInvalidChunkID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.RRF <= 0 || math.IsNaN(sr.RRF) {
		return ErrInvalidFusedScore
	}

	return nil
}
