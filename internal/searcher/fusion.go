package searcher

import (
	"math"
	"sort"

	"github.com/dshills/packcheck/internal/storage"
	"github.com/dshills/packcheck/pkg/types"
)

const (
	// DefaultRRFConstant is the k in 1/(k + rank + 1).
	DefaultRRFConstant = 60.0

	// PlaceholderEpsilon bounds |cosine| for embeddings treated as placeholders.
	PlaceholderEpsilon = 1e-5
)

// Fusion holds the Reciprocal Rank Fusion scores of one candidate list.
type Fusion struct {
	// Scores maps chunk id to fused score.
	Scores map[int64]float64
	// Similarities holds cosine similarities for candidates the vector pass scored.
	Similarities map[int64]float32
	// VectorRan is true when a query vector was supplied.
	VectorRan bool
	// Placeholder is true when the vector pass scored at least one candidate and
	// every |similarity| was below PlaceholderEpsilon.
	Placeholder bool
}

type scored struct {
	rowID int64
	sim   float32
}

// Fuse scores candidates, which must be in retrieval (ascending BM25) order.
// Each candidate gets 1/(k+r+1) for its lexical position r. When queryVec is
// non-nil, candidates whose embedding has the same length are ranked by
// descending cosine similarity and get 1/(k+r+1) for that position too.
func Fuse(candidates []storage.Candidate, queryVec []float32, k float64) *Fusion {
	f := &Fusion{
		Scores:       make(map[int64]float64, len(candidates)),
		Similarities: make(map[int64]float32),
	}

	for r, c := range candidates {
		f.Scores[c.RowID] += rrfContribution(k, r)
	}

	if queryVec == nil {
		return f
	}
	f.VectorRan = true

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.Embedding == nil || len(c.Embedding) != len(queryVec) {
			continue
		}
		ranked = append(ranked, scored{rowID: c.RowID, sim: CosineSimilarity(queryVec, c.Embedding)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return compareDesc(ranked[i].sim, ranked[j].sim) < 0
	})

	placeholder := len(ranked) > 0
	for r, s := range ranked {
		f.Scores[s.rowID] += rrfContribution(k, r)
		f.Similarities[s.rowID] = s.sim
		if !(math.Abs(float64(s.sim)) < PlaceholderEpsilon) {
			placeholder = false
		}
	}
	f.Placeholder = placeholder

	return f
}

func rrfContribution(k float64, r int) float64 {
	return 1.0 / (k + float64(r) + 1.0)
}

// Rank orders candidates by descending fused score, keeping retrieval order for
// ties, and returns at most top results with 1-based ranks.
func Rank(candidates []storage.Candidate, f *Fusion, top int) []types.SearchResult {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a := f.Scores[candidates[order[i]].RowID]
		b := f.Scores[candidates[order[j]].RowID]
		return compareDesc(a, b) < 0
	})

	if top < 0 {
		top = 0
	}
	if top < len(order) {
		order = order[:top]
	}

	results := make([]types.SearchResult, 0, len(order))
	for i, idx := range order {
		c := candidates[idx]
		result := types.SearchResult{
			Rank:    i + 1,
			DocID:   c.DocID,
			ChunkID: c.RowID,
			Ord:     c.Ord,
			BM25:    c.BM25,
			RRF:     f.Scores[c.RowID],
			Title:   c.DocTitle,
			Text:    c.Text,
		}
		if sim, ok := f.Similarities[c.RowID]; ok {
			result.Cosine = &sim
		}
		results = append(results, result)
	}
	return results
}
