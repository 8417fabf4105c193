// Package searcher ranks pack chunks by fusing lexical and semantic signals.
//
// A search retrieves top*overfetch candidates in ascending BM25 order, then
// applies Reciprocal Rank Fusion:
//
//	score(c) = 1/(k + r_lex + 1) + 1/(k + r_vec + 1)
//
// r_lex is the candidate's position in retrieval order and r_vec its position
// when candidates with a same-length embedding are sorted by descending cosine
// similarity to the query. Candidates without a usable embedding only receive
// the lexical term. The final order is a stable sort by descending score, so
// ties keep retrieval order; NaN scores sort last.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(pack, provider,
//	    searcher.WithRRFConstant(60),
//	    searcher.WithLogger(logger))
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query: "reciprocal rank fusion",
//	    Top:   5,
//	})
//	for _, r := range resp.Results {
//	    fmt.Printf("#%d chunk=%d rrf=%.4f\n", r.Rank, r.ChunkID, r.RRF)
//	}
//
// # Vector Pass
//
// The vector pass runs only when FTSOnly is false, the provider is available
// and at least one candidate has an embedding. A provider failure then fails
// the search. With no provider configured the search stays lexical, and the
// response carries a notice when some candidate had an embedding to score.
//
// When every computed similarity is within 1e-5 of zero, the response sets
// PlaceholderEmbeddings and one warning is logged.
//
// # Caching
//
// WithCache enables an LRU of responses keyed by query, top and FTSOnly.
// SetRetriever purges it when the pack is swapped.
package searcher
