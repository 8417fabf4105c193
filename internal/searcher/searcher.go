package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/dshills/packcheck/internal/embedder"
	"github.com/dshills/packcheck/internal/storage"
	"github.com/dshills/packcheck/pkg/types"
)

// SearchMode reports which signals contributed to a ranking
type SearchMode string

const (
	SearchModeHybrid  SearchMode = "hybrid"  // BM25 + cosine with RRF
	SearchModeLexical SearchMode = "lexical" // BM25 rank only
)

// NoticeNoProvider is set on responses when vector scoring was wanted but no
// embedding provider is configured.
const NoticeNoProvider = "no embedding provider configured; ranking by BM25 only"

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query    string
	Top      int
	FTSOnly  bool // Skip vector scoring even when a provider is available
	UseCache bool // Whether to use the response cache
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Query   string               `json:"query"`
	Top     int                  `json:"top"`
	Results []types.SearchResult `json:"results"`
	Mode    SearchMode           `json:"mode"`
	// Candidates is the size of the lexical pool before truncation.
	Candidates int `json:"candidates"`
	// VectorScored counts candidates that received a cosine similarity.
	VectorScored int `json:"vector_scored"`
	// VectorRan is true when a query vector was computed.
	VectorRan bool `json:"vector_ran"`
	// PlaceholderEmbeddings is set when every computed similarity was near zero.
	PlaceholderEmbeddings bool          `json:"placeholder_embeddings"`
	Notice                string        `json:"notice,omitempty"`
	Duration              time.Duration `json:"duration_ns"`
	CacheHit              bool          `json:"cache_hit"`
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher runs hybrid retrieval over one pack with one similarity provider.
type Searcher struct {
	mu        sync.RWMutex
	retriever storage.Retriever

	provider embedder.SimilarityProvider
	logger   *zap.Logger
	rrfK     float64

	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheTTL time.Duration
	cacheMu  sync.RWMutex
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithRRFConstant sets k. Non-positive values are ignored.
func WithRRFConstant(k float64) Option {
	return func(s *Searcher) {
		if k > 0 {
			s.rrfK = k
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache enables the response cache for requests with UseCache set.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Searcher) {
		if size <= 0 {
			return
		}
		cache, err := lru.New[[32]byte, *cacheEntry](size)
		if err != nil {
			return
		}
		s.cache = cache
		s.cacheTTL = ttl
		if s.cacheTTL <= 0 {
			s.cacheTTL = 5 * time.Minute
		}
	}
}

// NewSearcher creates a Searcher. A nil provider behaves like embedder.None.
func NewSearcher(retriever storage.Retriever, provider embedder.SimilarityProvider, opts ...Option) *Searcher {
	if provider == nil {
		provider = embedder.None{}
	}
	s := &Searcher{
		retriever: retriever,
		provider:  provider,
		logger:    zap.NewNop(),
		rrfK:      DefaultRRFConstant,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRetriever swaps the pack being searched and drops cached responses.
func (s *Searcher) SetRetriever(retriever storage.Retriever) {
	s.mu.Lock()
	s.retriever = retriever
	s.mu.Unlock()
	s.InvalidateCache()
}

// InvalidateCache drops every cached response.
func (s *Searcher) InvalidateCache() {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// Search retrieves lexical candidates, optionally scores them against the query
// embedding, fuses both rankings and returns the top results. An empty result
// is not an error.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if req.Top < 1 {
		return nil, fmt.Errorf("%w: top must be greater than zero, got %d", types.ErrInvalidArgument, req.Top)
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	s.mu.RLock()
	retriever := s.retriever
	s.mu.RUnlock()
	if retriever == nil {
		return nil, fmt.Errorf("%w: no pack loaded", types.ErrPackNotFound)
	}

	candidates, err := retriever.RetrieveCandidates(ctx, req.Query, req.Top)
	if err != nil {
		return nil, err
	}

	response := &SearchResponse{
		Query:      req.Query,
		Top:        req.Top,
		Results:    []types.SearchResult{},
		Mode:       SearchModeLexical,
		Candidates: len(candidates),
	}
	if len(candidates) == 0 {
		response.Duration = time.Since(startTime)
		return response, nil
	}

	queryVec, notice, err := s.queryVector(ctx, req, candidates)
	if err != nil {
		return nil, err
	}
	response.Notice = notice

	fusion := Fuse(candidates, queryVec, s.rrfK)
	if fusion.VectorRan {
		response.Mode = SearchModeHybrid
		response.VectorRan = true
		response.VectorScored = len(fusion.Similarities)
	}
	if fusion.Placeholder {
		response.PlaceholderEmbeddings = true
		s.logger.Warn("all cosine similarities are near zero; the pack's embeddings look like placeholders",
			zap.String("query", req.Query),
			zap.Int("scored", len(fusion.Similarities)))
	}

	response.Results = Rank(candidates, fusion, req.Top)
	response.Duration = time.Since(startTime)

	s.logger.Debug("search complete",
		zap.String("query", req.Query),
		zap.String("mode", string(response.Mode)),
		zap.Int("candidates", response.Candidates),
		zap.Int("results", len(response.Results)),
		zap.Duration("duration", response.Duration))

	if req.UseCache {
		s.storeInCache(req, response)
	}
	return response, nil
}

// queryVector embeds the query when vector scoring applies. It returns a nil
// vector for lexical-only ranking, with a notice when candidates carry
// embeddings but no provider is configured.
func (s *Searcher) queryVector(ctx context.Context, req SearchRequest, candidates []storage.Candidate) ([]float32, string, error) {
	if req.FTSOnly {
		return nil, "", nil
	}
	if !anyEmbedding(candidates) {
		s.logger.Debug("no candidate embeddings; skipping vector pass", zap.String("query", req.Query))
		return nil, "", nil
	}
	if !s.provider.Available() {
		return nil, NoticeNoProvider, nil
	}

	vec, err := s.provider.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, "", fmt.Errorf("failed to embed query: %w", err)
	}
	return vec, "", nil
}

func anyEmbedding(candidates []storage.Candidate) bool {
	for _, c := range candidates {
		if c.HasEmbedding() {
			return true
		}
	}
	return false
}

// checkCache returns a copy of a live cached response, or nil.
func (s *Searcher) checkCache(req SearchRequest) *SearchResponse {
	if s.cache == nil {
		return nil
	}
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}
	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

// storeInCache saves a copy of response.
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	if s.cache == nil {
		return
	}
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(s.cacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Results = make([]types.SearchResult, len(src.Results))
	for i, result := range src.Results {
		dst.Results[i] = result
		if result.Cosine != nil {
			sim := *result.Cosine
			dst.Results[i].Cosine = &sim
		}
	}
	return &dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	key := req.Query + "|" + strconv.Itoa(req.Top) + "|" + strconv.FormatBool(req.FTSOnly)
	return sha256.Sum256([]byte(key))
}
