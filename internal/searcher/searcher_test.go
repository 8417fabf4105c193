package searcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/packcheck/internal/embedder"
	"github.com/dshills/packcheck/internal/storage"
	"github.com/dshills/packcheck/pkg/types"
)

// fakeRetriever mimics a pack: blank queries match nothing and the pool is
// capped at top*8.
type fakeRetriever struct {
	candidates []storage.Candidate
	err        error
	calls      atomic.Int32
}

func (f *fakeRetriever) RetrieveCandidates(_ context.Context, query string, top int) ([]storage.Candidate, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(query) == "" {
		return []storage.Candidate{}, nil
	}
	limit := top * storage.DefaultOverfetch
	if limit > len(f.candidates) {
		limit = len(f.candidates)
	}
	out := make([]storage.Candidate, limit)
	copy(out, f.candidates[:limit])
	return out, nil
}

type fakeProvider struct {
	vec   []float32
	err   error
	calls atomic.Int32
}

func (p *fakeProvider) Available() bool { return true }

func (p *fakeProvider) EmbedQuery(context.Context, string) ([]float32, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.vec, nil
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Close() error { return nil }

func manyCandidates(n int, emb []float32) []storage.Candidate {
	out := make([]storage.Candidate, n)
	for i := range out {
		out[i] = storage.Candidate{RowID: int64(i + 1), DocID: 1, Ord: int64(i), DocTitle: "doc", Text: "text", BM25: float64(i), Embedding: emb}
	}
	return out
}

func TestSearch_InvalidTop(t *testing.T) {
	retriever := &fakeRetriever{candidates: manyCandidates(3, nil)}
	s := NewSearcher(retriever, nil)

	_, err := s.Search(context.Background(), SearchRequest{Query: "go", Top: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	assert.Zero(t, retriever.calls.Load())
}

func TestSearch_NoPack(t *testing.T) {
	s := NewSearcher(nil, nil)
	_, err := s.Search(context.Background(), SearchRequest{Query: "go", Top: 1})
	assert.True(t, errors.Is(err, types.ErrPackNotFound))
}

func TestSearch_NoMatches(t *testing.T) {
	provider := &fakeProvider{vec: []float32{1, 0}}
	s := NewSearcher(&fakeRetriever{}, provider)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "nothing", Top: 5})
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Zero(t, provider.calls.Load())
}

func TestSearch_RetrieverError(t *testing.T) {
	boom := errors.New("boom")
	s := NewSearcher(&fakeRetriever{err: boom}, nil)
	_, err := s.Search(context.Background(), SearchRequest{Query: "go", Top: 5})
	assert.ErrorIs(t, err, boom)
}

func TestSearch_FTSOnlyMatchesPackWithoutEmbeddings(t *testing.T) {
	provider := &fakeProvider{vec: []float32{1, 0}}
	tests := []struct {
		name     string
		provider embedder.SimilarityProvider
	}{
		{"available provider", provider},
		{"no provider", embedder.None{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearcher(&fakeRetriever{candidates: manyCandidates(10, nil)}, tt.provider)
			ctx := context.Background()

			hybrid, err := s.Search(ctx, SearchRequest{Query: "go", Top: 5})
			require.NoError(t, err)
			lexical, err := s.Search(ctx, SearchRequest{Query: "go", Top: 5, FTSOnly: true})
			require.NoError(t, err)

			assert.Equal(t, lexical.Results, hybrid.Results)
			assert.Equal(t, lexical.Notice, hybrid.Notice)
			assert.Empty(t, hybrid.Notice)
			assert.Equal(t, SearchModeLexical, hybrid.Mode)
			assert.False(t, hybrid.VectorRan)
		})
	}
	assert.Zero(t, provider.calls.Load())
}

func TestSearch_ProviderAbsent(t *testing.T) {
	s := NewSearcher(&fakeRetriever{candidates: manyCandidates(3, []float32{1, 0})}, embedder.None{})
	ctx := context.Background()

	resp, err := s.Search(ctx, SearchRequest{Query: "go", Top: 3})
	require.NoError(t, err)
	assert.Equal(t, NoticeNoProvider, resp.Notice)
	assert.Equal(t, SearchModeLexical, resp.Mode)
	for _, r := range resp.Results {
		assert.Nil(t, r.Cosine)
	}

	resp, err = s.Search(ctx, SearchRequest{Query: "go", Top: 3, FTSOnly: true})
	require.NoError(t, err)
	assert.Empty(t, resp.Notice)
}

func TestSearch_ProviderErrorIsFatal(t *testing.T) {
	provider := &fakeProvider{err: types.ErrProviderUnavailable}
	s := NewSearcher(&fakeRetriever{candidates: manyCandidates(3, []float32{1, 0})}, provider)

	_, err := s.Search(context.Background(), SearchRequest{Query: "go", Top: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrProviderUnavailable))
	assert.Contains(t, err.Error(), "failed to embed query")
}

func TestSearch_Hybrid(t *testing.T) {
	candidates := []storage.Candidate{
		{RowID: 1, DocID: 1, Text: "a", Embedding: []float32{0, 1}},
		{RowID: 2, DocID: 1, Text: "b", Embedding: []float32{0, 1}},
		{RowID: 3, DocID: 2, Text: "c", Embedding: []float32{1, 0}},
	}
	provider := &fakeProvider{vec: []float32{1, 0}}
	s := NewSearcher(&fakeRetriever{candidates: candidates}, provider)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "go", Top: 3})
	require.NoError(t, err)
	assert.Equal(t, SearchModeHybrid, resp.Mode)
	assert.True(t, resp.VectorRan)
	assert.Equal(t, 3, resp.VectorScored)
	assert.False(t, resp.PlaceholderEmbeddings)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, int64(1), resp.Results[0].ChunkID)
	assert.Equal(t, int64(3), resp.Results[1].ChunkID)
	assert.Equal(t, int64(2), resp.Results[2].ChunkID)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestSearch_PlaceholderWarnsOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	provider := &fakeProvider{vec: []float32{1, 0}}
	s := NewSearcher(&fakeRetriever{candidates: manyCandidates(5, []float32{0, 1})}, provider,
		WithLogger(zap.New(core)))

	resp, err := s.Search(context.Background(), SearchRequest{Query: "go", Top: 5})
	require.NoError(t, err)
	assert.True(t, resp.PlaceholderEmbeddings)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestSearch_TopBoundsPoolAndResults(t *testing.T) {
	s := NewSearcher(&fakeRetriever{candidates: manyCandidates(50, nil)}, nil)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "go", Top: 3, FTSOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 24, resp.Candidates)
	require.Len(t, resp.Results, 3)
	for i, r := range resp.Results {
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, int64(i+1), r.ChunkID)
	}
}

func TestSearch_RRFConstant(t *testing.T) {
	s := NewSearcher(&fakeRetriever{candidates: manyCandidates(2, nil)}, nil, WithRRFConstant(1))
	resp, err := s.Search(context.Background(), SearchRequest{Query: "go", Top: 2, FTSOnly: true})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, resp.Results[0].RRF, 1e-12)
}

func TestSearch_Cache(t *testing.T) {
	first := &fakeRetriever{candidates: manyCandidates(3, nil)}
	s := NewSearcher(first, nil, WithCache(10, time.Minute))
	ctx := context.Background()
	req := SearchRequest{Query: "go", Top: 3, FTSOnly: true, UseCache: true}

	resp, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	resp.Results[0].Title = "mutated"

	cached, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.True(t, cached.CacheHit)
	assert.Equal(t, "doc", cached.Results[0].Title)
	assert.Equal(t, int32(1), first.calls.Load())

	// A different top is a different key.
	_, err = s.Search(ctx, SearchRequest{Query: "go", Top: 2, FTSOnly: true, UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, int32(2), first.calls.Load())

	second := &fakeRetriever{candidates: manyCandidates(1, nil)}
	s.SetRetriever(second)
	resp, err = s.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, int32(1), second.calls.Load())
}

func TestSearch_CacheExpires(t *testing.T) {
	retriever := &fakeRetriever{candidates: manyCandidates(3, nil)}
	s := NewSearcher(retriever, nil, WithCache(10, time.Millisecond))
	req := SearchRequest{Query: "go", Top: 3, UseCache: true}

	_, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	resp, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	assert.Equal(t, int32(2), retriever.calls.Load())
}

func TestSearch_Pack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pack.sqlite3")
	require.NoError(t, storage.WritePack(ctx, path, storage.PackFixture{
		Docs: []storage.FixtureDoc{{ID: 1, Title: "Go Concurrency"}},
		Chunks: []storage.FixtureChunk{
			{ID: 10, DocID: 1, Ord: 0, Text: "goroutines and channels in go"},
			{ID: 11, DocID: 1, Ord: 1, Text: "channels deep dive: buffered channels and unbuffered channels"},
		},
		Embeddings: []storage.FixtureEmbedding{
			{RowID: 10, Blob: storage.EncodeEmbedding([]float32{1, 0, 0})},
		},
	}))
	pack, err := storage.OpenPack(ctx, path)
	require.NoError(t, err)
	defer pack.Close()

	s := NewSearcher(pack, &fakeProvider{vec: []float32{1, 0, 0}})

	lexical, err := s.Search(ctx, SearchRequest{Query: "channels", Top: 2, FTSOnly: true})
	require.NoError(t, err)
	require.Len(t, lexical.Results, 2)
	assert.Equal(t, int64(11), lexical.Results[0].ChunkID)
	assert.Equal(t, "Go Concurrency", lexical.Results[0].Title)

	hybrid, err := s.Search(ctx, SearchRequest{Query: "channels", Top: 2})
	require.NoError(t, err)
	require.Len(t, hybrid.Results, 2)
	assert.Equal(t, int64(10), hybrid.Results[0].ChunkID)
	require.NotNil(t, hybrid.Results[0].Cosine)
	assert.InDelta(t, 1.0, *hybrid.Results[0].Cosine, 1e-6)
	assert.Nil(t, hybrid.Results[1].Cosine)
}
