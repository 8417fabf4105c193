package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/packcheck/internal/config"
	"github.com/dshills/packcheck/internal/searcher"
	"github.com/dshills/packcheck/internal/storage"
	"github.com/dshills/packcheck/pkg/types"
)

func fixture(texts ...string) storage.PackFixture {
	fx := storage.PackFixture{Docs: []storage.FixtureDoc{{ID: 1, Title: "Doc"}}}
	for i, text := range texts {
		fx.Chunks = append(fx.Chunks, storage.FixtureChunk{ID: int64(i + 1), DocID: 1, Ord: int64(i), Text: text})
	}
	return fx
}

func writePack(t *testing.T, path string, fx storage.PackFixture) {
	t.Helper()
	_ = os.Remove(path)
	require.NoError(t, storage.WritePack(context.Background(), path, fx))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("JINA_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	return config.Default()
}

func openApp(t *testing.T, fx storage.PackFixture) (*App, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pack.sqlite3")
	writePack(t, path, fx)
	a, err := Open(context.Background(), testConfig(t), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, path
}

func TestOpen_MissingPack(t *testing.T) {
	_, err := Open(context.Background(), testConfig(t), filepath.Join(t.TempDir(), "none.sqlite3"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPackNotFound))
}

func TestOpen_UnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.sqlite3")
	writePack(t, path, fixture("hello"))
	cfg := testConfig(t)
	cfg.Embedding.Provider = "bogus"

	_, err := Open(context.Background(), cfg, path, nil)
	assert.Error(t, err)
}

func TestApp_Operations(t *testing.T) {
	a, path := openApp(t, fixture("alpha beta", "beta gamma", "delta"))
	ctx := context.Background()

	assert.Equal(t, path, a.PackPath())
	assert.Equal(t, "none", a.ProviderName())
	assert.Equal(t, path, a.pack.Path())

	stats, err := a.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Chunks)

	resp, err := a.Search(ctx, searcher.SearchRequest{Query: "beta", Top: 5})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	// no embeddings in the pack, so the missing provider is not reported
	assert.Empty(t, resp.Notice)

	report, err := a.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestApp_Reload(t *testing.T) {
	a, path := openApp(t, fixture("alpha"))
	ctx := context.Background()
	req := searcher.SearchRequest{Query: "omega", Top: 5, UseCache: true}

	resp, err := a.Search(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)

	writePack(t, path, fixture("alpha", "omega"))
	require.NoError(t, a.Reload(ctx))

	resp, err = a.Search(ctx, req)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.False(t, resp.CacheHit)
}

func TestApp_ReloadFailureKeepsPack(t *testing.T) {
	a, path := openApp(t, fixture("alpha"))
	require.NoError(t, os.Remove(path))

	err := a.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPackNotFound))

	resp, err := a.Search(context.Background(), searcher.SearchRequest{Query: "alpha", Top: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestApp_ConcurrentSearchAndReload(t *testing.T) {
	a, _ := openApp(t, fixture("alpha", "beta"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := a.Search(ctx, searcher.SearchRequest{Query: "alpha", Top: 1})
				assert.NoError(t, err)
			}
		}()
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, a.Reload(ctx))
	}
	wg.Wait()
}

func TestApp_Close(t *testing.T) {
	a, _ := openApp(t, fixture("alpha"))
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, err := a.Search(context.Background(), searcher.SearchRequest{Query: "alpha", Top: 1})
	assert.ErrorIs(t, err, errClosed)
	_, err = a.Info(context.Background())
	assert.ErrorIs(t, err, errClosed)
	assert.ErrorIs(t, a.Reload(context.Background()), errClosed)
}
