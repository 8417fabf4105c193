// Package app wires an open pack, the embedding provider and the searcher into
// one container shared by the CLI, the MCP server and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/packcheck/internal/config"
	"github.com/dshills/packcheck/internal/embedder"
	"github.com/dshills/packcheck/internal/logging"
	"github.com/dshills/packcheck/internal/searcher"
	"github.com/dshills/packcheck/internal/storage"
)

// Backend is what the front ends need from the container.
type Backend interface {
	PackPath() string
	Info(ctx context.Context) (*storage.PackStats, error)
	Search(ctx context.Context, req searcher.SearchRequest) (*searcher.SearchResponse, error)
	Verify(ctx context.Context) (*storage.VerifyReport, error)
}

// App holds the components for one pack. The pack may be swapped by Reload
// while searches are running.
type App struct {
	cfg      *config.Config
	packPath string
	logger   *zap.Logger

	provider embedder.SimilarityProvider
	searcher *searcher.Searcher

	mu     sync.RWMutex
	pack   storage.Reader
	closed bool
}

var _ Backend = (*App)(nil)

// Open opens the pack at packPath and builds the provider and searcher from cfg.
func Open(ctx context.Context, cfg *config.Config, packPath string, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger = logging.OrNop(logger)

	pack, err := openPack(ctx, cfg, packPath, logger)
	if err != nil {
		return nil, err
	}

	provider, err := embedder.NewProvider(cfg.Embedding, logger)
	if err != nil {
		_ = pack.Close()
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	srch := searcher.NewSearcher(pack, provider,
		searcher.WithRRFConstant(cfg.Search.RRFConstant),
		searcher.WithLogger(logger),
		searcher.WithCache(cfg.Search.CacheSize, time.Duration(cfg.Search.CacheTTLSeconds)*time.Second),
	)

	logger.Debug("components ready",
		zap.String("pack", packPath),
		zap.String("provider", provider.Name()),
		zap.String("driver", storage.DriverName))

	return &App{
		cfg:      cfg,
		packPath: packPath,
		logger:   logger,
		provider: provider,
		searcher: srch,
		pack:     pack,
	}, nil
}

func openPack(ctx context.Context, cfg *config.Config, path string, logger *zap.Logger) (*storage.Pack, error) {
	return storage.OpenPack(ctx, path,
		storage.WithOverfetch(cfg.Search.Overfetch),
		storage.WithLogger(logger))
}

// PackPath returns the resolved pack path.
func (a *App) PackPath() string {
	return a.packPath
}

// Config returns the configuration the app was opened with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// ProviderName returns the embedding provider name, "none" when absent.
func (a *App) ProviderName() string {
	return a.provider.Name()
}

// Info returns pack statistics.
func (a *App) Info(ctx context.Context) (*storage.PackStats, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	return a.pack.Stats(ctx)
}

// Search runs one hybrid search against the current pack.
func (a *App) Search(ctx context.Context, req searcher.SearchRequest) (*searcher.SearchResponse, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	return a.searcher.Search(ctx, req)
}

// Verify runs the pack checks.
func (a *App) Verify(ctx context.Context) (*storage.VerifyReport, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	return a.pack.Verify(ctx)
}

// Reload reopens the pack file and swaps it in once in-flight calls finish.
// On failure the current pack stays in place.
func (a *App) Reload(ctx context.Context) error {
	next, err := openPack(ctx, a.cfg, a.packPath, a.logger)
	if err != nil {
		return fmt.Errorf("failed to reload pack: %w", err)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		_ = next.Close()
		return errClosed
	}
	prev := a.pack
	a.pack = next
	a.searcher.SetRetriever(next)
	a.mu.Unlock()

	a.logger.Info("pack reloaded", zap.String("pack", next.Path()))
	return prev.Close()
}

// Close releases the pack and the embedding provider.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return errors.Join(a.pack.Close(), a.provider.Close())
}

var errClosed = errors.New("app is closed")

func (a *App) checkOpen() error {
	if a.closed {
		return errClosed
	}
	return nil
}
