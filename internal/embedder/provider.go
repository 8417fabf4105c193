package embedder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/packcheck/pkg/types"
)

// SimilarityProvider is the query-side embedding capability used by the searcher.
type SimilarityProvider interface {
	// Available is false when no model is configured. An available provider may
	// still fail on first use if its model cannot be loaded.
	Available() bool
	// EmbedQuery returns the L2-normalized embedding of text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// Name identifies the provider for logs and reports.
	Name() string
	Close() error
}

// None is the absent provider.
type None struct{}

var _ SimilarityProvider = None{}

func (None) Available() bool { return false }

func (None) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("%w: %v", types.ErrProviderUnavailable, ErrNoProviderEnabled)
}

func (None) Name() string { return ProviderNone }

func (None) Close() error { return nil }

// ModelFactory builds the model behind a Handle. It runs at most once.
type ModelFactory func() (Embedder, error)

var errHandleClosed = errors.New("embedding handle closed")

// Handle owns one lazily-initialized model shared by every search.
//
// The factory runs on first use; its failure is kept and returned on every later
// call. Encodes are serialized. A panic inside the model poisons the handle and
// all later calls fail with the poisoned error.
type Handle struct {
	name    string
	factory ModelFactory
	logger  *zap.Logger
	cache   *QueryCache

	once    sync.Once
	model   Embedder
	initErr error

	mu       sync.Mutex
	poisoned error
	closed   bool
}

var _ SimilarityProvider = (*Handle)(nil)

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithHandleLogger sets the logger.
func WithHandleLogger(logger *zap.Logger) HandleOption {
	return func(h *Handle) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithQueryCache enables caching of normalized query vectors.
func WithQueryCache(size int) HandleOption {
	return func(h *Handle) {
		if size > 0 {
			h.cache = NewQueryCache(size)
		}
	}
}

// NewHandle wraps factory. Nothing is loaded until the first EmbedQuery.
func NewHandle(name string, factory ModelFactory, opts ...HandleOption) *Handle {
	h := &Handle{
		name:    name,
		factory: factory,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handle) Available() bool { return true }

func (h *Handle) Name() string { return h.name }

func (h *Handle) init() (Embedder, error) {
	h.once.Do(func() {
		h.logger.Debug("initializing embedding model", zap.String("provider", h.name))
		model, err := h.factory()
		if err != nil {
			h.initErr = fmt.Errorf("%w: failed to initialise %s: %v", types.ErrProviderUnavailable, h.name, err)
			h.logger.Warn("embedding model unavailable", zap.String("provider", h.name), zap.Error(err))
			return
		}
		if model == nil {
			h.initErr = fmt.Errorf("%w: %s factory returned no model", types.ErrProviderUnavailable, h.name)
			return
		}
		h.model = model
	})
	return h.model, h.initErr
}

// EmbedQuery encodes text and normalizes the result.
func (h *Handle) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	model, err := h.init()
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.poisoned != nil {
		return nil, h.poisoned
	}
	if h.cache != nil {
		if v, ok := h.cache.Get(text); ok {
			return v, nil
		}
	}

	vector, err := h.encode(ctx, model, text)
	if err != nil {
		return nil, err
	}
	vector = NormalizeVector(vector)

	if h.cache != nil {
		h.cache.Set(text, vector)
	}
	return vector, nil
}

// encode runs the model with the lock held and converts a panic into poisoning.
func (h *Handle) encode(ctx context.Context, model Embedder, text string) (vector []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.poisoned = fmt.Errorf("%w: %s instance is poisoned: %v", types.ErrProviderUnavailable, h.name, r)
			h.logger.Error("embedding model panicked", zap.String("provider", h.name), zap.Any("panic", r))
			vector, err = nil, h.poisoned
		}
	}()

	emb, err := model.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if emb == nil || len(emb.Vector) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned for query", ErrProviderFailed)
	}
	return emb.Vector, nil
}

// Close releases the model if it was loaded. A closed handle never initializes
// and fails every later call.
func (h *Handle) Close() error {
	h.once.Do(func() {
		h.initErr = fmt.Errorf("%w: %v", types.ErrProviderUnavailable, errHandleClosed)
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if h.poisoned == nil {
		h.poisoned = fmt.Errorf("%w: %v", types.ErrProviderUnavailable, errHandleClosed)
	}
	if h.model == nil {
		return nil
	}
	return h.model.Close()
}
