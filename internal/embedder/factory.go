package embedder

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/packcheck/internal/config"
)

// DetectProvider returns the provider name cfg selects.
// Priority:
// 1. embedding.provider (or PACKCHECK_EMBEDDING_PROVIDER, applied by config)
// 2. Check for API keys: JINA_API_KEY, OPENAI_API_KEY
// 3. none
func DetectProvider(cfg config.EmbeddingConfig) string {
	if cfg.Provider != "" {
		return strings.ToLower(cfg.Provider)
	}
	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	return ProviderNone
}

// NewProvider returns None when no model is selected, otherwise a Handle that
// builds the model on first use. Unknown provider names fail immediately.
func NewProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (SimilarityProvider, error) {
	name := DetectProvider(cfg)
	switch name {
	case ProviderNone:
		return None{}, nil
	case ProviderJina, ProviderOpenAI, ProviderLocal, ProviderONNX:
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, name)
	}

	factory := func() (Embedder, error) {
		return NewModel(name, cfg)
	}
	return NewHandle(name, factory,
		WithHandleLogger(logger),
		WithQueryCache(cfg.CacheSize),
	), nil
}

// NewModel builds the named model from cfg.
func NewModel(name string, cfg config.EmbeddingConfig) (Embedder, error) {
	httpCfg := HTTPConfig{
		APIKey:    cfg.APIKey,
		Endpoint:  cfg.Endpoint,
		Model:     cfg.Model,
		Dimension: cfg.Dimensions,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}

	switch strings.ToLower(name) {
	case ProviderJina:
		return NewJinaProvider(httpCfg)
	case ProviderOpenAI:
		return NewOpenAIProvider(httpCfg)
	case ProviderLocal:
		return NewLocalProvider(cfg.Dimensions)
	case ProviderONNX:
		model, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, name)
	}
}
