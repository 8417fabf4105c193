package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrUnsupportedModel  = errors.New("unsupported model")
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// Embedding represents a vector embedding with metadata
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
}

// EmbeddingRequest represents a request to embed one text
type EmbeddingRequest struct {
	Text  string
	Model string // Optional: override default model
}

// Embedder is a text embedding model.
type Embedder interface {
	// GenerateEmbedding embeds a single text. The vector is not normalized.
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)

	// Dimension returns the embedding dimension for this provider
	Dimension() int

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string

	// Close releases any resources held by the embedder
	Close() error
}

// QueryCache is an LRU of normalized query vectors keyed by text hash.
type QueryCache struct {
	cache *lru.Cache[string, []float32]
}

// NewQueryCache creates a cache holding up to maxLen vectors.
func NewQueryCache(maxLen int) *QueryCache {
	if maxLen <= 0 {
		maxLen = 1000
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		cache, _ = lru.New[string, []float32](1000)
	}
	return &QueryCache{cache: cache}
}

// Get returns a copy of the cached vector for text.
func (c *QueryCache) Get(text string) ([]float32, bool) {
	v, ok := c.cache.Get(ComputeHash(text))
	if !ok {
		return nil, false
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Set stores a copy of vector for text.
func (c *QueryCache) Set(text string, vector []float32) {
	stored := make([]float32, len(vector))
	copy(stored, vector)
	c.cache.Add(ComputeHash(text), stored)
}

// Len returns the number of cached vectors.
func (c *QueryCache) Len() int {
	return c.cache.Len()
}

// Purge empties the cache.
func (c *QueryCache) Purge() {
	c.cache.Purge()
}

// ComputeHash computes SHA-256 hash of text for caching
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// ValidateRequest rejects blank text.
func ValidateRequest(req EmbeddingRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyText
	}
	return nil
}
