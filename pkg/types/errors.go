package types

import "errors"

// Error taxonomy shared by the storage, embedder and searcher packages.
var (
	// ErrPackNotFound is a configuration error: the pack path does not exist.
	ErrPackNotFound = errors.New("pack not found")

	// ErrMalformedEmbedding marks an embedding blob whose byte length is not
	// a multiple of 4.
	ErrMalformedEmbedding = errors.New("malformed embedding")

	// ErrInvalidArgument is returned before any query runs, e.g. for top == 0.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProviderUnavailable covers embedding model initialisation failure and
	// a handle poisoned by a panic during encoding. It is never retried.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
)

// Search result validation errors
var (
	ErrInvalidChunkID    = errors.New("invalid chunk ID")
	ErrInvalidRank       = errors.New("rank must be >= 1")
	ErrInvalidFusedScore = errors.New("fused score must be positive")
)
