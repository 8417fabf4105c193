// Package embedder turns search queries into vectors for semantic re-ranking.
//
// Models implement Embedder: Jina AI and OpenAI over HTTP (with exponential
// backoff), a deterministic feature-hashing local model, and an ONNX Runtime
// model when built with CGO and the onnx tag.
//
// The searcher only sees SimilarityProvider:
//
//	provider, err := embedder.NewProvider(cfg.Embedding, logger)
//	if err != nil {
//	    return err // unknown provider name
//	}
//	defer provider.Close()
//
//	if provider.Available() {
//	    vec, err := provider.EmbedQuery(ctx, "hybrid retrieval")
//	    // vec has unit L2 norm
//	}
//
// None is returned when no provider is configured and no API key is present.
// Otherwise a Handle wraps the model: it is created once, loaded lazily on the
// first query, and shared by every search. Load failures and model panics are
// reported as types.ErrProviderUnavailable and are never retried.
package embedder
