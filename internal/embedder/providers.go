package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"
)

// Provider configuration
const (
	ProviderNone   = "none"
	ProviderJina   = "jina"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
	ProviderONNX   = "onnx"

	EnvJinaAPIKey   = "JINA_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	JinaEndpoint   = "https://api.jina.ai/v1/embeddings"
	OpenAIEndpoint = "https://api.openai.com/v1/embeddings"

	// Default models
	DefaultJinaModel   = "jina-embeddings-v3"
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultLocalModel  = "local-hash"

	// Dimensions
	JinaDimension   = 1024
	OpenAIDimension = 1536
	LocalDimension  = 384

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0

	defaultHTTPTimeout = 30 * time.Second
)

// HTTPConfig configures an HTTP embedding API client.
type HTTPConfig struct {
	APIKey   string
	Endpoint string
	Model    string
	// Dimension requests truncated embeddings when > 0.
	Dimension int
	Timeout   time.Duration
	Retry     *RetryConfig
}

// HTTPProvider implements Embedder against an OpenAI-compatible embeddings API.
type HTTPProvider struct {
	name       string
	endpoint   string
	apiKey     string
	model      string
	dimension  int
	requested  int
	task       string
	httpClient *http.Client
	retry      RetryConfig
}

// NewJinaProvider creates a Jina AI embedder. Queries are sent with the
// retrieval.query task.
func NewJinaProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	p, err := newHTTPProvider(ProviderJina, EnvJinaAPIKey, JinaEndpoint, DefaultJinaModel, JinaDimension, cfg)
	if err != nil {
		return nil, err
	}
	p.task = "retrieval.query"
	return p, nil
}

// NewOpenAIProvider creates an OpenAI embedder.
func NewOpenAIProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	return newHTTPProvider(ProviderOpenAI, EnvOpenAIAPIKey, OpenAIEndpoint, DefaultOpenAIModel, OpenAIDimension, cfg)
}

func newHTTPProvider(name, keyEnv, endpoint, model string, dimension int, cfg HTTPConfig) (*HTTPProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(keyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, keyEnv)
	}

	p := &HTTPProvider{
		name:      name,
		endpoint:  endpoint,
		apiKey:    apiKey,
		model:     model,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		retry: DefaultRetryConfig(),
	}
	if cfg.Endpoint != "" {
		p.endpoint = cfg.Endpoint
	}
	if cfg.Model != "" {
		p.model = cfg.Model
	}
	if cfg.Dimension > 0 {
		p.dimension = cfg.Dimension
		p.requested = cfg.Dimension
	}
	if cfg.Timeout > 0 {
		p.httpClient.Timeout = cfg.Timeout
	}
	if cfg.Retry != nil {
		p.retry = *cfg.Retry
	}
	return p, nil
}

func (p *HTTPProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	vector, err := retryWithBackoff(ctx, p.retry, func() ([]float32, error) {
		return p.callAPI(ctx, req.Text, model)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderFailed, p.name, err)
	}

	return &Embedding{
		Vector:    vector,
		Dimension: len(vector),
		Provider:  p.name,
		Model:     model,
	}, nil
}

func (p *HTTPProvider) callAPI(ctx context.Context, text, model string) ([]float32, error) {
	reqBody := map[string]interface{}{
		"input": []string{text},
		"model": model,
	}
	if p.task != "" {
		reqBody["task"] = p.task
	}
	if p.requested > 0 {
		reqBody["dimensions"] = p.requested
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &statusError{code: resp.StatusCode, body: string(bodyBytes)}
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Data) == 0 || len(apiResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return apiResp.Data[0].Embedding, nil
}

func (p *HTTPProvider) Dimension() int {
	return p.dimension
}

func (p *HTTPProvider) Provider() string {
	return p.name
}

func (p *HTTPProvider) Model() string {
	return p.model
}

func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider is a deterministic feature-hashing model. Each word adds a signed
// unit to one bucket, so texts sharing words get positive cosine similarity.
// It needs no network or model files and is meant for smoke tests.
type LocalProvider struct {
	dimension int
}

// NewLocalProvider creates a local embedder. A non-positive dimension selects LocalDimension.
func NewLocalProvider(dimension int) (*LocalProvider, error) {
	if dimension <= 0 {
		dimension = LocalDimension
	}
	return &LocalProvider{dimension: dimension}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	vector := make([]float32, l.dimension)
	for _, word := range SplitWords(req.Text) {
		sum := HashString(word)
		idx := int(sum % uint64(l.dimension))
		if sum&(1<<63) != 0 {
			vector[idx]--
		} else {
			vector[idx]++
		}
	}

	return &Embedding{
		Vector:    vector,
		Dimension: l.dimension,
		Provider:  ProviderLocal,
		Model:     DefaultLocalModel,
	}, nil
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return DefaultLocalModel
}

func (l *LocalProvider) Close() error {
	return nil
}

// NormalizeVector returns v scaled to unit L2 norm. When the norm is zero or NaN
// the input is returned unchanged.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	norm := math.Sqrt(sum)
	if !(norm > 0) {
		return v
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = float32(float64(val) / norm)
	}
	return result
}
