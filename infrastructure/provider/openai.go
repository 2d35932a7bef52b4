package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults applied when the corresponding OpenAIConfig field is zero.
const (
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultMaxRetries     = 5
	defaultInitialDelay   = 2 * time.Second
	defaultBackoffFactor  = 2.0
)

// errEmbeddingCountMismatch indicates the API returned fewer embedding
// vectors than texts were sent. Retryable: upstreams under transient load
// can answer 200 with a partial body.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// errUpstreamProviderFailure indicates HTTP 200 with an error payload
// instead of embedding data, the shape routing providers like OpenRouter
// produce when every upstream is down. Not retryable.
var errUpstreamProviderFailure = errors.New("upstream provider failure")

// OpenAIConfig configures an OpenAI-compatible embedding endpoint.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	InitialDelay   time.Duration
	BackoffFactor  float64

	// HTTPClient overrides the default client, e.g. to add a caching
	// transport. Takes precedence over Timeout.
	HTTPClient *http.Client
}

// OpenAIProvider embeds text through an OpenAI-compatible API, retrying
// transient failures with exponential backoff.
type OpenAIProvider struct {
	client         *openai.Client
	embeddingModel string
	maxRetries     int
	initialDelay   time.Duration
	backoffFactor  float64
}

// NewOpenAIProvider creates a provider for api.openai.com with default
// model and retry settings.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return NewOpenAIProviderFromConfig(OpenAIConfig{APIKey: apiKey})
}

// NewOpenAIProviderFromConfig creates a provider from configuration,
// filling zero fields with defaults.
func NewOpenAIProviderFromConfig(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	switch {
	case cfg.HTTPClient != nil:
		clientCfg.HTTPClient = cfg.HTTPClient
	case cfg.Timeout > 0:
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	p := &OpenAIProvider{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: cfg.EmbeddingModel,
		maxRetries:     cfg.MaxRetries,
		initialDelay:   cfg.InitialDelay,
		backoffFactor:  cfg.BackoffFactor,
	}
	if p.embeddingModel == "" {
		p.embeddingModel = defaultEmbeddingModel
	}
	if p.maxRetries == 0 {
		p.maxRetries = defaultMaxRetries
	}
	if p.initialDelay == 0 {
		p.initialDelay = defaultInitialDelay
	}
	if p.backoffFactor == 0 {
		p.backoffFactor = defaultBackoffFactor
	}
	return p
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (p *OpenAIProvider) Close() error {
	return nil
}

// Embed requests embeddings for all texts in one API call.
func (p *OpenAIProvider) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0, 0)), nil
	}

	var resp openai.EmbeddingResponse
	err := p.retry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(p.embeddingModel),
			Input: texts,
		})
		if callErr != nil {
			return callErr
		}
		return checkEmbeddingResponse(resp, len(texts))
	})
	if err != nil {
		return EmbeddingResponse{}, wrapError("embedding", err)
	}

	embeddings := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		vec := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float64(v)
		}
		embeddings[i] = vec
	}

	usage := NewUsage(resp.Usage.PromptTokens, 0, resp.Usage.TotalTokens)
	return NewEmbeddingResponse(embeddings, usage), nil
}

// checkEmbeddingResponse rejects responses that do not carry one vector
// per input text. Zero data plus no model plus zero usage is the dead
// upstream shape; go-openai parses the 200-with-error-body answer of a
// routing provider into exactly that empty response.
func checkEmbeddingResponse(resp openai.EmbeddingResponse, want int) error {
	if len(resp.Data) == 0 && string(resp.Model) == "" && resp.Usage.TotalTokens == 0 {
		return fmt.Errorf("%w: HTTP 200 with no embedding data, no model, and zero usage", errUpstreamProviderFailure)
	}
	if len(resp.Data) != want {
		return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), want)
	}
	return nil
}

// retry runs fn with exponential backoff: the initial attempt plus up to
// maxRetries more. Non-retryable errors return immediately.
func (p *OpenAIProvider) retry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == p.maxRetries {
			return fmt.Errorf("max retries exceeded: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * p.backoffFactor)
		}
	}
}

// retryable reports whether the embedding call is worth another attempt.
func retryable(err error) bool {
	// Partial responses clear up once the upstream load passes.
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	// go-openai reports non-JSON error bodies as RequestError. Those come
	// from proxies and load balancers, so another attempt can land.
	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

// wrapError converts go-openai error types into a ProviderError while
// keeping the original chain reachable through Unwrap.
func wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(operation, 0, err.Error(), err)
}

// Ensure OpenAIProvider implements the interface.
var _ Embedder = (*OpenAIProvider)(nil)
