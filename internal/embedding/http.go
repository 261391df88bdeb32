package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/hyperjump/helpsearch/pkg/utils"
)

// HTTPEmbedder calls an OpenAI-compatible embeddings endpoint. Requests are
// throttled by a token bucket and retried with exponential backoff on network
// errors, 429 and 5xx responses.
type HTTPEmbedder struct {
	endpoint   string
	apiKey     string
	model      string
	dimensions int
	maxTries   uint
	client     *http.Client
	limiter    *rate.Limiter

	initialInterval time.Duration
}

// HTTPOptions configures an HTTPEmbedder.
type HTTPOptions struct {
	Endpoint          string
	APIKey            string
	Model             string
	Dimensions        int
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

// NewHTTPEmbedder returns an embedder for the endpoint in opts.
func NewHTTPEmbedder(opts HTTPOptions) (*HTTPEmbedder, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("embedding endpoint is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &HTTPEmbedder{
		endpoint:        opts.Endpoint,
		apiKey:          opts.APIKey,
		model:           opts.Model,
		dimensions:      opts.Dimensions,
		maxTries:        uint(opts.MaxRetries) + 1,
		client:          &http.Client{Timeout: opts.Timeout},
		limiter:         rate.NewLimiter(limit, 1),
		initialInterval: 500 * time.Millisecond,
	}, nil
}

type embeddingRequest struct {
	Model string   `json:"model,omitempty"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Embed returns the unit-length embedding for a single text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in one request. Results are ordered by the
// response's index field.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.initialInterval
	data, err := backoff.Retry(ctx, func() ([]embeddingData, error) {
		return e.call(ctx, body)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(e.maxTries))
	if err != nil {
		return nil, err
	}

	if len(data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d results, expected %d", len(data), len(texts))
	}
	embeddings := make([][]float32, len(texts))
	for _, d := range data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding API returned invalid index %d", d.Index)
		}
		utils.NormalizeL2(d.Embedding)
		embeddings[d.Index] = d.Embedding
	}
	for i, emb := range embeddings {
		if emb == nil {
			return nil, fmt.Errorf("embedding API returned no result for input %d", i)
		}
	}
	return embeddings, nil
}

// call performs one request. Errors that retrying cannot fix are wrapped with
// backoff.Permanent.
func (e *HTTPEmbedder) call(ctx context.Context, body []byte) ([]embeddingData, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("embedding API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := statusError(resp.StatusCode, respBody)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, apiErr
		}
		return nil, backoff.Permanent(apiErr)
	}

	var result embeddingResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if result.Error != nil {
		return nil, backoff.Permanent(fmt.Errorf("embedding API error: %s", result.Error.Message))
	}
	return result.Data, nil
}

func statusError(status int, body []byte) error {
	var errResp embeddingResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
		return fmt.Errorf("embedding API error (HTTP %d): %s", status, errResp.Error.Message)
	}
	return fmt.Errorf("embedding API error (HTTP %d): %s", status, utils.Truncate(string(body), 200))
}

// Dimensions returns the configured embedding dimension.
func (e *HTTPEmbedder) Dimensions() int {
	return e.dimensions
}

// Close releases idle connections.
func (e *HTTPEmbedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
