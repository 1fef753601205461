package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/lamim/finetuneforge/internal/config"
	"github.com/lamim/finetuneforge/internal/metrics"
)

const (
	// DefaultBaseRetryDelay is the base delay for exponential backoff
	DefaultBaseRetryDelay = 2 * time.Second
	// RateLimitBackoffMultiplier is the multiplier for rate limit backoff (3^n)
	RateLimitBackoffMultiplier = 3
	// maxErrorBodyBytes caps how much of a non-JSON error body ends up in an error message
	maxErrorBodyBytes = 512
)

// Client handles HTTP requests to OpenAI-compatible API endpoints.
// By default it makes exactly one attempt per call and sets no timeout.
type Client struct {
	httpClient      *http.Client
	rateLimiterPool *RateLimiterPool
	logger          *slog.Logger
	metrics         *metrics.Collector
	maxRetries      int
	baseRetryDelay  time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPTimeout bounds each HTTP attempt; zero means no timeout
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxRetries enables retries of retryable failures
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = max(0, n) }
}

// WithBaseRetryDelay overrides the backoff base delay
func WithBaseRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.baseRetryDelay = d }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records request durations, limiter waits and token usage
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a new API client
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:      &http.Client{},
		rateLimiterPool: NewRateLimiterPool(logger),
		logger:          logger,
		baseRetryDelay:  DefaultBaseRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChatCompletion sends a chat completion request to the configured model
func (c *Client) ChatCompletion(
	ctx context.Context,
	modelCfg config.ModelConfig,
	apiKey string,
	messages []Message,
) (*ChatCompletionResponse, error) {
	modelID := fmt.Sprintf("%s:%s", modelCfg.BaseURL, modelCfg.ModelName)

	waitStart := time.Now()
	if err := c.rateLimiterPool.Wait(ctx, modelID, modelCfg.RateLimitPerMinute); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}
	c.metrics.RecordRateLimiterWait(modelCfg.ModelName, time.Since(waitStart))

	req := ChatCompletionRequest{
		Model:       modelCfg.ModelName,
		Messages:    messages,
		Temperature: modelCfg.Temperature,
		TopP:        modelCfg.TopP,
		MaxTokens:   modelCfg.MaxOutputTokens,
		N:           1,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			sleep := c.backoff(attempt, lastErr)

			c.logger.Warn("Retrying API request",
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"backoff", sleep,
				"model", modelCfg.ModelName,
				"is_rate_limit", IsRateLimitError(lastErr))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(sleep):
			}
		}

		start := time.Now()
		resp, err := c.doRequest(ctx, modelCfg.BaseURL, apiKey, req)
		c.metrics.RecordAPIRequest(modelCfg.ModelName, time.Since(start), err == nil)
		if err == nil {
			c.metrics.RecordTokens(modelCfg.ModelName, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			return resp, nil
		}
		lastErr = err

		// A cancelled context is never worth another attempt
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsRetryable(err) {
			return nil, err
		}
	}

	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// backoff returns 2^(n-1)*base, or 3^n*base after a 429, with ±10% jitter
func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt-1))) * c.baseRetryDelay
	if IsRateLimitError(lastErr) {
		d = time.Duration(math.Pow(RateLimitBackoffMultiplier, float64(attempt))) * c.baseRetryDelay
	}
	jitter := time.Duration(float64(d) * 0.1 * (2*rand.Float64() - 1))
	return d + jitter
}

func (c *Client) doRequest(
	ctx context.Context,
	baseURL string,
	apiKey string,
	req ChatCompletionRequest,
) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
		c.logger.Debug("API request", "endpoint", endpoint, "has_key", true)
	} else {
		c.logger.Debug("API request without key", "endpoint", endpoint)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
		}
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &APIError{
			Message:    fmt.Sprintf("failed to read response: %v", err),
			StatusCode: httpResp.StatusCode,
			Retryable:  true,
		}
	}

	if httpResp.StatusCode != http.StatusOK {
		retryable := isStatusCodeRetryable(httpResp.StatusCode)

		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, &APIError{
				Message:    errResp.Error.Message,
				StatusCode: httpResp.StatusCode,
				Type:       errResp.Error.Type,
				Code:       errResp.Error.Code,
				Retryable:  retryable,
			}
		}

		snippet := string(respBody)
		if len(snippet) > maxErrorBodyBytes {
			snippet = snippet[:maxErrorBodyBytes]
		}
		return nil, &APIError{
			Message:    fmt.Sprintf("API request failed with status %d: %s", httpResp.StatusCode, snippet),
			StatusCode: httpResp.StatusCode,
			Retryable:  retryable,
		}
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices returned in response")
	}

	return &resp, nil
}

// IsRetryable reports whether err is an APIError marked retryable
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable
}

// IsRateLimitError reports whether err is an HTTP 429
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

func isStatusCodeRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusInternalServerError ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}

// APIError represents an error returned by the API
type APIError struct {
	Message    string
	StatusCode int
	Type       string
	Code       string
	Retryable  bool
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %s", e.Message)
}
