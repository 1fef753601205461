package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/lamim/finetuneforge/internal/api"
	"github.com/lamim/finetuneforge/internal/config"
	"github.com/lamim/finetuneforge/internal/metrics"
)

// GeminiGenerator calls Google Gemini through the generative-ai-go SDK
type GeminiGenerator struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	cfg      config.ModelConfig
	limiters *api.RateLimiterPool
	metrics  *metrics.Collector
	timeout  time.Duration
}

// NewGeminiGenerator creates a Gemini-backed generator
func NewGeminiGenerator(
	ctx context.Context,
	cfg config.ModelConfig,
	apiKey, systemPrompt string,
	logger *slog.Logger,
	collector *metrics.Collector,
) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY or GOOGLE_API_KEY is required for the gemini provider")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	model.SetTemperature(float32(cfg.Temperature))
	model.SetTopP(float32(cfg.TopP))
	model.SetMaxOutputTokens(int32(cfg.MaxOutputTokens))
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	return &GeminiGenerator{
		client:   client,
		model:    model,
		cfg:      cfg,
		limiters: api.NewRateLimiterPool(logger),
		metrics:  collector,
		timeout:  time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
	}, nil
}

// Generate implements Generator
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	waitStart := time.Now()
	if err := g.limiters.Wait(ctx, "gemini:"+g.cfg.ModelName, g.cfg.RateLimitPerMinute); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}
	g.metrics.RecordRateLimiterWait(g.cfg.ModelName, time.Since(waitStart))

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	g.metrics.RecordAPIRequest(g.cfg.ModelName, time.Since(start), err == nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if resp.UsageMetadata != nil {
		g.metrics.RecordTokens(g.cfg.ModelName,
			int(resp.UsageMetadata.PromptTokenCount),
			int(resp.UsageMetadata.CandidatesTokenCount))
	}

	return extractText(resp)
}

// Close implements Generator
func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// extractText joins the text parts of the first candidate
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response (finish reason %s)", candidate.FinishReason)
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", errors.New("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
