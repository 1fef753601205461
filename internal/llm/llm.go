// Package llm adapts the configured model provider to a prompt-in, text-out generator.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lamim/finetuneforge/internal/api"
	"github.com/lamim/finetuneforge/internal/config"
	"github.com/lamim/finetuneforge/internal/metrics"
)

// Generator turns a prompt into free-form model output
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// New builds the generator selected by cfg.Generation.Provider
func New(ctx context.Context, cfg *config.Config, secrets *config.Secrets, logger *slog.Logger, collector *metrics.Collector) (Generator, error) {
	apiKey := secrets.GetAPIKey(cfg.Generation.Provider, cfg.Model.BaseURL)

	switch cfg.Generation.Provider {
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.Model, apiKey, cfg.PromptTemplates.SystemPrompt, logger, collector)
	case config.ProviderOpenAI:
		if apiKey == "" {
			logger.Warn("No API key found for endpoint, sending unauthenticated requests",
				"base_url", cfg.Model.BaseURL)
		}
		client := api.NewClient(logger,
			api.WithHTTPTimeout(time.Duration(cfg.Model.HTTPTimeoutSeconds)*time.Second),
			api.WithMaxRetries(cfg.Model.MaxRetries),
			api.WithMetrics(collector),
		)
		return NewOpenAIGenerator(client, cfg.Model, apiKey, cfg.PromptTemplates.SystemPrompt), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Generation.Provider)
	}
}
