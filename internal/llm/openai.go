package llm

import (
	"context"
	"errors"

	"github.com/lamim/finetuneforge/internal/api"
	"github.com/lamim/finetuneforge/internal/config"
)

// OpenAIGenerator sends each prompt as a single user turn to an OpenAI-compatible endpoint
type OpenAIGenerator struct {
	client       *api.Client
	model        config.ModelConfig
	apiKey       string
	systemPrompt string
}

// NewOpenAIGenerator creates a generator backed by the chat completions API
func NewOpenAIGenerator(client *api.Client, model config.ModelConfig, apiKey, systemPrompt string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:       client,
		model:        model,
		apiKey:       apiKey,
		systemPrompt: systemPrompt,
	}
}

// Generate implements Generator
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := make([]api.Message, 0, 2)
	if g.systemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: g.systemPrompt})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	resp, err := g.client.ChatCompletion(ctx, g.model, g.apiKey, messages)
	if err != nil {
		return "", err
	}

	// Output cut off by max_tokens is still returned; complete elements survive parsing
	if resp.Choices[0].FinishReason == "content_filter" {
		return "", errors.New("response blocked by content filter")
	}

	return resp.Content(), nil
}

// Close implements Generator
func (g *OpenAIGenerator) Close() error { return nil }
