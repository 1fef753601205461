package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads and parses the configuration file and environment variables.
// An empty path yields the built-in defaults.
func Load(configPath string) (*Config, *Secrets, error) {
	var cfg Config
	presetDefaults(&cfg)

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.ValidateInputs(); err != nil {
		return nil, nil, fmt.Errorf("input validation failed: %w", err)
	}

	return &cfg, LoadSecrets(), nil
}

// LoadOptional behaves like Load but falls back to defaults when the file does not exist
func LoadOptional(configPath string) (*Config, *Secrets, error) {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return Load("")
	}
	return Load(configPath)
}

// Default returns the configuration built only from defaults
func Default() *Config {
	var cfg Config
	presetDefaults(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

// presetDefaults fills fields for which zero is a valid setting.
// It runs before decoding so an explicit zero in the file survives.
func presetDefaults(cfg *Config) {
	cfg.Input.ChunkOverlap = 200
	cfg.Generation.CodeGenerationDocSamples = 3
	cfg.Generation.CodeGenerationCodeSamples = 2
	cfg.Model.Temperature = 0.7
	cfg.Model.TopP = 1.0
}

// applyDefaults sets default values for optional configuration fields left empty
func applyDefaults(cfg *Config) {
	// Input defaults
	if cfg.Input.DocumentationPath == "" {
		cfg.Input.DocumentationPath = "data/llm-full.txt"
	}
	if cfg.Input.ExamplesDir == "" {
		cfg.Input.ExamplesDir = "../../examples"
	}
	if len(cfg.Input.Extensions) == 0 {
		cfg.Input.Extensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs"}
	}
	if cfg.Input.IgnoreDirs == nil {
		cfg.Input.IgnoreDirs = []string{"node_modules", ".git", "dist", "build", ".next"}
	}
	if cfg.Input.ChunkSize == 0 {
		cfg.Input.ChunkSize = 2000
	}

	// Output defaults
	if cfg.Output.DatasetPath == "" {
		cfg.Output.DatasetPath = "comprehensive_training.jsonl"
	}
	if cfg.Output.CheckpointPath == "" {
		cfg.Output.CheckpointPath = "fine_tune_checkpoint.json"
	}

	// Generation defaults
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = ProviderOpenAI
	}
	if cfg.Generation.Subject == "" {
		cfg.Generation.Subject = "Voice UI Kit"
	}
	if cfg.Generation.Language == "" {
		cfg.Generation.Language = "TypeScript/React"
	}
	if cfg.Generation.ImportHint == "" {
		cfg.Generation.ImportHint = "@pipecat-ai/voice-ui-kit"
	}
	if cfg.Generation.DocPairs == 0 {
		cfg.Generation.DocPairs = 3
	}
	if cfg.Generation.CodePairs == 0 {
		cfg.Generation.CodePairs = 4
	}
	if cfg.Generation.IntegrationPairs == 0 {
		cfg.Generation.IntegrationPairs = 5
	}
	if cfg.Generation.CodeGenerationPairs == 0 {
		cfg.Generation.CodeGenerationPairs = 8
	}
	if cfg.Generation.IntegrationSampleSize == 0 {
		cfg.Generation.IntegrationSampleSize = 5
	}
	if cfg.Generation.IntegrationExcerptChars == 0 {
		cfg.Generation.IntegrationExcerptChars = 500
	}
	if cfg.Generation.CodeGenerationExcerptChars == 0 {
		cfg.Generation.CodeGenerationExcerptChars = 800
	}

	// Model defaults
	if cfg.Model.BaseURL == "" && cfg.Generation.Provider == ProviderOpenAI {
		cfg.Model.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model.ModelName == "" {
		if cfg.Generation.Provider == ProviderGemini {
			cfg.Model.ModelName = "gemini-1.5-pro"
		} else {
			cfg.Model.ModelName = "gpt-4"
		}
	}
	if cfg.Model.MaxOutputTokens == 0 {
		cfg.Model.MaxOutputTokens = 4096
	}
	if cfg.Model.RateLimitPerMinute == 0 {
		cfg.Model.RateLimitPerMinute = 60
	}
	// HTTPTimeoutSeconds and MaxRetries stay 0: one blocking attempt per unit,
	// failures are absorbed by the pipeline and recovered by re-running.

	// Prompt templates
	if cfg.PromptTemplates.SystemPrompt == "" {
		cfg.PromptTemplates.SystemPrompt = GetDefaultSystemPrompt()
	}
	if cfg.PromptTemplates.DocumentationQA == "" {
		cfg.PromptTemplates.DocumentationQA = GetDefaultDocumentationQATemplate()
	}
	if cfg.PromptTemplates.CodeQA == "" {
		cfg.PromptTemplates.CodeQA = GetDefaultCodeQATemplate()
	}
	if cfg.PromptTemplates.Integration == "" {
		cfg.PromptTemplates.Integration = GetDefaultIntegrationTemplate()
	}
	if cfg.PromptTemplates.CodeGeneration == "" {
		cfg.PromptTemplates.CodeGeneration = GetDefaultCodeGenerationTemplate()
	}
}
