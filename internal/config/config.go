package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Provider identifies the backend used for generation
type Provider string

const (
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is Google Gemini via the generative-ai-go SDK
	ProviderGemini Provider = "gemini"
)

// Config represents the complete application configuration
type Config struct {
	Input           InputConfig      `toml:"input"`
	Output          OutputConfig     `toml:"output"`
	Generation      GenerationConfig `toml:"generation"`
	Model           ModelConfig      `toml:"model"`
	PromptTemplates PromptTemplates  `toml:"prompt_templates"`
	Metrics         MetricsConfig    `toml:"metrics"`
}

// InputConfig describes where source material is read from
type InputConfig struct {
	DocumentationPath string   `toml:"documentation_path" validate:"required"`
	ExamplesDir       string   `toml:"examples_dir"`
	Extensions        []string `toml:"extensions" validate:"dive,startswith=."`
	IgnoreDirs        []string `toml:"ignore_dirs"`
	ChunkSize         int      `toml:"chunk_size" validate:"min=100,max=100000"`
	ChunkOverlap      int      `toml:"chunk_overlap" validate:"min=0"`
	ExtractSymbols    bool     `toml:"extract_symbols"` // Outline code examples with tree-sitter
}

// OutputConfig describes where results and progress are written
type OutputConfig struct {
	DatasetPath    string `toml:"dataset_path" validate:"required"`
	CheckpointPath string `toml:"checkpoint_path" validate:"required"`
	LogPath        string `toml:"log_path"` // Optional JSON log file
}

// GenerationConfig holds per-phase generation settings
type GenerationConfig struct {
	Provider   Provider `toml:"provider" validate:"oneof=openai gemini"`
	Subject    string   `toml:"subject" validate:"required"`  // Product name used in aggregate prompts
	Language   string   `toml:"language" validate:"required"` // Language of the code examples, e.g. "TypeScript/React"
	ImportHint string   `toml:"import_hint"`                  // Package import path shown in code generation prompts

	DocPairs            int `toml:"doc_pairs" validate:"min=1,max=50"`
	CodePairs           int `toml:"code_pairs" validate:"min=1,max=50"`
	IntegrationPairs    int `toml:"integration_pairs" validate:"min=1,max=50"`
	CodeGenerationPairs int `toml:"code_generation_pairs" validate:"min=1,max=50"`

	IntegrationSampleSize      int `toml:"integration_sample_size" validate:"min=1"`
	IntegrationExcerptChars    int `toml:"integration_excerpt_chars" validate:"min=1"`
	CodeGenerationDocSamples   int `toml:"code_generation_doc_samples" validate:"min=0"`
	CodeGenerationCodeSamples  int `toml:"code_generation_code_samples" validate:"min=0"`
	CodeGenerationExcerptChars int `toml:"code_generation_excerpt_chars" validate:"min=1"`

	ShowProgress bool `toml:"show_progress"`
}

// ModelConfig represents configuration for the generation model endpoint
type ModelConfig struct {
	BaseURL            string  `toml:"base_url"`
	ModelName          string  `toml:"model_name" validate:"required"`
	Temperature        float64 `toml:"temperature" validate:"gte=0,lte=2"`
	TopP               float64 `toml:"top_p" validate:"gte=0,lte=1"`
	MaxOutputTokens    int     `toml:"max_output_tokens" validate:"min=1"`
	RateLimitPerMinute int     `toml:"rate_limit_per_minute" validate:"min=1"`
	HTTPTimeoutSeconds int     `toml:"http_timeout_seconds" validate:"min=0"` // 0 = no timeout
	MaxRetries         int     `toml:"max_retries" validate:"min=0,max=10"`   // 0 = never retry
}

// PromptTemplates holds all customizable prompt templates
type PromptTemplates struct {
	SystemPrompt    string `toml:"system_prompt"`
	DocumentationQA string `toml:"documentation_qa"`
	CodeQA          string `toml:"code_qa"`
	Integration     string `toml:"integration"`
	CodeGeneration  string `toml:"code_generation"`
}

// MetricsConfig controls the optional Prometheus endpoint
type MetricsConfig struct {
	ListenAddr string `toml:"listen_addr"` // e.g. ":2112"; empty disables the endpoint
}

// Secrets holds sensitive credentials loaded from environment variables
type Secrets struct {
	APIKeys map[string]string
}

var validate = validator.New()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q validation (value: %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	if c.Input.ChunkOverlap >= c.Input.ChunkSize {
		return fmt.Errorf("input.chunk_overlap (%d) must be smaller than input.chunk_size (%d)",
			c.Input.ChunkOverlap, c.Input.ChunkSize)
	}

	if c.Generation.Provider == ProviderOpenAI && c.Model.BaseURL == "" {
		return fmt.Errorf("model.base_url is required for provider %s", ProviderOpenAI)
	}

	if c.Output.DatasetPath == c.Output.CheckpointPath {
		return fmt.Errorf("output.dataset_path and output.checkpoint_path must differ")
	}

	templates := map[string]string{
		"documentation_qa": c.PromptTemplates.DocumentationQA,
		"code_qa":          c.PromptTemplates.CodeQA,
		"integration":      c.PromptTemplates.Integration,
		"code_generation":  c.PromptTemplates.CodeGeneration,
	}
	for name, tmpl := range templates {
		if strings.TrimSpace(tmpl) == "" {
			return fmt.Errorf("prompt_templates.%s is required", name)
		}
	}

	return nil
}

// LoadSecrets loads sensitive credentials from environment variables
func LoadSecrets() *Secrets {
	secrets := &Secrets{
		APIKeys: make(map[string]string),
	}

	// Generic key for any OpenAI-compatible provider
	if key := os.Getenv("API_KEY"); key != "" {
		secrets.APIKeys["generic"] = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		secrets.APIKeys["openai"] = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		secrets.APIKeys["gemini"] = key
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		secrets.APIKeys["gemini"] = key
	}

	return secrets
}

// GetAPIKey returns the API key for the configured provider and endpoint
func (s *Secrets) GetAPIKey(provider Provider, baseURL string) string {
	if provider == ProviderGemini {
		return s.APIKeys["gemini"]
	}

	if strings.Contains(baseURL, "openai.com") {
		if key := s.APIKeys["openai"]; key != "" {
			return key
		}
	}
	if key := s.APIKeys["generic"]; key != "" {
		return key
	}
	// OPENAI_API_KEY is also the conventional key for compatible gateways
	if key := s.APIKeys["openai"]; key != "" {
		return key
	}

	// Local servers usually run without auth
	return ""
}
