package config

import (
	"fmt"
	"net/url"
	"unicode"

	"github.com/lamim/finetuneforge/internal/util"
)

const (
	// MaxSubjectLength is the maximum allowed length for the subject
	MaxSubjectLength = 200

	// MaxModelNameLength is the maximum allowed length for model names
	MaxModelNameLength = 100

	// MaxTemplateSize is the maximum allowed size for template content
	MaxTemplateSize = 50 * 1024 // 50KB

	// MaxPathLength is the maximum allowed length for file and directory paths
	MaxPathLength = 4096
)

// ValidateInputs performs additional validation on free-form, user-controllable fields
func (c *Config) ValidateInputs() error {
	if err := validateFreeText(c.Generation.Subject, MaxSubjectLength); err != nil {
		return fmt.Errorf("invalid generation.subject: %w", err)
	}
	if err := validateFreeText(c.Generation.Language, MaxSubjectLength); err != nil {
		return fmt.Errorf("invalid generation.language: %w", err)
	}

	if err := validateFreeText(c.Model.ModelName, MaxModelNameLength); err != nil {
		return fmt.Errorf("invalid model.model_name: %w", err)
	}

	if c.Model.BaseURL != "" {
		if err := validateBaseURL(c.Model.BaseURL); err != nil {
			return err
		}
	}

	paths := []struct {
		name  string
		value string
	}{
		{"input.documentation_path", c.Input.DocumentationPath},
		{"input.examples_dir", c.Input.ExamplesDir},
		{"output.dataset_path", c.Output.DatasetPath},
		{"output.checkpoint_path", c.Output.CheckpointPath},
		{"output.log_path", c.Output.LogPath},
	}
	for _, p := range paths {
		if err := validatePath(p.value); err != nil {
			return fmt.Errorf("invalid %s: %w", p.name, err)
		}
	}

	return c.validateTemplates()
}

func validateFreeText(s string, maxLen int) error {
	if len(s) > maxLen {
		return fmt.Errorf("exceeds maximum length of %d characters (got %d)", maxLen, len(s))
	}
	if containsControlChars(s) {
		return fmt.Errorf("contains invalid control characters")
	}
	return nil
}

// validatePath rejects paths with any control character, newlines included
func validatePath(path string) error {
	if len(path) > MaxPathLength {
		return fmt.Errorf("exceeds maximum length of %d characters (got %d)", MaxPathLength, len(path))
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("contains invalid control characters")
		}
	}
	return nil
}

// validateBaseURL checks that the base URL is properly formatted
func validateBaseURL(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid model.base_url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("model.base_url must use http or https scheme (got %s)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("model.base_url must have a host")
	}

	return nil
}

// validateTemplates checks template sizes and that each template parses
func (c *Config) validateTemplates() error {
	templates := []struct {
		name  string
		value string
	}{
		{"system_prompt", c.PromptTemplates.SystemPrompt},
		{"documentation_qa", c.PromptTemplates.DocumentationQA},
		{"code_qa", c.PromptTemplates.CodeQA},
		{"integration", c.PromptTemplates.Integration},
		{"code_generation", c.PromptTemplates.CodeGeneration},
	}

	for _, tmpl := range templates {
		if len(tmpl.value) > MaxTemplateSize {
			return fmt.Errorf("template '%s' exceeds maximum size of %d bytes (got %d)",
				tmpl.name, MaxTemplateSize, len(tmpl.value))
		}
		if tmpl.name == "system_prompt" {
			continue
		}
		if err := util.ValidateTemplate(tmpl.value); err != nil {
			return fmt.Errorf("template '%s': %w", tmpl.name, err)
		}
	}

	return nil
}

// containsControlChars checks if a string contains control characters
// (excluding newlines, tabs, and carriage returns which are acceptable)
func containsControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}
