package config

import (
	"strings"
	"testing"
)

func TestValidateFreeText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"plain", "Voice UI Kit", ""},
		{"newlines ok", "Voice UI Kit\nfor React", ""},
		{"too long", strings.Repeat("a", MaxSubjectLength+1), "exceeds maximum length"},
		{"null byte", "Voice\x00Kit", "invalid control characters"},
		{"bell", "Voice\x07Kit", "invalid control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFreeText(tt.input, MaxSubjectLength)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validateFreeText(%q) unexpected error: %v", tt.input, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateFreeText(%q) error = %v, want substring %q", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBaseURL(t *testing.T) {
	valid := []string{
		"https://api.openai.com/v1",
		"http://localhost:8080/v1",
		"http://127.0.0.1:1234",
	}
	for _, u := range valid {
		if err := validateBaseURL(u); err != nil {
			t.Errorf("validateBaseURL(%q) unexpected error: %v", u, err)
		}
	}

	invalid := []struct {
		url  string
		want string
	}{
		{"ftp://example.com", "http or https"},
		{"https://", "must have a host"},
		{"://bad", "invalid model.base_url"},
	}
	for _, tt := range invalid {
		err := validateBaseURL(tt.url)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("validateBaseURL(%q) error = %v, want substring %q", tt.url, err, tt.want)
		}
	}
}

func TestValidateInputs_Templates(t *testing.T) {
	t.Run("oversized template", func(t *testing.T) {
		cfg := Default()
		cfg.PromptTemplates.Integration = strings.Repeat("x", MaxTemplateSize+1)
		err := cfg.ValidateInputs()
		if err == nil || !strings.Contains(err.Error(), "integration") {
			t.Errorf("ValidateInputs() error = %v", err)
		}
	})

	t.Run("unparseable template", func(t *testing.T) {
		cfg := Default()
		cfg.PromptTemplates.DocumentationQA = "{{.Content"
		err := cfg.ValidateInputs()
		if err == nil || !strings.Contains(err.Error(), "documentation_qa") {
			t.Errorf("ValidateInputs() error = %v", err)
		}
	})

	t.Run("forbidden directive", func(t *testing.T) {
		cfg := Default()
		cfg.PromptTemplates.CodeGeneration = `{{template "x"}}`
		if err := cfg.ValidateInputs(); err == nil {
			t.Error("ValidateInputs() should reject template directives")
		}
	})

	t.Run("system prompt is not parsed", func(t *testing.T) {
		cfg := Default()
		cfg.PromptTemplates.SystemPrompt = "Reply in {{ braces"
		if err := cfg.ValidateInputs(); err != nil {
			t.Errorf("ValidateInputs() unexpected error: %v", err)
		}
	})
}

func TestValidateInputs_ControlCharsInModelName(t *testing.T) {
	cfg := Default()
	cfg.Model.ModelName = "gpt\x00-4"
	err := cfg.ValidateInputs()
	if err == nil || !strings.Contains(err.Error(), "model_name") {
		t.Errorf("ValidateInputs() error = %v", err)
	}
}

func TestValidateInputs_Paths(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"newline in documentation path", func(c *Config) { c.Input.DocumentationPath = "docs\nfull.md" }, "input.documentation_path"},
		{"nul in checkpoint path", func(c *Config) { c.Output.CheckpointPath = "cp\x00.json" }, "output.checkpoint_path"},
		{"escape in log path", func(c *Config) { c.Output.LogPath = "run\x1b.log" }, "output.log_path"},
		{"overlong examples dir", func(c *Config) { c.Input.ExamplesDir = strings.Repeat("a", MaxPathLength+1) }, "input.examples_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.ValidateInputs()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateInputs() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateInputs() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
