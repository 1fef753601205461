package util

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// Prompt templates are rendered once per unit of work, so parsed templates are
// cached by source text.
var templateCache sync.Map // map[string]*template.Template

// forbiddenDirectives would let a config file pull in other templates or call functions
var forbiddenDirectives = []string{"{{call", "{{define", "{{template", "{{block"}

// RenderTemplate renders a prompt template with the given data.
// Unknown keys are an error so a typo in a config template fails loudly.
func RenderTemplate(tmpl string, data map[string]interface{}) (string, error) {
	t, err := parseTemplate(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// ValidateTemplate parses a template without executing it
func ValidateTemplate(tmpl string) error {
	_, err := parseTemplate(tmpl)
	return err
}

// ClearTemplateCache drops all cached templates
func ClearTemplateCache() {
	templateCache.Range(func(key, _ any) bool {
		templateCache.Delete(key)
		return true
	})
}

func parseTemplate(tmpl string) (*template.Template, error) {
	if cached, ok := templateCache.Load(tmpl); ok {
		return cached.(*template.Template), nil
	}

	for _, directive := range forbiddenDirectives {
		if strings.Contains(tmpl, directive) {
			return nil, fmt.Errorf("template contains forbidden directive: %s", directive)
		}
	}

	t, err := template.New("prompt").
		Option("missingkey=error").
		Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	actual, _ := templateCache.LoadOrStore(tmpl, t)
	return actual.(*template.Template), nil
}

// TruncateString shortens s to at most maxLen runes, appending "..." when cut
func TruncateString(s string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
