// Package pairs validates free-text model output into training pairs.
package pairs

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/lamim/finetuneforge/internal/util"
	"github.com/lamim/finetuneforge/pkg/models"
)

// Shape names the two string fields each element of a response must carry
type Shape struct {
	Name            string
	PromptField     string
	CompletionField string

	once   sync.Once
	schema *gojsonschema.Schema
	err    error
}

var (
	// QAShape is the question/answer shape used by the Q&A phases
	QAShape = &Shape{Name: "qa", PromptField: "question", CompletionField: "answer"}
	// InstructionShape is the instruction/implementation shape used for code generation
	InstructionShape = &Shape{Name: "instruction", PromptField: "instruction", CompletionField: "implementation"}
)

// NewShape creates a shape for a custom pair of field names
func NewShape(name, promptField, completionField string) *Shape {
	return &Shape{Name: name, PromptField: promptField, CompletionField: completionField}
}

// schemaJSON builds the per-element schema: an object with both fields as
// strings containing at least one non-whitespace character.
func (s *Shape) schemaJSON() string {
	field := map[string]any{"type": "string", "pattern": `\S`}
	schema := map[string]any{
		"type":     "object",
		"required": []string{s.PromptField, s.CompletionField},
		"properties": map[string]any{
			s.PromptField:     field,
			s.CompletionField: field,
		},
	}
	data, _ := json.Marshal(schema)
	return string(data)
}

func (s *Shape) compiled() (*gojsonschema.Schema, error) {
	s.once.Do(func() {
		s.schema, s.err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(s.schemaJSON()))
	})
	return s.schema, s.err
}

// Rejection explains why one element of a response was dropped
type Rejection struct {
	Index  int
	Reason string
}

// Result is the outcome of parsing one response.
// A valid result decoded to a JSON array; its Pairs may still be empty.
type Result struct {
	Pairs    []models.Pair
	Dropped  []Rejection
	Reason   string // why the response as a whole was rejected
	Elements int    // array length before validation
	valid    bool
}

// Valid reports whether the response decoded to a JSON array
func (r Result) Valid() bool {
	return r.valid
}

func invalid(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Parse extracts pairs of the given shape from raw model output.
// Malformed output is an expected condition: Parse never panics or errors,
// it reports what it rejected instead.
func Parse(raw string, shape *Shape) Result {
	text := util.StripThinkTags(raw)
	if strings.TrimSpace(text) == "" {
		return invalid("empty response")
	}

	payload := util.SanitizeJSON(util.ExtractJSON(text))

	var decoded any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return invalid("response is not valid JSON: %v", err)
	}

	elements, ok := decoded.([]any)
	if !ok {
		return invalid("response is a JSON %s, not a list", jsonKind(decoded))
	}

	schema, err := shape.compiled()
	if err != nil {
		return invalid("invalid %s schema: %v", shape.Name, err)
	}

	result := Result{
		Pairs:    make([]models.Pair, 0, len(elements)),
		Elements: len(elements),
		valid:    true,
	}

	for i, elem := range elements {
		check, err := schema.Validate(gojsonschema.NewGoLoader(elem))
		if err != nil {
			result.Dropped = append(result.Dropped, Rejection{Index: i, Reason: err.Error()})
			continue
		}
		if !check.Valid() {
			result.Dropped = append(result.Dropped, Rejection{Index: i, Reason: describe(check.Errors())})
			continue
		}

		obj := elem.(map[string]any)
		result.Pairs = append(result.Pairs, models.Pair{
			Prompt:     obj[shape.PromptField].(string),
			Completion: obj[shape.CompletionField].(string),
		})
	}

	return result
}

func describe(errs []gojsonschema.ResultError) string {
	msgs := make([]string, 0, len(errs))
	for _, desc := range errs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return strings.Join(msgs, "; ")
}

func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
