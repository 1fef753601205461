package models

import (
	"fmt"
	"strings"
)

// ExampleType represents the kind of source material an Example came from
type ExampleType string

const (
	// ExampleTypeDocumentation is a chunk of the documentation text
	ExampleTypeDocumentation ExampleType = "documentation"
	// ExampleTypeCode is a single source code example file
	ExampleTypeCode ExampleType = "code_example"
)

// Message roles used in training records
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Example is one unit of source material to be turned into training pairs
type Example struct {
	Content    string
	Type       ExampleType
	SourceFile string
	Index      int
	Symbols    []string // Top-level declarations found in code examples (optional)
}

// Message represents a single conversation turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TrainingRecord is a two-turn conversation written to the output dataset
type TrainingRecord struct {
	Messages []Message `json:"messages"`
}

// NewTrainingRecord builds a user/assistant record
func NewTrainingRecord(user, assistant string) TrainingRecord {
	return TrainingRecord{
		Messages: []Message{
			{Role: RoleUser, Content: user},
			{Role: RoleAssistant, Content: assistant},
		},
	}
}

// Validate checks the record has exactly one user turn followed by one assistant turn
func (r TrainingRecord) Validate() error {
	if len(r.Messages) != 2 {
		return fmt.Errorf("expected 2 messages, got %d", len(r.Messages))
	}
	if r.Messages[0].Role != RoleUser {
		return fmt.Errorf("first message must have role %q, got %q", RoleUser, r.Messages[0].Role)
	}
	if r.Messages[1].Role != RoleAssistant {
		return fmt.Errorf("second message must have role %q, got %q", RoleAssistant, r.Messages[1].Role)
	}
	for i, m := range r.Messages {
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("message %d has empty content", i)
		}
	}
	return nil
}

// UserContent returns the user turn, or "" for malformed records
func (r TrainingRecord) UserContent() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].Content
}

// Pair is a question/answer or instruction/implementation tuple produced by the generator
type Pair struct {
	Prompt     string
	Completion string
}

// Record converts the pair into a training record
func (p Pair) Record() TrainingRecord {
	return NewTrainingRecord(p.Prompt, p.Completion)
}
