package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for checkpoint timestamps
const TimestampLayout = time.RFC3339Nano

// PhaseState tracks a run-once generation phase
type PhaseState int

const (
	PhaseNotStarted PhaseState = iota
	PhaseDone
)

func (s PhaseState) String() string {
	if s == PhaseDone {
		return "done"
	}
	return "not_started"
}

// MarshalJSON encodes the state as a boolean so checkpoint files stay readable by older tooling
func (s PhaseState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s == PhaseDone)
}

// UnmarshalJSON accepts the boolean encoding
func (s *PhaseState) UnmarshalJSON(data []byte) error {
	var done bool
	if err := json.Unmarshal(data, &done); err != nil {
		return fmt.Errorf("phase state must be a boolean: %w", err)
	}
	if done {
		*s = PhaseDone
	} else {
		*s = PhaseNotStarted
	}
	return nil
}

// Checkpoint is the durable snapshot of cumulative generation progress
type Checkpoint struct {
	RunID     string `json:"run_id,omitempty"` // Survives resumes, tags log lines
	Timestamp string `json:"timestamp"`

	// Per-unit phases
	ProcessedChunks       []int    `json:"processed_chunks"`
	ProcessedCodeExamples []string `json:"processed_code_examples"`

	// Accumulated output
	TrainingData []TrainingRecord `json:"training_data"`

	// Totals of the input set the checkpoint was last saved against
	TotalDocChunks    int `json:"total_doc_chunks"`
	TotalCodeExamples int `json:"total_code_examples"`

	// Run-once phases
	IntegrationGenerated    PhaseState `json:"integration_generated"`
	CodeGenerationGenerated PhaseState `json:"code_generation_generated"`
}

// NewCheckpoint returns an empty checkpoint stamped with the given time
func NewCheckpoint(now time.Time) *Checkpoint {
	return &Checkpoint{
		Timestamp:             now.Format(TimestampLayout),
		ProcessedChunks:       []int{},
		ProcessedCodeExamples: []string{},
		TrainingData:          []TrainingRecord{},
	}
}

// Touch updates the timestamp
func (c *Checkpoint) Touch(now time.Time) {
	c.Timestamp = now.Format(TimestampLayout)
}

// HasChunk reports whether a documentation chunk index was already processed
func (c *Checkpoint) HasChunk(index int) bool {
	return slices.Contains(c.ProcessedChunks, index)
}

// MarkChunk records a documentation chunk as processed
func (c *Checkpoint) MarkChunk(index int) {
	if !c.HasChunk(index) {
		c.ProcessedChunks = append(c.ProcessedChunks, index)
	}
}

// HasCodeExample reports whether a code example path was already processed
func (c *Checkpoint) HasCodeExample(path string) bool {
	return slices.Contains(c.ProcessedCodeExamples, path)
}

// MarkCodeExample records a code example path as processed
func (c *Checkpoint) MarkCodeExample(path string) {
	if !c.HasCodeExample(path) {
		c.ProcessedCodeExamples = append(c.ProcessedCodeExamples, path)
	}
}

// AppendPairs converts pairs to training records and appends them
func (c *Checkpoint) AppendPairs(pairs []Pair) {
	for _, p := range pairs {
		c.TrainingData = append(c.TrainingData, p.Record())
	}
}
