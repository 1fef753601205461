package checkpoint

import "github.com/lamim/finetuneforge/pkg/models"

// Summary is a read-only digest of a checkpoint for display
type Summary struct {
	RunID                 string
	Timestamp             string
	ProcessedChunks       int
	TotalDocChunks        int
	ProcessedCodeExamples int
	TotalCodeExamples     int
	TrainingRecords       int
	Integration           models.PhaseState
	CodeGeneration        models.PhaseState
}

// Summarize builds a Summary from cp
func Summarize(cp *models.Checkpoint) Summary {
	return Summary{
		RunID:                 cp.RunID,
		Timestamp:             cp.Timestamp,
		ProcessedChunks:       len(cp.ProcessedChunks),
		TotalDocChunks:        cp.TotalDocChunks,
		ProcessedCodeExamples: len(cp.ProcessedCodeExamples),
		TotalCodeExamples:     cp.TotalCodeExamples,
		TrainingRecords:       len(cp.TrainingData),
		Integration:           cp.IntegrationGenerated,
		CodeGeneration:        cp.CodeGenerationGenerated,
	}
}

// CompletedUnits counts finished units, capped per phase at the recorded totals
func (s Summary) CompletedUnits() int {
	done := min(s.ProcessedChunks, s.TotalDocChunks) + min(s.ProcessedCodeExamples, s.TotalCodeExamples)
	if s.Integration == models.PhaseDone {
		done++
	}
	if s.CodeGeneration == models.PhaseDone {
		done++
	}
	return done
}

// TotalUnits counts every unit of the run, including the two aggregate phases
func (s Summary) TotalUnits() int {
	return s.TotalDocChunks + s.TotalCodeExamples + 2
}

// ProgressPercentage returns completion percentage
func (s Summary) ProgressPercentage() float64 {
	return float64(s.CompletedUnits()) / float64(s.TotalUnits()) * 100.0
}

// Complete reports whether every recorded unit and both aggregate phases are done
func (s Summary) Complete() bool {
	return s.CompletedUnits() == s.TotalUnits()
}
