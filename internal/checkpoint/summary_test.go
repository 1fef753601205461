package checkpoint

import (
	"testing"
	"time"

	"github.com/lamim/finetuneforge/pkg/models"
)

func TestSummarize(t *testing.T) {
	cp := sampleCheckpoint()
	s := Summarize(cp)

	if s.ProcessedChunks != 2 || s.TotalDocChunks != 3 {
		t.Errorf("chunks = %d/%d, want 2/3", s.ProcessedChunks, s.TotalDocChunks)
	}
	if s.ProcessedCodeExamples != 1 || s.TotalCodeExamples != 1 {
		t.Errorf("code examples = %d/%d, want 1/1", s.ProcessedCodeExamples, s.TotalCodeExamples)
	}
	if s.TrainingRecords != 2 {
		t.Errorf("training records = %d, want 2", s.TrainingRecords)
	}

	// 2 chunks + 1 file + integration = 4 of 3+1+2 = 6
	if got := s.CompletedUnits(); got != 4 {
		t.Errorf("CompletedUnits() = %d, want 4", got)
	}
	if got := s.TotalUnits(); got != 6 {
		t.Errorf("TotalUnits() = %d, want 6", got)
	}
	if s.Complete() {
		t.Error("Complete() should be false")
	}
}

func TestSummary_ProgressPercentage(t *testing.T) {
	tests := []struct {
		name string
		cp   func() *models.Checkpoint
		want float64
	}{
		{
			name: "fresh",
			cp:   func() *models.Checkpoint { return models.NewCheckpoint(time.Now()) },
			want: 0,
		},
		{
			name: "phases only done",
			cp: func() *models.Checkpoint {
				cp := models.NewCheckpoint(time.Now())
				cp.TotalDocChunks = 2
				cp.IntegrationGenerated = models.PhaseDone
				cp.CodeGenerationGenerated = models.PhaseDone
				return cp
			},
			want: 50,
		},
		{
			name: "stale entries do not exceed 100",
			cp: func() *models.Checkpoint {
				cp := models.NewCheckpoint(time.Now())
				cp.TotalDocChunks = 1
				cp.ProcessedChunks = []int{0, 1, 2, 3}
				cp.IntegrationGenerated = models.PhaseDone
				cp.CodeGenerationGenerated = models.PhaseDone
				return cp
			},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.cp()).ProgressPercentage(); got != tt.want {
				t.Errorf("ProgressPercentage() = %v, want %v", got, tt.want)
			}
		})
	}
}
