package checkpoint

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/lamim/finetuneforge/pkg/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(filepath.Join(t.TempDir(), DefaultFilename), logger)
}

func sampleCheckpoint() *models.Checkpoint {
	cp := models.NewCheckpoint(time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.UTC))
	cp.RunID = "5f1c2e0a-0000-4000-8000-000000000001"
	cp.MarkChunk(0)
	cp.MarkChunk(2)
	cp.MarkCodeExample("examples/basic/App.tsx")
	cp.AppendPairs([]models.Pair{
		{Prompt: "How do I start a session?", Completion: "Call `start()` — it connects ✓"},
		{Prompt: "What is <VoiceProvider>?", Completion: "A React context & provider."},
	})
	cp.TotalDocChunks = 3
	cp.TotalCodeExamples = 1
	cp.IntegrationGenerated = models.PhaseDone
	return cp
}

func TestSaveThenLoad_RoundTrip(t *testing.T) {
	store := testStore(t)
	want := sampleCheckpoint()

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got := store.Load()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() after Save() mismatch\n got: %+v\nwant: %+v", got, want)
	}

	// Saving again must be idempotent
	if err := store.Save(got); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}
	if again := store.Load(); !reflect.DeepEqual(again, want) {
		t.Errorf("second Load() mismatch\n got: %+v\nwant: %+v", again, want)
	}
}

func TestSave_OnDiskFormat(t *testing.T) {
	store := testStore(t)
	if err := store.Save(sampleCheckpoint()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	for _, field := range []string{
		`"timestamp": "2024-05-01T12:30:00.123456789Z"`,
		`"processed_chunks": [`,
		`"processed_code_examples": [`,
		`"training_data": [`,
		`"total_doc_chunks": 3`,
		`"total_code_examples": 1`,
		`"integration_generated": true`,
		`"code_generation_generated": false`,
		`"role": "user"`,
	} {
		if !strings.Contains(string(data), field) {
			t.Errorf("checkpoint file missing %s\n%s", field, data)
		}
	}

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the checkpoint file, found %d entries", len(entries))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	store := testStore(t)

	cp := store.Load()
	if cp == nil {
		t.Fatal("Load() returned nil")
	}
	if cp.IntegrationGenerated != models.PhaseNotStarted || cp.CodeGenerationGenerated != models.PhaseNotStarted {
		t.Errorf("Expected both phases not started, got %v / %v", cp.IntegrationGenerated, cp.CodeGenerationGenerated)
	}
	if len(cp.ProcessedChunks) != 0 || len(cp.ProcessedCodeExamples) != 0 || len(cp.TrainingData) != 0 {
		t.Errorf("Expected empty checkpoint, got %+v", cp)
	}
	if cp.Timestamp == "" {
		t.Error("Expected fresh checkpoint to carry a timestamp")
	}
}

func TestLoad_CorruptFileFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "this is not json"},
		{"truncated", `{"timestamp": "2024-05-01T00:00:00Z", "processed_chunks": [1, 2`},
		{"wrong types", `{"processed_chunks": "zero", "integration_generated": "yes"}`},
		{"one message record", `{"processed_chunks": [0], "total_doc_chunks": 1, "integration_generated": true, "code_generation_generated": true, "training_data": [{"messages": [{"role": "user", "content": "q"}]}]}`},
		{"empty answer", `{"processed_chunks": [0], "training_data": [{"messages": [{"role": "user", "content": "q"}, {"role": "assistant", "content": "  "}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testStore(t)
			if err := os.WriteFile(store.Path(), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			cp := store.Load()
			if cp == nil || len(cp.TrainingData) != 0 || len(cp.ProcessedChunks) != 0 ||
				cp.IntegrationGenerated != models.PhaseNotStarted {
				t.Errorf("Expected empty checkpoint, got %+v", cp)
			}

			if _, err := store.Read(); err == nil {
				t.Error("Read() should report the corrupt file")
			}
		})
	}
}

func TestRead_Missing(t *testing.T) {
	store := testStore(t)
	if _, err := store.Read(); !errors.Is(err, ErrNoCheckpoint) {
		t.Errorf("Read() error = %v, want ErrNoCheckpoint", err)
	}
}

func TestSave_UnwritableDirectory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewStore(filepath.Join(t.TempDir(), "missing", "dir", DefaultFilename), logger)

	if err := store.Save(sampleCheckpoint()); err == nil {
		t.Error("Save() into a missing directory should fail")
	}
}

func TestClear(t *testing.T) {
	store := testStore(t)

	// Clearing nothing is fine
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() on missing file failed: %v", err)
	}

	if err := store.Save(sampleCheckpoint()); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Errorf("checkpoint file still present after Clear(): %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Errorf("repeated Clear() failed: %v", err)
	}
}
