package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lamim/finetuneforge/pkg/models"
)

// DefaultFilename is the checkpoint file name used when none is configured
const DefaultFilename = "fine_tune_checkpoint.json"

// ErrNoCheckpoint is returned by Read when no checkpoint file exists
var ErrNoCheckpoint = errors.New("no checkpoint found")

// Store persists a single checkpoint file.
// Writes are synchronous: the pipeline saves after every unit, and each unit
// represents a paid model call that must not be repeated.
type Store struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a store for the checkpoint at path
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// Path returns the checkpoint file location
func (s *Store) Path() string {
	return s.path
}

// Read loads the checkpoint strictly, including every stored training record.
// It returns ErrNoCheckpoint when the file is absent.
func (s *Store) Read() (*models.Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp models.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	for i, rec := range cp.TrainingData {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("checkpoint record %d is invalid: %w", i, err)
		}
	}

	return &cp, nil
}

// Load returns the persisted checkpoint, or a fresh empty one if the file is
// missing or unusable. A corrupt checkpoint only costs re-generation, so it
// never blocks a run.
func (s *Store) Load() *models.Checkpoint {
	cp, err := s.Read()
	switch {
	case errors.Is(err, ErrNoCheckpoint):
		s.logger.Info("No checkpoint found, starting fresh", "path", s.path)
		return models.NewCheckpoint(s.now())
	case err != nil:
		s.logger.Error("Failed to load checkpoint, starting fresh", "path", s.path, "error", err)
		return models.NewCheckpoint(s.now())
	}

	s.logger.Info("Checkpoint loaded",
		"run_id", cp.RunID,
		"training_records", len(cp.TrainingData),
		"doc_chunks", len(cp.ProcessedChunks),
		"code_examples", len(cp.ProcessedCodeExamples),
		"integration", cp.IntegrationGenerated,
		"code_generation", cp.CodeGenerationGenerated)

	return cp
}

// Save overwrites the checkpoint atomically: temp file in the same directory, then rename
func (s *Store) Save(cp *models.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write temp checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to sync temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close temp checkpoint: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		s.logger.Debug("Failed to chmod temp checkpoint", "path", tempPath, "error", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename checkpoint: %w", err)
	}

	s.logger.Debug("Checkpoint saved",
		"path", s.path,
		"training_records", len(cp.TrainingData),
		"doc_chunks", len(cp.ProcessedChunks),
		"code_examples", len(cp.ProcessedCodeExamples))
	return nil
}

// Clear removes the checkpoint file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	s.logger.Info("Checkpoint cleared", "path", s.path)
	return nil
}
