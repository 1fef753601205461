package writer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lamim/finetuneforge/pkg/models"
)

// maxLineSize bounds a single JSONL record when reading a dataset back
const maxLineSize = 64 << 20

// WriteJSONL writes one record per line. The file is written next to its
// destination and renamed into place, so a failed write never leaves a
// truncated dataset behind.
func WriteJSONL(path string, records []models.TrainingRecord) error {
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("record %d is invalid: %w", i, err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		// Encode appends the newline
		if err := enc.Encode(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush dataset file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync dataset file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close dataset file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set dataset permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move dataset into place: %w", err)
	}
	return nil
}

// ReadJSONL loads a dataset written by WriteJSONL. Blank lines are skipped;
// any other line must decode to a valid two-turn record.
func ReadJSONL(path string) ([]models.TrainingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	records := []models.TrainingRecord{}
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec models.TrainingRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", line, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	return records, nil
}
