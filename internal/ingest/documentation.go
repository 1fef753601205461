// Package ingest turns the documentation file and the code example tree into
// ordered examples for generation.
package ingest

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lamim/finetuneforge/pkg/models"
)

// LoadDocumentation reads the documentation file and splits it into chunks.
// A missing or unreadable file is an error: without documentation there is
// nothing to generate from.
func LoadDocumentation(logger *slog.Logger, path string, chunkSize, chunkOverlap int) ([]models.Example, error) {
	logger.Info("Loading documentation", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read documentation: %w", err)
	}

	chunks := NewMarkdownSplitter(chunkSize, chunkOverlap).Split(string(data))

	examples := make([]models.Example, 0, len(chunks))
	for i, chunk := range chunks {
		examples = append(examples, models.Example{
			Content:    chunk,
			Type:       models.ExampleTypeDocumentation,
			SourceFile: path,
			Index:      i,
		})
	}

	logger.Info("Documentation split into chunks",
		"chunks", len(examples),
		"chunk_size", chunkSize,
		"chunk_overlap", chunkOverlap,
		"bytes", len(data))

	return examples, nil
}
