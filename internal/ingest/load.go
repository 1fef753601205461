package ingest

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lamim/finetuneforge/pkg/models"
)

// Sources describes every input of a run
type Sources struct {
	DocumentationPath string
	ChunkSize         int
	ChunkOverlap      int
	ExamplesDir       string
	Scan              ScanOptions
}

// Load reads the documentation and scans the examples concurrently. The
// result lists documentation chunks first, then code examples. A documentation
// failure cancels the scan.
func Load(ctx context.Context, logger *slog.Logger, src Sources) ([]models.Example, error) {
	g, gCtx := errgroup.WithContext(ctx)

	var docs, code []models.Example

	g.Go(func() error {
		var err error
		docs, err = LoadDocumentation(logger, src.DocumentationPath, src.ChunkSize, src.ChunkOverlap)
		return err
	})

	g.Go(func() error {
		var err error
		code, err = ScanExamples(gCtx, logger, src.ExamplesDir, src.Scan)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	examples := make([]models.Example, 0, len(docs)+len(code))
	examples = append(examples, docs...)
	examples = append(examples, code...)

	logger.Info("Total examples loaded", "total", len(examples), "docs", len(docs), "code", len(code))
	return examples, nil
}
