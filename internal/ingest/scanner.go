package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/lamim/finetuneforge/pkg/models"
)

// ScanOptions controls which files become code examples
type ScanOptions struct {
	Extensions []string  // e.g. ".tsx"; matched case-sensitively
	IgnoreDirs []string  // directory names skipped at any depth
	Outliner   *Outliner // optional, fills Example.Symbols
}

// ScanExamples walks dir in lexical order and returns one code example per
// non-empty file with an allowed extension. Code examples are optional input:
// a missing directory or an unreadable file is logged and skipped. Only
// context cancellation is returned as an error.
func ScanExamples(ctx context.Context, logger *slog.Logger, dir string, opts ScanOptions) ([]models.Example, error) {
	logger.Info("Loading code examples", "dir", dir, "extensions", opts.Extensions)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logger.Warn("Examples directory not found, continuing without code examples", "dir", dir)
		return []models.Example{}, nil
	}

	examples := []models.Example{}
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn("Failed to access path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != dir && slices.Contains(opts.IgnoreDirs, d.Name()) {
				logger.Debug("Skipping ignored directory", "path", path)
				return fs.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !slices.Contains(opts.Extensions, filepath.Ext(path)) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Failed to load code example", "path", path, "error", err)
			return nil
		}
		if !utf8.Valid(data) {
			logger.Warn("Skipping code example that is not valid UTF-8", "path", path)
			return nil
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			logger.Debug("Skipping empty code example", "path", path)
			return nil
		}

		example := models.Example{
			Content:    content,
			Type:       models.ExampleTypeCode,
			SourceFile: path,
			Index:      len(examples),
		}
		if opts.Outliner != nil {
			symbols, err := opts.Outliner.Outline(ctx, path, data)
			if err != nil {
				logger.Debug("Failed to outline code example", "path", path, "error", err)
			}
			example.Symbols = symbols
		}

		examples = append(examples, example)
		logger.Debug("Loaded code example", "path", path, "symbols", len(example.Symbols))
		return nil
	})

	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		logger.Warn("Examples walk stopped early", "dir", dir, "error", walkErr)
	}

	logger.Info("Loaded code examples", "count", len(examples))
	return examples, nil
}
