package writer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// multiHandler fans a record out to several handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogger builds the process logger: text on stdout and, when logPath is
// set, JSON lines appended to logPath. The returned closer releases the log
// file and is never nil.
func SetupLogger(logPath string, level slog.Level) (*slog.Logger, io.Closer, error) {
	return setupLogger(os.Stdout, logPath, level)
}

func setupLogger(stdout io.Writer, logPath string, level slog.Level) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: level}
	textHandler := slog.NewTextHandler(stdout, opts)

	if logPath == "" {
		return slog.New(textHandler), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, nil, err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(&multiHandler{
		handlers: []slog.Handler{textHandler, slog.NewJSONHandler(logFile, opts)},
	})
	return logger, logFile, nil
}
