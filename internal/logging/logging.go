// Package logging builds the process logger: human-readable output on
// stdout, plus a JSON log file per run when a log directory is configured.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Setup returns the process logger and the log file path ("" when file
// logging is disabled).
func Setup(level, dir string) (*slog.Logger, string, error) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	stdout := slog.NewTextHandler(os.Stdout, opts)
	if dir == "" {
		return slog.New(stdout), "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create log dir: %w", err)
	}

	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	path := filepath.Join(dir, "aspen-"+stamp+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("open log file: %w", err)
	}

	fanout := fanoutHandler{stdout, slog.NewJSONHandler(file, opts)}
	return slog.New(fanout), path, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanoutHandler forwards records to every wrapped handler.
type fanoutHandler []slog.Handler

func (h fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, handler := range h {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrapped := make(fanoutHandler, len(h))
	for i, handler := range h {
		wrapped[i] = handler.WithAttrs(attrs)
	}
	return wrapped
}

func (h fanoutHandler) WithGroup(name string) slog.Handler {
	wrapped := make(fanoutHandler, len(h))
	for i, handler := range h {
		wrapped[i] = handler.WithGroup(name)
	}
	return wrapped
}
