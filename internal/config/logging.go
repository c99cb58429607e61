// Package config loads environment configuration and builds the process logger.
package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the process logger: human-readable text on stderr and
// JSON lines in cfg.LogFile, both at cfg.LogLevel and tagged with component.
// If the file cannot be opened the logger writes to stderr only.
// The returned cleanup closes the file.
func SetupLogger(cfg Config, component string) (*slog.Logger, func() error) {
	file, err := openLogFile(cfg.LogFile)
	if err != nil {
		logger := SetupLoggerWithWriters(os.Stderr, nil, cfg.LogLevel).With("component", component)
		logger.Warn("log file unavailable, logging to stderr only", "file", cfg.LogFile, "error", err)
		return logger, func() error { return nil }
	}
	return SetupLoggerWithWriters(os.Stderr, file, cfg.LogLevel).With("component", component), file.Close
}

// SetupLoggerWithWriters fans records out to a text handler on stderr and,
// when file is non-nil, a JSON handler on file.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	text := slog.NewTextHandler(stderr, opts)
	if file == nil {
		return slog.New(text)
	}
	return slog.New(slogmulti.Fanout(text, slog.NewJSONHandler(file, opts)))
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
