// Package logging provides structured logging with slog for kanabridge.
//
// The bridge usually runs inside a foreign host process (an IME DLL or
// input method component) where stderr goes nowhere, so file output is the
// primary sink; stderr remains the default for the CLI tools.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string

	// Format is "text" or "json".
	Format string

	// FilePath, when set, appends log output to this file instead of
	// stderr. The parent directory is created if needed.
	FilePath string

	// Component names the subsystem in every record.
	Component string
}

var (
	mu      sync.Mutex
	base    *slog.Logger
	logFile *os.File
)

// Setup builds the process logger from cfg and installs it as the slog
// default. Safe to call again (for example after a settings reload); the
// previous log file, if any, is closed.
func Setup(cfg Config) (*slog.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	var w io.Writer = os.Stderr
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		if logFile != nil {
			logFile.Close()
		}
		logFile = f
		w = f
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(h)
	if cfg.Component != "" {
		logger = logger.With("component", cfg.Component)
	}
	base = logger
	slog.SetDefault(logger)
	return logger, nil
}

// Component returns a child of the process logger scoped to a subsystem.
func Component(name string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		return slog.Default().With("component", name)
	}
	return base.With("component", name)
}

// Close releases the log file, if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
