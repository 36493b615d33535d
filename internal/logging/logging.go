// Package logging builds the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Level slog.Level
	// File, when set, receives JSON log lines (appended).
	File string
	// JSON switches the stderr handler to JSON.
	JSON bool
	// Quiet disables stderr output; used by the TUI, which owns the terminal.
	Quiet bool
}

type Logger struct {
	*slog.Logger
	file *os.File
}

// New never fails: if the log file cannot be opened the logger falls back to stderr and
// reports that once.
func New(cfg Config) *Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handlers []slog.Handler
	l := &Logger{}

	if cfg.File != "" {
		f, err := openLogFile(cfg.File)
		if err == nil {
			l.file = f
			handlers = append(handlers, slog.NewJSONHandler(f, opts))
		} else {
			fmt.Fprintf(os.Stderr, "logging: %v\n", err)
			cfg.Quiet = false
		}
	}
	if !cfg.Quiet {
		if cfg.JSON {
			handlers = append(handlers, slog.NewJSONHandler(os.Stderr, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(os.Stderr, opts))
		}
	}

	switch len(handlers) {
	case 0:
		l.Logger = slog.New(slog.NewTextHandler(io.Discard, opts))
	case 1:
		l.Logger = slog.New(handlers[0])
	default:
		l.Logger = slog.New(fanout(handlers))
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func openLogFile(path string) (*os.File, error) {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
