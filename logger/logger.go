// Package logger wraps log/slog with process-wide sinks that the TUI can
// temporarily take over.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config describes logger settings.
type Config struct {
	Enabled bool
	Level   string
	Stdout  bool
	File    string
}

var (
	mu      sync.RWMutex
	base    = slog.New(slog.NewTextHandler(io.Discard, nil))
	enabled bool

	current   Config
	logFile   *os.File
	intercept io.Writer // non-nil while the TUI owns the terminal
)

// Init configures the process logger. Relative file paths are resolved
// against dir.
func Init(cfg Config, dir string) error {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	current = cfg

	if !cfg.Enabled {
		enabled = false
		base = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	var initErr error
	if cfg.File != "" {
		path := expandPath(cfg.File, dir)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			initErr = fmt.Errorf("logger: create log dir: %w", err)
		} else if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err != nil {
			initErr = fmt.Errorf("logger: open log file: %w", err)
		} else {
			logFile = f
		}
	}

	rebuild()
	return initErr
}

// Intercept routes terminal output to w (e.g. the TUI log panel) and keeps
// the file sink.
func Intercept(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	intercept = w
	rebuild()
}

// Restore undoes Intercept.
func Restore() {
	mu.Lock()
	defer mu.Unlock()
	intercept = nil
	rebuild()
}

// Close flushes and releases the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeFile()
	rebuild()
}

func closeFile() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// rebuild reconstructs the handler; mu must be held.
func rebuild() {
	if !current.Enabled {
		return
	}

	var writers []io.Writer
	switch {
	case intercept != nil:
		writers = append(writers, intercept)
	case current.Stdout:
		writers = append(writers, os.Stderr)
	}
	if logFile != nil {
		writers = append(writers, logFile)
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	opts := &slog.HandlerOptions{Level: parseLevel(current.Level)}
	base = slog.New(slog.NewTextHandler(io.MultiWriter(writers...), opts))
	enabled = true
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	log(slog.LevelDebug, msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	log(slog.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	log(slog.LevelWarn, msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	log(slog.LevelError, msg, args...)
}

func log(level slog.Level, msg string, args ...any) {
	mu.RLock()
	l, on := base, enabled
	mu.RUnlock()

	if !on {
		return
	}
	l.Log(context.Background(), level, msg, args...)
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

func expandPath(path, dir string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

// FilePath returns where cfg writes its log file, or "" when it writes none.
func FilePath(cfg Config, dir string) string {
	if !cfg.Enabled || cfg.File == "" {
		return ""
	}
	return expandPath(cfg.File, dir)
}
