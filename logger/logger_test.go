package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInterceptRoutesLinesAndKeepsFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(Config{Enabled: true, Level: "debug", File: "logs/test.log"}, dir); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(Close)

	var buf bytes.Buffer
	Intercept(&buf)
	Info("intercepted", "messageID", 7)
	Restore()

	if !strings.Contains(buf.String(), "intercepted") || !strings.Contains(buf.String(), "messageID=7") {
		t.Fatalf("intercept buffer = %q, want the log line", buf.String())
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "test.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "intercepted") {
		t.Fatalf("log file = %q, want the intercepted line too", data)
	}
}

func TestDisabledLoggerDropsEverything(t *testing.T) {
	if err := Init(Config{Enabled: false}, ""); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	var buf bytes.Buffer
	Intercept(&buf)
	defer Restore()

	Error("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("disabled logger wrote %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExpandPath(t *testing.T) {
	if got := expandPath("/abs/papo.log", "/cfg"); got != "/abs/papo.log" {
		t.Fatalf("expandPath(abs) = %q", got)
	}
	if got := expandPath("logs/papo.log", "/cfg"); got != filepath.Join("/cfg", "logs", "papo.log") {
		t.Fatalf("expandPath(rel) = %q", got)
	}
	if got := expandPath("logs/papo.log", ""); got != "logs/papo.log" {
		t.Fatalf("expandPath(no dir) = %q", got)
	}
}
