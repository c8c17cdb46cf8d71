package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"therapyfinder/internal/config"
	"therapyfinder/internal/logging"
	"therapyfinder/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (*slog.Logger, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "finder.log")
	logger, err := logging.New(logging.Options{Format: format, Level: level, OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return logger, func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello file")

	content, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello file") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	base, read := newFileLogger(t, "console", "info")
	logger := logging.NewComponentLogger(base, "scan")

	logger.Info("scope complete", logging.Int("created", 3), logging.String("label", "therapist in Austin, TX"))

	out := read()
	if !strings.Contains(out, "INF [scan] scope complete") {
		t.Fatalf("expected component prefix, got %q", out)
	}
	if !strings.Contains(out, "created=3") {
		t.Fatalf("expected int field, got %q", out)
	}
	if !strings.Contains(out, `label="therapist in Austin, TX"`) {
		t.Fatalf("expected quoted field, got %q", out)
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", out)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logger, read := newFileLogger(t, "console", "debug")
	logger.Debug("with caller")
	if !strings.Contains(read(), "logger_test.go:") {
		t.Fatal("expected caller information in debug logs")
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	logger, read := newFileLogger(t, "json", "info")
	logger.Warn("quota", logging.Error(errors.New("429")))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if payload["error"] != "429" {
		t.Fatalf("expected error field, got %v", payload["error"])
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if _, err := logging.New(logging.Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestConsoleLoggerLeadsWithScope(t *testing.T) {
	logger, read := newFileLogger(t, "console", "info")
	logger.Info("record skipped", logging.String("reason", "excluded"), logging.String(logging.FieldScope, "Austin, TX"))

	out := read()
	scopeAt := strings.Index(out, `scope="Austin, TX"`)
	reasonAt := strings.Index(out, "reason=excluded")
	if scopeAt < 0 || reasonAt < 0 || scopeAt > reasonAt {
		t.Fatalf("expected scope before other fields, got %q", out)
	}
}

func TestWithContextAddsPipelineFields(t *testing.T) {
	logger, read := newFileLogger(t, "console", "info")
	ctx := services.WithRunID(context.Background(), "run-9")
	ctx = services.WithScope(ctx, "austin")

	logging.WithContext(ctx, logger).Info("tagged")

	out := read()
	for _, want := range []string{"run_id=run-9", "scope=austin"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logger, read := newFileLogger(t, "console", "info")
	logging.WarnWithContext(logger, "scope aborted", "scope_aborted", logging.String(logging.FieldErrorHint, "retry later"))

	out := read()
	for _, want := range []string{"event_type=scope_aborted", `error_hint="retry later"`, "impact="} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}
