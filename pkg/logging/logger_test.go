package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger()
	if logger == nil {
		t.Fatal("NewLogger() returned nil")
	}
	if logger.Logger == nil {
		t.Fatal("Logger.Logger is nil")
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected slog.Level
	}{
		{"debug level", "DEBUG", slog.LevelDebug},
		{"info level", "INFO", slog.LevelInfo},
		{"warn level", "WARN", slog.LevelWarn},
		{"warning level", "WARNING", slog.LevelWarn},
		{"error level", "ERROR", slog.LevelError},
		{"lowercase debug", "debug", slog.LevelDebug},
		{"padded value", " error ", slog.LevelError},
		{"invalid level", "INVALID", slog.LevelInfo},
		{"empty value", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(LevelEnvVar, tt.envValue)
			level := getLogLevelFromEnv()
			if level != tt.expected {
				t.Errorf("getLogLevelFromEnv() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestRunID(t *testing.T) {
	t.Run("generate run ID", func(t *testing.T) {
		id1 := GenerateRunID()
		id2 := GenerateRunID()

		if id1 == "" || id2 == "" {
			t.Error("GenerateRunID() returned empty string")
		}
		if id1 == id2 {
			t.Error("GenerateRunID() returned duplicate IDs")
		}
		if len(id1) != 16 {
			t.Errorf("GenerateRunID() returned wrong length: %d", len(id1))
		}
	})

	t.Run("context with run ID", func(t *testing.T) {
		ctx := WithRunID(context.Background(), "solar-1")
		if got := GetRunID(ctx); got != "solar-1" {
			t.Errorf("GetRunID() = %q, want %q", got, "solar-1")
		}
	})

	t.Run("context without run ID", func(t *testing.T) {
		if id := GetRunID(context.Background()); id != "" {
			t.Errorf("GetRunID() = %q, want empty string", id)
		}
	})

	t.Run("auto-generate run ID", func(t *testing.T) {
		ctx := WithRunID(context.Background(), "")
		if id := GetRunID(ctx); len(id) != 16 {
			t.Errorf("auto-generated run ID has wrong length: %q", id)
		}
	})
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)
	ctx := WithRunID(context.Background(), "run-123")

	decode := func(t *testing.T) map[string]interface{} {
		t.Helper()
		var entry map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("failed to parse log JSON: %v", err)
		}
		return entry
	}

	t.Run("info logging", func(t *testing.T) {
		buf.Reset()
		logger.Info(ctx, "step completed", "tick", 7)
		entry := decode(t)

		if entry["msg"] != "step completed" {
			t.Errorf("expected message 'step completed', got %v", entry["msg"])
		}
		if entry["level"] != "INFO" {
			t.Errorf("expected level INFO, got %v", entry["level"])
		}
		if entry["run_id"] != "run-123" {
			t.Errorf("expected run_id 'run-123', got %v", entry["run_id"])
		}
		if entry["tick"] != float64(7) {
			t.Errorf("expected tick 7, got %v", entry["tick"])
		}
	})

	t.Run("error logging", func(t *testing.T) {
		buf.Reset()
		logger.Error(ctx, "step failed", errors.New("bodies coincide"), "body", "Earth")
		entry := decode(t)

		if entry["level"] != "ERROR" {
			t.Errorf("expected level ERROR, got %v", entry["level"])
		}
		if entry["error"] != "bodies coincide" {
			t.Errorf("expected error text, got %v", entry["error"])
		}
		if entry["body"] != "Earth" {
			t.Errorf("expected body Earth, got %v", entry["body"])
		}
	})

	t.Run("error logging without error", func(t *testing.T) {
		buf.Reset()
		logger.Error(ctx, "no error value", nil)
		if _, ok := decode(t)["error"]; ok {
			t.Error("expected no error attribute for nil error")
		}
	})

	t.Run("debug and warn logging", func(t *testing.T) {
		buf.Reset()
		logger.Debug(ctx, "debug message")
		if decode(t)["level"] != "DEBUG" {
			t.Error("expected DEBUG level")
		}
		buf.Reset()
		logger.Warn(ctx, "warning message")
		if decode(t)["level"] != "WARN" {
			t.Error("expected WARN level")
		}
	})
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelWarn)
	logger.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info record written at WARN level: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error(context.Background(), "dropped", errors.New("x"))
}

func TestLogWithoutRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo)
	logger.Info(context.Background(), "test message")

	if strings.Contains(buf.String(), "run_id") {
		t.Error("log should not contain run_id when none is set in context")
	}
}

func TestWrapError(t *testing.T) {
	t.Run("wrap nil error", func(t *testing.T) {
		if result := WrapError(nil, "context"); result != nil {
			t.Errorf("WrapError(nil) should return nil, got %v", result)
		}
	})

	t.Run("wrap error with formatted context", func(t *testing.T) {
		originalErr := errors.New("original error")
		wrapped := WrapError(originalErr, "load %s", "orrery.json")

		if wrapped.Error() != "load orrery.json: original error" {
			t.Errorf("WrapError() = %q", wrapped.Error())
		}
		if !errors.Is(wrapped, originalErr) {
			t.Error("WrapError() should preserve original error")
		}
	})
}
