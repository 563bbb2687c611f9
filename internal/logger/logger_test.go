package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggingBeforeInit(t *testing.T) {
	defaultLogger = nil
	Debug("no-op %d", 1)
	Info("no-op %d", 2)
	Warn("no-op %d", 3)
	Error("no-op %d", 4)
}

func TestInit(t *testing.T) {
	Init("debug", "json")
	if defaultLogger == nil {
		t.Fatal("expected logger to be initialized")
	}
	Info("initialized %s", "ok")
	Init("info", "text")
	Debug("suppressed")
}
