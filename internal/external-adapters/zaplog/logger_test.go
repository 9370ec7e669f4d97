package zaplog

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ochairo/mvnpub/internal/domain/interfaces"
)

func TestLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewWithCore(core)

	logger.Info("selected toolchain", interfaces.F("version", "21.0.2"), interfaces.F("duration", 2*time.Second))
	logger.Error("upload failed", interfaces.F("error", errors.New("HTTP 500")))

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["version"] != "21.0.2" {
		t.Errorf("version field = %v", ctx["version"])
	}
	if ctx["duration"] != 2*time.Second {
		t.Errorf("duration field = %v", ctx["duration"])
	}
	if got := entries[1].ContextMap()["error"]; got != "HTTP 500" {
		t.Errorf("error field = %v, want HTTP 500", got)
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("level = %v, want error", entries[1].Level)
	}
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var logger interfaces.Logger = NewWithCore(core)

	logger.Debug("hidden")
	logger.Info("shown")
	logger.Warn("signing skipped")

	if logs.Len() != 2 {
		t.Fatalf("entries = %d, want 2 (debug filtered)", logs.Len())
	}
	if logs.FilterMessage("signing skipped").All()[0].Level != zapcore.WarnLevel {
		t.Error("Warn() should log at warn level")
	}
}

func TestNew(t *testing.T) {
	for _, opts := range []Options{{}, {Verbose: true}, {JSON: true}} {
		logger, err := New(opts)
		if err != nil {
			t.Fatalf("New(%+v) error = %v", opts, err)
		}
		logger.Sync()
	}
}
