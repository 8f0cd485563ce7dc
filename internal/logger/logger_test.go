package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLevels(t *testing.T) {
	log, sync, err := New("warn", "json")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer func() { _ = sync() }()

	if log.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !log.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestNewConsoleFormat(t *testing.T) {
	if _, _, err := New("debug", "console"); err != nil {
		t.Errorf("New(debug, console) error: %v", err)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, _, err := New("loud", "json"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, _, err := New("info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
