package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSetupLoggerTo(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupLoggerTo(&buf, "warn")
	logger.Info("hidden")
	slog.Warn("via default")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info logged at warn level: %q", out)
	}
	if !strings.Contains(out, "via default") {
		t.Errorf("default logger not installed: %q", out)
	}
}

func TestSetupLoggerUnknownLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupLoggerTo(&buf, "chatty")
	if !strings.Contains(buf.String(), "Unknown log level") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}

func TestShutdownContextCancel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	ctx, cancel := ShutdownContext(SetupLoggerTo(&bytes.Buffer{}, "info"))
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
	if ctx.Err() != context.Canceled {
		t.Errorf("err = %v", ctx.Err())
	}
}
