package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestInitForCLI_WritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Info("Test", "hello %s", "world")

	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Errorf("Expected output to contain message, got %q", out)
	}
	if !strings.Contains(out, "subsystem=Test") {
		t.Errorf("Expected output to contain subsystem attribute, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelWarn, &buf)

	Debug("Test", "debug message")
	Info("Test", "info message")
	Warn("Test", "warn message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Errorf("Debug message should be filtered at Warn level, got %q", out)
	}
	if strings.Contains(out, "info message") {
		t.Errorf("Info message should be filtered at Warn level, got %q", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("Warn message should pass at Warn level, got %q", out)
	}
}

func TestError_IncludesErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelDebug, &buf)

	Error("Test", errors.New("boom"), "operation failed")

	out := buf.String()
	if !strings.Contains(out, "operation failed") {
		t.Errorf("Expected message in output, got %q", out)
	}
	if !strings.Contains(out, "error=boom") {
		t.Errorf("Expected error attribute in output, got %q", out)
	}
}

func TestLogLevel_String(t *testing.T) {
	cases := map[LogLevel]string{
		LevelDebug:    "DEBUG",
		LevelInfo:     "INFO",
		LevelWarn:     "WARN",
		LevelError:    "ERROR",
		LogLevel(999): "UNKNOWN",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", level, got, want)
		}
	}
}
