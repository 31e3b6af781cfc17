package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(WARN, false)
	logger.SetOutput(buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("Messages below WARN must be filtered, got %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("WARN and above must pass, got %q", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(INFO, true)
	logger.SetOutput(buf)

	logger.Error("call failed", map[string]interface{}{"status": 404})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if entry.Level != "ERROR" || entry.Message != "call failed" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if entry.Fields["status"] != float64(404) {
		t.Errorf("Expected status field, got %v", entry.Fields)
	}
}

func TestLogger_WithFieldDoesNotMutateParent(t *testing.T) {
	buf := &bytes.Buffer{}
	parent := NewLogger(INFO, false)
	parent.SetOutput(buf)

	child := parent.WithField("component", "wrapper")
	child.Info("from child")
	parent.Info("from parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "component") {
		t.Errorf("Child line missing field: %q", lines[0])
	}
	if strings.Contains(lines[1], "component") {
		t.Errorf("Parent line must not carry child field: %q", lines[1])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
