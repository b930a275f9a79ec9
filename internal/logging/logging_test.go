/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Structured Logging Tests
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// capture redirects output to a buffer at the given level for the duration of a test
func capture(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut := SetOutput(&buf)
	prevLevel := GetLevel()
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(prevOut)
		SetLevel(prevLevel)
	})
	return &buf
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   LogLevel
		wantOK bool
	}{
		{"debug", LevelDebug, true},
		{" INFO ", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"", LevelWarn, false},
		{"verbose", LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLogOutput(t *testing.T) {
	buf := capture(t, LevelDebug)

	Info("test message", "key1", "value1", "key2", 42)

	var entry logEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}

	if entry.Level != "INFO" {
		t.Errorf("Level = %v, want INFO", entry.Level)
	}
	if entry.Message != "test message" {
		t.Errorf("Message = %v, want 'test message'", entry.Message)
	}
	if entry.Fields["key1"] != "value1" {
		t.Errorf("Fields[key1] = %v, want 'value1'", entry.Fields["key1"])
	}
	if entry.Fields["key2"] != float64(42) {
		t.Errorf("Fields[key2] = %v, want 42", entry.Fields["key2"])
	}
	if entry.Timestamp == "" {
		t.Error("Timestamp is empty")
	}
}

func TestComponentLogger(t *testing.T) {
	buf := capture(t, LevelDebug)

	For("orchestrator").Warn("strategy failed", "strategy", "embedding", "error", errors.New("boom"))

	var entry logEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}
	if entry.Component != "orchestrator" {
		t.Errorf("Component = %q, want orchestrator", entry.Component)
	}
	if entry.Fields["error"] != "boom" {
		t.Errorf("Fields[error] = %v, want boom", entry.Fields["error"])
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := capture(t, LevelWarn)

	Debug("debug message")
	Info("info message")
	if buf.Len() > 0 {
		t.Errorf("messages below WARN should not be logged, got %q", buf.String())
	}

	Warn("warn message")
	Error("error message")
	output := buf.String()
	if !strings.Contains(output, "WARN") || !strings.Contains(output, "ERROR") {
		t.Errorf("output should contain WARN and ERROR entries, got %q", output)
	}

	if Enabled(LevelInfo) {
		t.Error("Enabled(LevelInfo) should be false at WARN")
	}
	if !Enabled(LevelError) {
		t.Error("Enabled(LevelError) should be true at WARN")
	}
}

func TestLogWithOddNumberOfKeyValues(t *testing.T) {
	buf := capture(t, LevelDebug)

	Info("odd-pairs message", "key1", "value1", "key2")

	var entry logEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}
	if entry.Fields["key1"] != "value1" {
		t.Errorf("Fields[key1] = %v, want 'value1'", entry.Fields["key1"])
	}
	if _, exists := entry.Fields["key2"]; exists {
		t.Error("key2 should not exist without a value")
	}
}
