/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Structured Logging
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// EnvLogLevel is the environment variable controlling the minimum level
const EnvLogLevel = "KIOSK_LOG_LEVEL"

var (
	mu sync.Mutex

	// currentLevel is the minimum log level to output
	currentLevel = LevelWarn

	out io.Writer = os.Stderr
)

func init() {
	if level, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		currentLevel = level
	}
}

// ParseLevel converts a level name to a LogLevel
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelWarn, false
}

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// logEntry represents a structured log entry
type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func log(level LogLevel, component, message string, keyvals ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if level < currentLevel {
		return
	}

	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Component: component,
		Message:   message,
		Fields:    make(map[string]interface{}),
	}

	// A trailing key without a value is dropped
	for i := 0; i+1 < len(keyvals); i += 2 {
		key := fmt.Sprintf("%v", keyvals[i])
		value := keyvals[i+1]
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		entry.Fields[key] = value
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(out, "ERROR: Failed to marshal log entry: %v\n", err)
		return
	}

	fmt.Fprintln(out, string(jsonBytes))
}

// Debug logs a debug-level message with structured fields
func Debug(message string, keyvals ...interface{}) {
	log(LevelDebug, "", message, keyvals...)
}

// Info logs an info-level message with structured fields
func Info(message string, keyvals ...interface{}) {
	log(LevelInfo, "", message, keyvals...)
}

// Warn logs a warning-level message with structured fields
func Warn(message string, keyvals ...interface{}) {
	log(LevelWarn, "", message, keyvals...)
}

// Error logs an error-level message with structured fields
func Error(message string, keyvals ...interface{}) {
	log(LevelError, "", message, keyvals...)
}

// Logger writes entries tagged with a component name
type Logger struct {
	component string
}

// For returns a logger for the named component
func For(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) Debug(message string, keyvals ...interface{}) {
	log(LevelDebug, l.component, message, keyvals...)
}

func (l *Logger) Info(message string, keyvals ...interface{}) {
	log(LevelInfo, l.component, message, keyvals...)
}

func (l *Logger) Warn(message string, keyvals ...interface{}) {
	log(LevelWarn, l.component, message, keyvals...)
}

func (l *Logger) Error(message string, keyvals ...interface{}) {
	log(LevelError, l.component, message, keyvals...)
}

// Enabled reports whether messages at level would be written
func Enabled(level LogLevel) bool {
	mu.Lock()
	defer mu.Unlock()
	return level >= currentLevel
}

// SetLevel sets the minimum log level to output
func SetLevel(level LogLevel) {
	mu.Lock()
	currentLevel = level
	mu.Unlock()
}

// GetLevel returns the current minimum log level
func GetLevel() LogLevel {
	mu.Lock()
	defer mu.Unlock()
	return currentLevel
}

// SetOutput redirects log output and returns the previous writer
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}
