// Package logger provides a recording logger for assertions in tests.
package logger

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/arloliu/guidance/types"
)

// Entry is a single log call captured by TestLogger.
type Entry struct {
	Level         string
	Msg           string
	KeysAndValues []any
}

// Value returns the value logged for key, if present.
func (e Entry) Value(key string) (any, bool) {
	for i := 0; i+1 < len(e.KeysAndValues); i += 2 {
		if k, ok := e.KeysAndValues[i].(string); ok && k == key {
			return e.KeysAndValues[i+1], true
		}
	}

	return nil, false
}

// TestLogger implements types.Logger using testing.T for output.
// This ensures log messages appear in test output.
//
// Every call is also recorded so tests can assert on edge-triggered
// log events (e.g., "logged exactly once").
type TestLogger struct {
	t testing.TB

	mu      sync.Mutex
	entries []Entry
}

// Compile-time assertion that TestLogger implements Logger.
var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a new test logger that writes to testing.T.
//
// Parameters:
//   - t: The testing.TB instance to write logs to
//
// Returns:
//   - *TestLogger: A new logger instance that uses t.Logf()
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    logger := NewTest(t)
//	    logger.Info("test started", "id", 123)
//	}
func NewTest(t testing.TB) *TestLogger {
	return &TestLogger{t: t}
}

// Debug logs a debug-level message with optional key-value pairs.
func (l *TestLogger) Debug(msg string, keysAndValues ...any) {
	l.record("DEBUG", msg, keysAndValues)
}

// Info logs an info-level message with optional key-value pairs.
func (l *TestLogger) Info(msg string, keysAndValues ...any) {
	l.record("INFO", msg, keysAndValues)
}

// Warn logs a warning-level message with optional key-value pairs.
func (l *TestLogger) Warn(msg string, keysAndValues ...any) {
	l.record("WARN", msg, keysAndValues)
}

// Error logs an error-level message with optional key-value pairs.
func (l *TestLogger) Error(msg string, keysAndValues ...any) {
	l.record("ERROR", msg, keysAndValues)
}

// Fatal logs a fatal-level message and fails the test.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.t.Fatalf("FATAL: %s %s", msg, formatKeyValues(keysAndValues))
}

// Entries returns a copy of all recorded entries.
func (l *TestLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)

	return out
}

// Count returns how many entries were recorded with the given level and message.
func (l *TestLogger) Count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, e := range l.entries {
		if e.Level == level && e.Msg == msg {
			n++
		}
	}

	return n
}

// Find returns the last entry with the given message.
func (l *TestLogger) Find(msg string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Msg == msg {
			return l.entries[i], true
		}
	}

	return Entry{}, false
}

// Reset discards all recorded entries.
func (l *TestLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
}

func (l *TestLogger) record(level, msg string, keysAndValues []any) {
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, KeysAndValues: keysAndValues})
	l.mu.Unlock()

	l.t.Logf("%s: %s %s", level, msg, formatKeyValues(keysAndValues))
}

// formatKeyValues formats key-value pairs for logging.
func formatKeyValues(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, "%v=%v ", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, "%v=<missing> ", keysAndValues[i])
		}
	}

	return b.String()
}
