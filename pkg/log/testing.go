package log

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// TestLogger is a Logger implementation that captures records in memory so
// tests can assert on emitted messages and fields. Loggers derived via With
// share the root logger's record sink.
type TestLogger struct {
	mu      sync.Mutex
	level   Level
	context []any
	records []TestRecord
	parent  *TestLogger // nil on the root logger
}

// TestRecord is one captured log record.
type TestRecord struct {
	Level   Level
	Message string
	Fields  []any
}

// NewTestLogger creates a TestLogger that records everything at or above
// the given level.
func NewTestLogger(level Level) *TestLogger {
	return &TestLogger{level: level}
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.record(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.record(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.record(LevelError, msg, fields) }

// With returns a logger sharing the same record sink with extra context
// fields prepended to every record.
func (t *TestLogger) With(fields ...any) Logger {
	return &TestLogger{
		level:   t.level,
		context: append(append([]any{}, t.context...), fields...),
		parent:  t.root(),
	}
}

func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return level >= t.level
}

func (t *TestLogger) root() *TestLogger {
	if t.parent != nil {
		return t.parent
	}
	return t
}

func (t *TestLogger) record(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	r := t.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	all := append(append([]any{}, t.context...), fields...)
	r.records = append(r.records, TestRecord{Level: level, Message: msg, Fields: all})
}

// Records returns a copy of all captured records.
func (t *TestLogger) Records() []TestRecord {
	r := t.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TestRecord, len(r.records))
	copy(out, r.records)
	return out
}

// ContainsMessage reports whether any record's message contains the substring.
func (t *TestLogger) ContainsMessage(sub string) bool {
	for _, rec := range t.Records() {
		if strings.Contains(rec.Message, sub) {
			return true
		}
	}
	return false
}

// ContainsField reports whether any record carries the given key/value pair.
func (t *TestLogger) ContainsField(key string, value any) bool {
	want := fmt.Sprintf("%v", value)
	for _, rec := range t.Records() {
		for i := 0; i+1 < len(rec.Fields); i += 2 {
			if rec.Fields[i] == key && fmt.Sprintf("%v", rec.Fields[i+1]) == want {
				return true
			}
		}
	}
	return false
}

// Clear drops all captured records.
func (t *TestLogger) Clear() {
	r := t.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}
