// Package log provides structured logging for tagtext training and
// annotation runs.
//
// The package defines a minimal, slog-compatible Logger interface with a
// zerolog default backend. Attribute key constants keep field names
// consistent across the pipeline (model name, epoch, split, metric values),
// and a TestLogger implementation captures records for assertions.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "cnn",
//	)
//	logger.Info("epoch finished",
//	    log.EpochKey, 3,
//	    log.F1Key, 0.82,
//	)
package log

import (
	"context"
)

// Logger is a structured logging interface compatible with log/slog
// conventions: a message followed by alternating key/value fields.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs potentially problematic situations that do not stop the run.
	Warn(msg string, fields ...any)

	// Error logs error conditions. If an error value appears among the
	// fields it is rendered with its stack trace when available.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated on
	// every subsequent record.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level. Values are compatible with slog.Level.
type Level int

// Standard logging levels.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
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
