package log

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	tterrors "github.com/YuminosukeSato/tagtext/pkg/errors"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = newZerologLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger())
)

func init() {
	// Route library warnings (UndefinedMetricWarning etc.) through zerolog.
	tterrors.SetZerologWarnFunc(func(warning error) {
		GetLogger().Warn("warning raised", "warning", warning)
	})
}

// GetLogger returns the process-wide default logger.
func GetLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// GetLoggerWithName returns the default logger scoped to a component name.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// SetDefault replaces the process-wide default logger.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// SetLevel sets the global zerolog level filter.
func SetLevel(level Level) {
	zerolog.SetGlobalLevel(toZerologLevel(level))
}

// ToLevel parses a textual level. Unknown values fall back to info.
func ToLevel(level string) Level {
	switch level {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	zl zerolog.Logger
}

func newZerologLogger(zl zerolog.Logger) Logger {
	return &zerologLogger{zl: zl}
}

// NewZerolog wraps an explicit zerolog.Logger, e.g. one writing to a file.
func NewZerolog(zl zerolog.Logger) Logger {
	return newZerologLogger(zl)
}

func (z *zerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.zl.Debug(), msg, fields)
}

func (z *zerologLogger) Info(msg string, fields ...any) {
	z.emit(z.zl.Info(), msg, fields)
}

func (z *zerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.zl.Warn(), msg, fields)
}

func (z *zerologLogger) Error(msg string, fields ...any) {
	z.emit(z.zl.Error(), msg, fields)
}

func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.zl.GetLevel() && toZerologLevel(level) >= zerolog.GlobalLevel()
}

// emit applies alternating key/value fields to the event. Error values get
// zerolog's error treatment; types implementing LogObjectMarshaler are
// rendered as structured objects.
func (z *zerologLogger) emit(event *zerolog.Event, msg string, fields []any) {
	if event == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		switch v := fields[i+1].(type) {
		case zerolog.LogObjectMarshaler:
			event = event.Object(key, v)
		case error:
			event = event.AnErr(key, v)
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case int64:
			event = event.Int64(key, v)
		case float64:
			event = event.Float64(key, v)
		case bool:
			event = event.Bool(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	event.Msg(msg)
}
