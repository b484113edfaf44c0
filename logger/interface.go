// Package logger defines the structured logging contract used by the
// validation middleware, the document handlers and the petstore command.
package logger

import (
	"context"
	"time"
)

// Logger creates leveled log events and derives child loggers.
type Logger interface {
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
	// WithContext returns a logger annotated with the trace of ctx, if any.
	WithContext(ctx context.Context) Logger
	// WithFields returns a logger that adds fields to every entry.
	WithFields(fields map[string]any) Logger
}

// LogEvent is a single entry being built. Msg or Msgf sends it.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Strs(key string, values []string) LogEvent
	Int(key string, value int) LogEvent
	Bool(key string, value bool) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
}
