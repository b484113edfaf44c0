package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Options configures New.
type Options struct {
	// Level is a zerolog level name. Unknown names fall back to info.
	Level string
	// Pretty switches to the human readable console writer.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Filter defaults to DefaultFilterConfig.
	Filter *FilterConfig
}

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	zlog   zerolog.Logger
	filter *SensitiveDataFilter
}

var _ Logger = (*ZeroLogger)(nil)

var callerMarshalOnce sync.Once

func shortCaller(_ uintptr, file string, line int) string {
	base := filepath.Base(file)
	parent := filepath.Base(filepath.Dir(file))
	if parent != "." && parent != "" {
		return parent + "/" + base + ":" + strconv.Itoa(line)
	}
	return base + ":" + strconv.Itoa(line)
}

// New creates a ZeroLogger writing JSON lines (or console output when Pretty).
func New(opts Options) *ZeroLogger {
	callerMarshalOnce.Do(func() {
		zerolog.CallerMarshalFunc = shortCaller
	})

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	l := zerolog.New(out).Level(level).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	return &ZeroLogger{zlog: l, filter: NewSensitiveDataFilter(opts.Filter)}
}

// Nop returns a logger that discards everything.
func Nop() *ZeroLogger {
	return &ZeroLogger{zlog: zerolog.Nop(), filter: NewSensitiveDataFilter(nil)}
}

// WithContext adds trace_id and span_id when ctx carries a valid span.
func (l *ZeroLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	child := l.zlog.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &ZeroLogger{zlog: child, filter: l.filter}
}

// WithFields masks sensitive fields before attaching them.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.filter != nil {
		fields = l.filter.FilterFields(fields)
	}
	child := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: child, filter: l.filter}
}

// Zerolog exposes the underlying logger for libraries that need it directly.
func (l *ZeroLogger) Zerolog() *zerolog.Logger {
	return &l.zlog
}
