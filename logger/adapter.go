package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// eventAdapter routes string and interface fields through the filter.
type eventAdapter struct {
	event  *zerolog.Event
	filter *SensitiveDataFilter
}

func (e *eventAdapter) Msg(msg string) { e.event.Msg(msg) }

func (e *eventAdapter) Msgf(format string, args ...any) { e.event.Msgf(format, args...) }

func (e *eventAdapter) Err(err error) LogEvent {
	e.event = e.event.Err(err)
	return e
}

func (e *eventAdapter) Str(key, value string) LogEvent {
	if e.filter != nil {
		value = e.filter.FilterString(key, value)
	}
	e.event = e.event.Str(key, value)
	return e
}

func (e *eventAdapter) Strs(key string, values []string) LogEvent {
	if e.filter != nil && e.filter.isSensitiveField(key) {
		masked := make([]string, len(values))
		for i := range values {
			masked[i] = e.filter.config.MaskValue
		}
		values = masked
	}
	e.event = e.event.Strs(key, values)
	return e
}

func (e *eventAdapter) Int(key string, value int) LogEvent {
	e.event = e.event.Int(key, value)
	return e
}

func (e *eventAdapter) Bool(key string, value bool) LogEvent {
	e.event = e.event.Bool(key, value)
	return e
}

func (e *eventAdapter) Dur(key string, d time.Duration) LogEvent {
	e.event = e.event.Dur(key, d)
	return e
}

func (e *eventAdapter) Interface(key string, i any) LogEvent {
	if e.filter != nil {
		i = e.filter.FilterValue(key, i)
	}
	e.event = e.event.Interface(key, i)
	return e
}

func (l *ZeroLogger) newEvent(event *zerolog.Event) LogEvent {
	return &eventAdapter{event: event, filter: l.filter}
}

func (l *ZeroLogger) Debug() LogEvent { return l.newEvent(l.zlog.Debug()) }

func (l *ZeroLogger) Info() LogEvent { return l.newEvent(l.zlog.Info()) }

func (l *ZeroLogger) Warn() LogEvent { return l.newEvent(l.zlog.Warn()) }

func (l *ZeroLogger) Error() LogEvent { return l.newEvent(l.zlog.Error()) }
