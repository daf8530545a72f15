package eventlog

import (
	"context"
	"log/slog"
)

// EventID identifies an event kind. IDs are stable across releases.
type EventID struct {
	ID   int
	Name string
}

// Record is a rendered event handed to a Sink.
type Record struct {
	Level    slog.Level
	Event    EventID
	Message  string
	Template string
	Attrs    []slog.Attr
	Err      error
}

// Sink receives structured events.
type Sink interface {
	// Enabled reports whether events at level would be recorded.
	Enabled(ctx context.Context, level slog.Level) bool
	// Log records an event. Scope attributes are read from ctx.
	Log(ctx context.Context, rec Record)
}

// NopSink drops every event.
type NopSink struct{}

// Enabled implements Sink.
func (NopSink) Enabled(context.Context, slog.Level) bool { return false }

// Log implements Sink.
func (NopSink) Log(context.Context, Record) {}

// SlogSink writes events to a slog.Logger.
type SlogSink struct {
	logger *slog.Logger
}

var _ Sink = (*SlogSink)(nil)

// NewSlogSink wraps logger; a nil logger uses slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &SlogSink{logger: logger}
}

// Enabled implements Sink.
func (s *SlogSink) Enabled(ctx context.Context, level slog.Level) bool {
	return s.logger.Enabled(ctx, level)
}

// Log implements Sink.
func (s *SlogSink) Log(ctx context.Context, rec Record) {
	scope := ScopeAttrs(ctx)
	attrs := make([]slog.Attr, 0, len(rec.Attrs)+len(scope)+3)
	attrs = append(attrs, slog.Int("event_id", rec.Event.ID), slog.String("event", rec.Event.Name))
	attrs = append(attrs, scope...)
	attrs = append(attrs, rec.Attrs...)
	if rec.Err != nil {
		attrs = append(attrs, slog.Any("err", rec.Err))
	}
	s.logger.LogAttrs(ctx, rec.Level, rec.Message, attrs...)
}
