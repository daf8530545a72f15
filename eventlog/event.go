package eventlog

import (
	"context"
	"log/slog"
)

// Event is a once-defined event kind: id, level and parsed template.
type Event struct {
	id       EventID
	level    slog.Level
	template *Template
}

// Define binds an event kind. It panics on an invalid template, so definitions belong in
// package-level initialization.
func Define(level slog.Level, id int, name, template string) *Event {
	return &Event{
		id:       EventID{ID: id, Name: name},
		level:    level,
		template: MustParseTemplate(template),
	}
}

// ID returns the event id.
func (e *Event) ID() EventID {
	return e.id
}

// Level returns the event level.
func (e *Event) Level() slog.Level {
	return e.level
}

// Template returns the parsed template.
func (e *Event) Template() *Template {
	return e.template
}

// Log renders and records the event when the sink is enabled for its level.
// args bind positionally to the template placeholder names.
func (e *Event) Log(ctx context.Context, sink Sink, err error, args ...any) {
	if sink == nil || !sink.Enabled(ctx, e.level) {
		return
	}

	names := e.template.names
	attrs := make([]slog.Attr, 0, len(names))
	for i, name := range names {
		if i >= len(args) {
			break
		}
		attrs = append(attrs, slog.Any(name, args[i]))
	}

	sink.Log(ctx, Record{
		Level:    e.level,
		Event:    e.id,
		Message:  e.template.Format(args...),
		Template: e.template.text,
		Attrs:    attrs,
		Err:      err,
	})
}
