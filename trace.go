package consistency

import (
	"context"
	"log/slog"
	"sync"

	"github.com/velmie/consistency/eventlog"
)

// Trace receives diagnostic events from the Manager. Each event kind has its own method
// so that a consumer can embed NopTrace and override only the events it cares about.
type Trace interface {
	// MessageCreated is called after a store confirmed a create.
	MessageCreated(ctx context.Context, id string)
	// MessageDeleted is called after a store confirmed a delete.
	MessageDeleted(ctx context.Context, id string)
	// MessageNotFound is called when a delete target does not exist.
	MessageNotFound(ctx context.Context, id string)
	// DuplicateMessage is called when a store rejected a create as a duplicate.
	DuplicateMessage(ctx context.Context, id string, err error)
	// ValidationFailed is called when input is rejected before reaching the store.
	ValidationFailed(ctx context.Context, op string, err error)
	// StoreFailure is called for recognized store failures.
	StoreFailure(ctx context.Context, op string, err error)
	// UnhandledStoreError is called for store errors that are returned to the caller.
	UnhandledStoreError(ctx context.Context, op string, err error)
	// OperationCanceled is called when the caller's context ended the operation.
	OperationCanceled(ctx context.Context, op string, err error)
}

// NopTrace ignores every event.
type NopTrace struct{}

var _ Trace = NopTrace{}

// MessageCreated implements Trace.
func (NopTrace) MessageCreated(context.Context, string) {}

// MessageDeleted implements Trace.
func (NopTrace) MessageDeleted(context.Context, string) {}

// MessageNotFound implements Trace.
func (NopTrace) MessageNotFound(context.Context, string) {}

// DuplicateMessage implements Trace.
func (NopTrace) DuplicateMessage(context.Context, string, error) {}

// ValidationFailed implements Trace.
func (NopTrace) ValidationFailed(context.Context, string, error) {}

// StoreFailure implements Trace.
func (NopTrace) StoreFailure(context.Context, string, error) {}

// UnhandledStoreError implements Trace.
func (NopTrace) UnhandledStoreError(context.Context, string, error) {}

// OperationCanceled implements Trace.
func (NopTrace) OperationCanceled(context.Context, string, error) {}

type traceEventSet struct {
	created    *eventlog.Event
	deleted    *eventlog.Event
	notFound   *eventlog.Event
	duplicate  *eventlog.Event
	validation *eventlog.Event
	storeFail  *eventlog.Event
	unhandled  *eventlog.Event
	canceled   *eventlog.Event
}

var traceEvents = sync.OnceValue(func() *traceEventSet {
	return &traceEventSet{
		created:    eventlog.Define(slog.LevelDebug, 1, "MessageCreated", `Message id "{MessageId}" created.`),
		deleted:    eventlog.Define(slog.LevelDebug, 2, "MessageDeleted", `Message id "{MessageId}" deleted.`),
		notFound:   eventlog.Define(slog.LevelDebug, 3, "MessageNotFound", `Message id "{MessageId}" not found.`),
		duplicate:  eventlog.Define(slog.LevelInfo, 4, "DuplicateMessage", `Message id "{MessageId}" rejected as duplicate.`),
		validation: eventlog.Define(slog.LevelWarn, 5, "ValidationFailed", `Operation "{Operation}" rejected invalid input.`),
		storeFail:  eventlog.Define(slog.LevelError, 6, "StoreFailure", `Operation "{Operation}" failed in the message store.`),
		unhandled:  eventlog.Define(slog.LevelError, 7, "UnhandledStoreError", `Operation "{Operation}": an unhandled error was returned by the message store.`),
		canceled:   eventlog.Define(slog.LevelDebug, 8, "OperationCanceled", `Operation "{Operation}" canceled.`),
	}
})

// EventTrace writes Trace events to an eventlog.Sink.
type EventTrace struct {
	sink eventlog.Sink
}

var _ Trace = (*EventTrace)(nil)

// NewEventTrace creates a Trace over sink. A nil sink drops events.
func NewEventTrace(sink eventlog.Sink) *EventTrace {
	if sink == nil {
		sink = eventlog.NopSink{}
	}

	return &EventTrace{sink: sink}
}

// Sink returns the underlying sink.
func (t *EventTrace) Sink() eventlog.Sink {
	return t.sink
}

// MessageCreated implements Trace.
func (t *EventTrace) MessageCreated(ctx context.Context, id string) {
	traceEvents().created.Log(ctx, t.sink, nil, id)
}

// MessageDeleted implements Trace.
func (t *EventTrace) MessageDeleted(ctx context.Context, id string) {
	traceEvents().deleted.Log(ctx, t.sink, nil, id)
}

// MessageNotFound implements Trace.
func (t *EventTrace) MessageNotFound(ctx context.Context, id string) {
	traceEvents().notFound.Log(ctx, t.sink, nil, id)
}

// DuplicateMessage implements Trace.
func (t *EventTrace) DuplicateMessage(ctx context.Context, id string, err error) {
	traceEvents().duplicate.Log(ctx, t.sink, err, id)
}

// ValidationFailed implements Trace.
func (t *EventTrace) ValidationFailed(ctx context.Context, op string, err error) {
	traceEvents().validation.Log(ctx, t.sink, err, op)
}

// StoreFailure implements Trace.
func (t *EventTrace) StoreFailure(ctx context.Context, op string, err error) {
	traceEvents().storeFail.Log(ctx, t.sink, err, op)
}

// UnhandledStoreError implements Trace.
func (t *EventTrace) UnhandledStoreError(ctx context.Context, op string, err error) {
	traceEvents().unhandled.Log(ctx, t.sink, err, op)
}

// OperationCanceled implements Trace.
func (t *EventTrace) OperationCanceled(ctx context.Context, op string, err error) {
	traceEvents().canceled.Log(ctx, t.sink, err, op)
}
