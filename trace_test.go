package consistency_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/eventlog"
)

type memorySink struct {
	min     slog.Level
	records []eventlog.Record
}

func (s *memorySink) Enabled(_ context.Context, level slog.Level) bool {
	return level >= s.min
}

func (s *memorySink) Log(_ context.Context, rec eventlog.Record) {
	s.records = append(s.records, rec)
}

func TestEventTraceEventIDs(t *testing.T) {
	sink := &memorySink{min: slog.LevelDebug}
	trace := consistency.NewEventTrace(sink)
	ctx := context.Background()
	boom := errors.New("boom")

	trace.MessageCreated(ctx, "m-1")
	trace.MessageDeleted(ctx, "m-1")
	trace.MessageNotFound(ctx, "m-1")
	trace.DuplicateMessage(ctx, "m-1", boom)
	trace.ValidationFailed(ctx, consistency.OpCreate, boom)
	trace.StoreFailure(ctx, consistency.OpDelete, boom)
	trace.UnhandledStoreError(ctx, consistency.OpCreate, boom)
	trace.OperationCanceled(ctx, consistency.OpFindByID, context.Canceled)

	if len(sink.records) != 8 {
		t.Fatalf("expected 8 records, got %d", len(sink.records))
	}
	for i, rec := range sink.records {
		if rec.Event.ID != i+1 {
			t.Fatalf("record %d has event id %d", i, rec.Event.ID)
		}
	}
	if got := sink.records[0].Message; got != `Message id "m-1" created.` {
		t.Fatalf("unexpected message: %s", got)
	}
	if got := sink.records[5]; got.Level != slog.LevelError || !errors.Is(got.Err, boom) {
		t.Fatalf("unexpected store failure record: %+v", got)
	}
	if got := sink.records[4].Attrs; len(got) != 1 || got[0].Key != "Operation" {
		t.Fatalf("unexpected attrs: %v", got)
	}
}

func TestEventTraceRespectsLevel(t *testing.T) {
	sink := &memorySink{min: slog.LevelWarn}
	trace := consistency.NewEventTrace(sink)

	trace.MessageCreated(context.Background(), "m-1")
	trace.StoreFailure(context.Background(), consistency.OpCreate, errors.New("x"))

	if len(sink.records) != 1 || sink.records[0].Event.Name != "StoreFailure" {
		t.Fatalf("expected only the error event, got %+v", sink.records)
	}
}

func TestEventTraceNilSink(t *testing.T) {
	trace := consistency.NewEventTrace(nil)
	trace.MessageCreated(context.Background(), "m-1")

	if _, ok := trace.Sink().(eventlog.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", trace.Sink())
	}
}
