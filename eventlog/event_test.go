package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

type captureSink struct {
	level   slog.Level
	records []Record
	ctxs    []context.Context
}

func (s *captureSink) Enabled(_ context.Context, level slog.Level) bool {
	return level >= s.level
}

func (s *captureSink) Log(ctx context.Context, rec Record) {
	s.records = append(s.records, rec)
	s.ctxs = append(s.ctxs, ctx)
}

func TestEventLogRendersAndBindsAttrs(t *testing.T) {
	ev := Define(slog.LevelInfo, 14, "ConnectionError", `Message id "{MessageId}" failed.`)
	sink := &captureSink{level: slog.LevelDebug}
	boom := errors.New("boom")

	ev.Log(context.Background(), sink, boom, "m-1")

	if len(sink.records) != 1 {
		t.Fatalf("expected one record, got %d", len(sink.records))
	}
	rec := sink.records[0]
	if rec.Event.ID != 14 || rec.Event.Name != "ConnectionError" {
		t.Fatalf("unexpected event id: %+v", rec.Event)
	}
	if rec.Message != `Message id "m-1" failed.` {
		t.Fatalf("unexpected message: %s", rec.Message)
	}
	if len(rec.Attrs) != 1 || rec.Attrs[0].Key != "MessageId" || rec.Attrs[0].Value.String() != "m-1" {
		t.Fatalf("unexpected attrs: %v", rec.Attrs)
	}
	if !errors.Is(rec.Err, boom) {
		t.Fatalf("expected error to be attached")
	}
}

func TestEventLogSkipsDisabledLevel(t *testing.T) {
	ev := Define(slog.LevelDebug, 1, "Created", "created {Id}")
	sink := &captureSink{level: slog.LevelInfo}

	ev.Log(context.Background(), sink, nil, "x")
	ev.Log(context.Background(), nil, nil, "x")

	if len(sink.records) != 0 {
		t.Fatalf("expected disabled level to be skipped")
	}
}

func TestDefinePanicsOnInvalidTemplate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Define(slog.LevelInfo, 1, "Bad", "{unterminated")
}

func TestSlogSinkWritesScopeAndEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(logger)
	ev := Define(slog.LevelWarn, 5, "ValidationFailed", `Operation "{Operation}" rejected input.`)

	ctx := WithScope(context.Background(), slog.String("request_id", "r-1"))
	ctx = WithScope(ctx, slog.String("operation", "create"))
	ev.Log(ctx, sink, errors.New("bad"), "create")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["msg"] != `Operation "create" rejected input.` {
		t.Fatalf("unexpected msg: %v", line["msg"])
	}
	if line["event_id"] != float64(5) || line["event"] != "ValidationFailed" {
		t.Fatalf("unexpected event attrs: %v", line)
	}
	if line["request_id"] != "r-1" || line["operation"] != "create" {
		t.Fatalf("expected nested scope attrs: %v", line)
	}
	if line["Operation"] != "create" || line["err"] != "bad" {
		t.Fatalf("expected template attrs and err: %v", line)
	}
}

func TestScopeDoesNotLeakIntoParent(t *testing.T) {
	parent := WithScope(context.Background(), slog.String("a", "1"))
	child := WithScope(parent, slog.String("b", "2"))

	if len(ScopeAttrs(parent)) != 1 {
		t.Fatalf("parent scope changed: %v", ScopeAttrs(parent))
	}
	if len(ScopeAttrs(child)) != 2 {
		t.Fatalf("expected nested scope: %v", ScopeAttrs(child))
	}
	if WithScope(child) != child {
		t.Fatalf("expected empty scope to return the same context")
	}
}
