package jsonschema

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/memstore"
)

const orderSchema = `{
	"type": "object",
	"required": ["order_id", "amount"],
	"properties": {
		"order_id": {"type": "string"},
		"amount": {"type": "number", "minimum": 0}
	}
}`

func TestValidatorAcceptsAndRejects(t *testing.T) {
	v := New()
	if err := v.Register("order.created", []byte(orderSchema)); err != nil {
		t.Fatalf("register: %v", err)
	}
	ctx := context.Background()

	ok := &consistency.Message{Name: "order.created", Payload: json.RawMessage(`{"order_id":"o-1","amount":10}`)}
	if err := v.Validate(ctx, ok); err != nil {
		t.Fatalf("expected valid payload: %v", err)
	}

	bad := &consistency.Message{Name: "order.created", Payload: json.RawMessage(`{"order_id":"o-1","amount":-1}`)}
	err := v.Validate(ctx, bad)
	if !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
	if !strings.Contains(err.Error(), "amount") {
		t.Fatalf("expected field in error: %v", err)
	}

	broken := &consistency.Message{Name: "order.created", Payload: json.RawMessage(`{`)}
	if err := v.Validate(ctx, broken); !errors.Is(err, consistency.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestValidatorUnknownNames(t *testing.T) {
	msg := &consistency.Message{Name: "user.deleted", Payload: json.RawMessage(`{}`)}

	if err := New().Validate(context.Background(), msg); err != nil {
		t.Fatalf("lenient validator must accept unknown names: %v", err)
	}
	if err := New(Strict()).Validate(context.Background(), msg); !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}
}

func TestValidatorRegisterErrors(t *testing.T) {
	v := New()
	if err := v.Register("x", []byte(`{"type": 12}`)); err == nil {
		t.Fatalf("expected compile error")
	}

	path := filepath.Join(t.TempDir(), "order.json")
	if err := os.WriteFile(path, []byte(orderSchema), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	if err := v.RegisterFile("order.created", path); err != nil {
		t.Fatalf("register file: %v", err)
	}
}

func TestValidatorAsManagerValidator(t *testing.T) {
	v := New()
	if err := v.Register("order.created", []byte(orderSchema)); err != nil {
		t.Fatalf("register: %v", err)
	}
	store := memstore.NewMessageStore()
	manager := consistency.NewManager[consistency.Message, string](store,
		consistency.WithValidator[consistency.Message](v.Validate))

	result, err := manager.Create(context.Background(), &consistency.Message{
		Name:    "order.created",
		Payload: json.RawMessage(`{"order_id":"o-1"}`),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !result.HasCode(consistency.CodeValidation) {
		t.Fatalf("expected ValidationError, got %s", result)
	}
	if store.Len() != 0 {
		t.Fatalf("invalid message must not be stored")
	}
}
