// Package jsonschema validates consistency.Message payloads against JSON Schemas before
// they reach a store.
package jsonschema

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/velmie/consistency"
)

var (
	// ErrSchemaViolation is returned when a payload does not match its schema.
	ErrSchemaViolation = errors.New("consistency jsonschema: payload does not match schema")
	// ErrUnknownMessage is returned in strict mode for names without a schema.
	ErrUnknownMessage = errors.New("consistency jsonschema: no schema for message name")
)

// Validator holds compiled schemas keyed by message name.
type Validator struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
	strict  bool
}

// Option configures a Validator.
type Option func(*Validator)

// Strict rejects messages whose name has no registered schema.
func Strict() Option {
	return func(v *Validator) {
		v.strict = true
	}
}

// New creates an empty validator.
func New(opts ...Option) *Validator {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Register compiles schema (a JSON document) for messages named name.
func (v *Validator) Register(name string, schema []byte) error {
	return v.register(name, gojsonschema.NewBytesLoader(schema))
}

// RegisterFile compiles the schema at path for messages named name.
func (v *Validator) RegisterFile(name, path string) error {
	return v.register(name, gojsonschema.NewReferenceLoader("file://"+path))
}

func (v *Validator) register(name string, loader gojsonschema.JSONLoader) error {
	compiled, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return fmt.Errorf("consistency jsonschema: compile schema %q failed: %w", name, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.schemas[name] = compiled

	return nil
}

// Validate checks msg.Payload against the schema registered for msg.Name. It has the
// consistency.Validator signature:
//
//	consistency.WithValidator[consistency.Message](v.Validate)
func (v *Validator) Validate(_ context.Context, msg *consistency.Message) error {
	v.mu.RLock()
	schema, ok := v.schemas[msg.Name]
	v.mu.RUnlock()
	if !ok {
		if v.strict {
			return fmt.Errorf("%w: %s", ErrUnknownMessage, msg.Name)
		}

		return nil
	}
	if len(msg.Payload) == 0 {
		return consistency.ErrPayloadRequired
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(msg.Payload))
	if err != nil {
		return fmt.Errorf("%w: %w", consistency.ErrInvalidPayload, err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(details, "; "))
}
