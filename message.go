package consistency

import (
	"encoding/json"
	"time"
)

// Message is the default outbox message shape.
type Message struct {
	// ID is optional on create; when empty the store assigns a UUID v7.
	ID string `json:"id"`
	// Name identifies the event (e.g., "order.created").
	Name string `json:"name"`
	// Payload is the JSON body of the message.
	Payload json.RawMessage `json:"payload"`
	// Headers is optional metadata (JSON object recommended).
	Headers json.RawMessage `json:"headers,omitempty"`
	// CreatedAt is informational; stores keep their own creation timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks required fields and JSON validity.
func (m *Message) Validate() error {
	if m.Name == "" {
		return ErrMessageNameRequired
	}
	if len(m.Payload) == 0 {
		return ErrPayloadRequired
	}
	if !json.Valid(m.Payload) {
		return ErrInvalidPayload
	}
	if len(m.Headers) > 0 && !json.Valid(m.Headers) {
		return ErrInvalidHeaders
	}

	return nil
}

// MessageAccessor returns the accessor for Message with UUID v7 string keys.
func MessageAccessor() Accessor[Message, string] {
	return Accessor[Message, string]{
		ID:    func(m *Message) string { return m.ID },
		SetID: func(m *Message, id string) { m.ID = id },
		NewID: StringKeys(),
	}
}
