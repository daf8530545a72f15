package consistency

import "context"

// Operation names used in traces and metrics.
const (
	OpCreate       = "create"
	OpDelete       = "delete"
	OpFindByID     = "find_by_id"
	OpGetMessageID = "get_message_id"
)

// Validator checks a message before it reaches the store. A returned error becomes a
// ValidationError in the result.
type Validator[T any] func(ctx context.Context, msg *T) error

// ManagerConfig defines Manager behavior.
type ManagerConfig[T any] struct {
	Trace      Trace
	Metrics    Metrics
	Describer  Describer
	Validators []Validator[T]
}

func (c ManagerConfig[T]) withDefaults() ManagerConfig[T] {
	if c.Trace == nil {
		c.Trace = NopTrace{}
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics{}
	}
	if c.Describer == nil {
		c.Describer = DefaultDescriber{}
	}

	return c
}

// ManagerOption configures a Manager.
type ManagerOption[T any] func(*ManagerConfig[T])

// WithTrace sets the trace receiving diagnostic events.
func WithTrace[T any](trace Trace) ManagerOption[T] {
	return func(c *ManagerConfig[T]) {
		c.Trace = trace
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics[T any](metrics Metrics) ManagerOption[T] {
	return func(c *ManagerConfig[T]) {
		c.Metrics = metrics
	}
}

// WithDescriber replaces the default error descriptions.
func WithDescriber[T any](describer Describer) ManagerOption[T] {
	return func(c *ManagerConfig[T]) {
		c.Describer = describer
	}
}

// WithValidator appends a validator. Validators run in registration order and stop at
// the first failure.
func WithValidator[T any](validator Validator[T]) ManagerOption[T] {
	return func(c *ManagerConfig[T]) {
		if validator != nil {
			c.Validators = append(c.Validators, validator)
		}
	}
}

// ValidateMessage is a Validator for the default Message type.
func ValidateMessage(_ context.Context, msg *Message) error {
	return msg.Validate()
}
