package sqlstore

import (
	"github.com/velmie/consistency"
	"github.com/velmie/consistency/eventlog"
)

const defaultTable = "outbox_messages"

// Config defines store behavior.
type Config struct {
	// Table is the message table. Use schema.table for a non-default schema.
	Table string
	// Clock stamps created_at.
	Clock consistency.Clock
	// Sink receives cleanup events.
	Sink eventlog.Sink
}

func (c Config) withDefaults() Config {
	if c.Table == "" {
		c.Table = defaultTable
	}
	if c.Clock == nil {
		c.Clock = consistency.SystemClock{}
	}
	if c.Sink == nil {
		c.Sink = eventlog.NopSink{}
	}

	return c
}

// Option configures a Table or Store.
type Option func(*Config)

// WithTable sets the message table name.
func WithTable(name string) Option {
	return func(c *Config) {
		c.Table = name
	}
}

// WithClock sets the time source used for created_at.
func WithClock(clock consistency.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithSink sets the event sink.
func WithSink(sink eventlog.Sink) Option {
	return func(c *Config) {
		c.Sink = sink
	}
}
