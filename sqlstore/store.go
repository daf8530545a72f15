package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/velmie/consistency"
)

// Store implements consistency.MessageStore over a Table. Messages are stored as JSON;
// K must be representable as text by the driver (string, uuid.UUID or a type
// implementing driver.Valuer).
type Store[T any, K comparable] struct {
	table    *Table
	accessor consistency.Accessor[T, K]
}

var _ consistency.MessageStore[consistency.Message, string] = (*Store[consistency.Message, string])(nil)

// New constructs a store with validated configuration.
func New[T any, K comparable](db *sql.DB, dialect Dialect, accessor consistency.Accessor[T, K], opts ...Option) (*Store[T, K], error) {
	table, err := NewTable(db, dialect, opts...)
	if err != nil {
		return nil, err
	}

	return NewWithTable(table, accessor)
}

// NewWithTable constructs a store over an existing table.
func NewWithTable[T any, K comparable](table *Table, accessor consistency.Accessor[T, K]) (*Store[T, K], error) {
	if !accessor.Valid() {
		return nil, ErrAccessorRequired
	}

	return &Store[T, K]{table: table, accessor: accessor}, nil
}

// NewMessageStore constructs a store for consistency.Message keyed by string.
func NewMessageStore(db *sql.DB, dialect Dialect, opts ...Option) (*Store[consistency.Message, string], error) {
	return New(db, dialect, consistency.MessageAccessor(), opts...)
}

// MustNew constructs a store or panics on error.
func MustNew[T any, K comparable](db *sql.DB, dialect Dialect, accessor consistency.Accessor[T, K], opts ...Option) *Store[T, K] {
	store, err := New(db, dialect, accessor, opts...)
	if err != nil {
		panic(err)
	}

	return store
}

// Table returns the table the store writes to.
func (s *Store[T, K]) Table() *Table {
	return s.table
}

// Create implements consistency.MessageStore. The id is written back to msg only after
// the insert succeeded.
func (s *Store[T, K]) Create(ctx context.Context, msg *T) (K, error) {
	var zero K
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	id, err := s.accessor.AssignID(msg)
	if err != nil {
		return zero, fmt.Errorf("consistency sqlstore: generate id failed: %w", err)
	}
	record := *msg
	s.accessor.SetID(&record, id)
	body, err := json.Marshal(&record)
	if err != nil {
		return zero, fmt.Errorf("consistency sqlstore: encode message failed: %w", err)
	}

	t := s.table
	if _, err := t.exec(ctx).ExecContext(ctx, t.queries.insert, id, string(body), t.cfg.Clock.Now().UTC()); err != nil {
		return zero, classify(t.dialect, "insert", err)
	}
	s.accessor.SetID(msg, id)

	return id, nil
}

// FindByID implements consistency.MessageStore.
func (s *Store[T, K]) FindByID(ctx context.Context, id K) (*T, error) {
	t := s.table
	var body []byte
	if err := t.exec(ctx).QueryRowContext(ctx, t.queries.find, id).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, classify(t.dialect, "select", err)
	}

	msg := new(T)
	if err := json.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("consistency sqlstore: decode message failed: %w", err)
	}

	return msg, nil
}

// Delete implements consistency.MessageStore.
func (s *Store[T, K]) Delete(ctx context.Context, msg *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := s.accessor.ID(msg)
	var zero K
	if id == zero {
		return consistency.ErrNotFound
	}

	t := s.table
	res, err := t.exec(ctx).ExecContext(ctx, t.queries.delete, id)
	if err != nil {
		return classify(t.dialect, "delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(t.dialect, "delete rows", err)
	}
	if affected == 0 {
		return consistency.ErrNotFound
	}

	return nil
}

// GetMessageID implements consistency.MessageStore.
func (s *Store[T, K]) GetMessageID(_ context.Context, msg *T) (K, error) {
	return s.accessor.ID(msg), nil
}
