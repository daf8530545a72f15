// Package memstore provides an in-memory consistency.MessageStore.
//
// It is intended for tests and single-process setups. Messages are copied on the way in
// and on the way out, so callers never share state with the store.
package memstore

import (
	"context"
	"sync"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/registry"
)

// Context is the backend context type used when registering in-memory stores.
type Context struct{}

// Store keeps messages in a map guarded by a RWMutex.
type Store[T any, K comparable] struct {
	mu       sync.RWMutex
	accessor consistency.Accessor[T, K]
	clone    func(*T) *T
	messages map[K]*T
}

var _ consistency.MessageStore[consistency.Message, string] = (*Store[consistency.Message, string])(nil)

// Option configures a Store.
type Option[T any] func(*options[T])

type options[T any] struct {
	clone func(*T) *T
}

// WithClone sets the copy function used for stored messages. The default is a shallow
// struct copy.
func WithClone[T any](clone func(*T) *T) Option[T] {
	return func(o *options[T]) {
		o.clone = clone
	}
}

// New creates an empty store.
func New[T any, K comparable](accessor consistency.Accessor[T, K], opts ...Option[T]) *Store[T, K] {
	if !accessor.Valid() {
		panic("memstore: incomplete accessor")
	}
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}
	if o.clone == nil {
		o.clone = shallowClone[T]
	}

	return &Store[T, K]{
		accessor: accessor,
		clone:    o.clone,
		messages: make(map[K]*T),
	}
}

// NewMessageStore creates a store for consistency.Message keyed by string.
func NewMessageStore() *Store[consistency.Message, string] {
	return New(consistency.MessageAccessor(), WithClone(cloneMessage))
}

// AddStores registers an in-memory store for (T, Context, K). The registry must provide
// a Context value (see registry.Provide).
func AddStores[T any, K comparable](r *registry.Registry, accessor consistency.Accessor[T, K], opts ...Option[T]) bool {
	return consistency.AddStore[T, Context, K](r, func(Context) (*Store[T, K], error) {
		return New(accessor, opts...), nil
	})
}

// Create implements consistency.MessageStore.
func (s *Store[T, K]) Create(ctx context.Context, msg *T) (K, error) {
	var zero K
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	id, err := s.accessor.AssignID(msg)
	if err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.messages[id]; exists {
		return zero, consistency.ErrDuplicateKey
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	stored := s.clone(msg)
	s.accessor.SetID(stored, id)
	s.messages[id] = stored
	s.accessor.SetID(msg, id)

	return id, nil
}

// FindByID implements consistency.MessageStore.
func (s *Store[T, K]) FindByID(ctx context.Context, id K) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, nil
	}

	return s.clone(msg), nil
}

// Delete implements consistency.MessageStore.
func (s *Store[T, K]) Delete(ctx context.Context, msg *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := s.accessor.ID(msg)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return consistency.ErrNotFound
	}
	delete(s.messages, id)

	return nil
}

// GetMessageID implements consistency.MessageStore.
func (s *Store[T, K]) GetMessageID(_ context.Context, msg *T) (K, error) {
	return s.accessor.ID(msg), nil
}

// Len returns the number of stored messages.
func (s *Store[T, K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages)
}

func shallowClone[T any](msg *T) *T {
	cp := *msg

	return &cp
}

func cloneMessage(msg *consistency.Message) *consistency.Message {
	cp := *msg
	cp.Payload = append([]byte(nil), msg.Payload...)
	if msg.Headers != nil {
		cp.Headers = append([]byte(nil), msg.Headers...)
	}

	return &cp
}
