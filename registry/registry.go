package registry

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
)

// Factory builds the instance for a binding. It may resolve other bindings from r.
type Factory func(r *Registry) (any, error)

type binding struct {
	key     any
	impl    reflect.Type
	factory Factory
	owned   bool

	once     sync.Once
	instance any
	err      error
}

// Registry maps comparable keys to lazily built instances.
//
// Factories receive a view of the registry that remembers the bindings being built, so
// a factory that resolves its own key, directly or through other bindings, gets
// ErrCycle instead of blocking.
type Registry struct {
	*table
	resolving []*binding
}

type table struct {
	mu       sync.Mutex
	bindings map[any]*binding
	order    []*binding
	closed   bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{table: &table{bindings: make(map[any]*binding)}}
}

// TryAdd binds factory to key unless key is already bound. impl names the concrete type
// the factory produces. It reports whether the binding was added; an existing binding is
// never replaced or merged.
func (r *Registry) TryAdd(key any, impl reflect.Type, factory Factory) bool {
	if factory == nil {
		panic(ErrNilFactory)
	}

	return r.add(&binding{key: key, impl: impl, factory: factory, owned: true})
}

// TryAddInstance binds an existing value to key unless key is already bound. Values
// added this way are owned by the caller and are not closed by Close.
func (r *Registry) TryAddInstance(key any, value any) bool {
	b := &binding{key: key, impl: reflect.TypeOf(value), instance: value}
	b.once.Do(func() {})

	return r.add(b)
}

func (r *Registry) add(b *binding) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[b.key]; exists {
		return false
	}
	r.bindings[b.key] = b
	r.order = append(r.order, b)

	return true
}

// Contains reports whether key is bound.
func (r *Registry) Contains(key any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.bindings[key]

	return ok
}

// Implementation returns the concrete type registered for key.
func (r *Registry) Implementation(key any) (reflect.Type, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[key]
	if !ok {
		return nil, false
	}

	return b.impl, true
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.bindings)
}

// Resolve returns the instance bound to key, building it on first use.
// A factory error is cached: later calls return the same error.
func (r *Registry) Resolve(key any) (any, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()

		return nil, ErrClosed
	}
	b, ok := r.bindings[key]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotRegistered, key)
	}

	for _, active := range r.resolving {
		if active == b {
			return nil, fmt.Errorf("%w: %v", ErrCycle, key)
		}
	}

	b.once.Do(func() {
		b.instance, b.err = b.factory(r.enter(b))
	})
	if b.err != nil {
		return nil, fmt.Errorf("registry: resolve %v: %w", key, b.err)
	}

	return b.instance, nil
}

func (r *Registry) enter(b *binding) *Registry {
	resolving := make([]*binding, len(r.resolving), len(r.resolving)+1)
	copy(resolving, r.resolving)

	return &Registry{table: r.table, resolving: append(resolving, b)}
}

// Close releases instances built by the registry that implement io.Closer, in reverse
// registration order. Instances added with TryAddInstance are left alone.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()

		return nil
	}
	r.closed = true
	order := r.order
	r.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		b := order[i]
		if !b.owned {
			continue
		}
		// Unresolved bindings are marked done so that they are never built after Close.
		b.once.Do(func() {})
		closer, ok := b.instance.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("registry: close %v: %w", b.key, err))
		}
	}

	return errors.Join(errs...)
}
