package consistency

import (
	"fmt"
	"reflect"

	"github.com/velmie/consistency/eventlog"
	"github.com/velmie/consistency/registry"
)

// DefaultKey is the key type used when a store is registered without one.
type DefaultKey = string

// StoreKey identifies a store binding by message, backend context and key type.
type StoreKey struct {
	Message reflect.Type
	Context reflect.Type
	Key     reflect.Type
}

// StoreKeyFor returns the StoreKey of the (T, C, K) triple.
func StoreKeyFor[T any, C any, K comparable]() StoreKey {
	return StoreKey{
		Message: reflect.TypeOf((*T)(nil)).Elem(),
		Context: reflect.TypeOf((*C)(nil)).Elem(),
		Key:     reflect.TypeOf((*K)(nil)).Elem(),
	}
}

// String renders the triple for diagnostics.
func (k StoreKey) String() string {
	return fmt.Sprintf("MessageStore[%v, %v, %v]", k.Message, k.Context, k.Key)
}

// AddStore registers the concrete store S for the (T, C, K) triple. build receives the
// backend context resolved from the registry when the store is first needed.
//
// Registration is add-if-absent: when the triple is already bound the call is skipped
// and false is returned. It is safe to call from independent configuration modules.
func AddStore[T any, C any, K comparable, S MessageStore[T, K]](r *registry.Registry, build func(C) (S, error)) bool {
	if r == nil {
		panic("consistency: nil registry")
	}
	if build == nil {
		panic("consistency: nil store builder")
	}

	key := StoreKeyFor[T, C, K]()

	return r.TryAdd(key, reflect.TypeOf((*S)(nil)).Elem(), func(r *registry.Registry) (any, error) {
		backend, err := registry.Get[C](r)
		if err != nil {
			return nil, fmt.Errorf("consistency: backend context for %v: %w", key, err)
		}
		store, err := build(backend)
		if err != nil {
			return nil, fmt.Errorf("consistency: build %v: %w", key, err)
		}

		return MessageStore[T, K](store), nil
	})
}

// AddDefaultStore registers S for (T, C, DefaultKey).
func AddDefaultStore[T any, C any, S MessageStore[T, DefaultKey]](r *registry.Registry, build func(C) (S, error)) bool {
	return AddStore[T, C, DefaultKey, S](r, build)
}

// StoreType returns the concrete store type bound for (T, C, K).
func StoreType[T any, C any, K comparable](r *registry.Registry) (reflect.Type, bool) {
	return r.Implementation(StoreKeyFor[T, C, K]())
}

// ResolveStore returns the store bound for (T, C, K), building it on first use.
func ResolveStore[T any, C any, K comparable](r *registry.Registry) (MessageStore[T, K], error) {
	key := StoreKeyFor[T, C, K]()
	if !r.Contains(key) {
		return nil, fmt.Errorf("%w: %v", ErrStoreNotRegistered, key)
	}

	return registry.ResolveAs[MessageStore[T, K]](r, key)
}

// ResolveManager builds a Manager over the store bound for (T, C, K). An eventlog.Sink,
// Trace or Metrics provided in the registry is used unless opts override it.
func ResolveManager[T any, C any, K comparable](r *registry.Registry, opts ...ManagerOption[T]) (*Manager[T, K], error) {
	store, err := ResolveStore[T, C, K](r)
	if err != nil {
		return nil, err
	}

	defaults := make([]ManagerOption[T], 0, 2)
	trace, ok, err := optional[Trace](r)
	if err != nil {
		return nil, err
	}
	if !ok {
		var sink eventlog.Sink
		if sink, ok, err = optional[eventlog.Sink](r); err != nil {
			return nil, err
		}
		if ok {
			trace = NewEventTrace(sink)
		}
	}
	if ok {
		defaults = append(defaults, WithTrace[T](trace))
	}
	metrics, ok, err := optional[Metrics](r)
	if err != nil {
		return nil, err
	}
	if ok {
		defaults = append(defaults, WithMetrics[T](metrics))
	}

	return NewManager(store, append(defaults, opts...)...), nil
}

// optional resolves T when it is bound. A bound T that fails to resolve is an error,
// even when the failure is a missing dependency of its factory.
func optional[T any](r *registry.Registry) (T, bool, error) {
	var zero T
	if !r.Contains(registry.TypeKey[T]()) {
		return zero, false, nil
	}
	value, err := registry.Get[T](r)
	if err != nil {
		return value, false, fmt.Errorf("consistency: resolve %v: %w", registry.TypeKey[T](), err)
	}

	return value, true, nil
}
