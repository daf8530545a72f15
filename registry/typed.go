package registry

import (
	"fmt"
	"reflect"
)

// TypeKey returns the registry key used for values of type T.
func TypeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Provide binds value as the instance for type T unless T is already bound.
func Provide[T any](r *Registry, value T) bool {
	return r.TryAddInstance(TypeKey[T](), value)
}

// ProvideFactory binds a factory for type T unless T is already bound.
func ProvideFactory[T any](r *Registry, factory func(r *Registry) (T, error)) bool {
	return r.TryAdd(TypeKey[T](), TypeKey[T](), func(r *Registry) (any, error) {
		return factory(r)
	})
}

// Get resolves the instance bound for type T.
func Get[T any](r *Registry) (T, error) {
	return ResolveAs[T](r, TypeKey[T]())
}

// ResolveAs resolves key and asserts the instance to T.
func ResolveAs[T any](r *Registry, key any) (T, error) {
	var zero T
	instance, err := r.Resolve(key)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %v is %T", ErrTypeMismatch, key, instance)
	}

	return typed, nil
}
