package registry

import "errors"

var (
	// ErrNotRegistered is returned when resolving a key without a binding.
	ErrNotRegistered = errors.New("registry: no binding registered")
	// ErrTypeMismatch is returned when a resolved instance has an unexpected type.
	ErrTypeMismatch = errors.New("registry: resolved instance has unexpected type")
	// ErrNilFactory is returned when TryAdd is called without a factory.
	ErrNilFactory = errors.New("registry: factory is required")
	// ErrCycle is returned when a factory resolves a binding that is still being built.
	ErrCycle = errors.New("registry: dependency cycle")
	// ErrClosed is returned when resolving from a closed registry.
	ErrClosed = errors.New("registry: closed")
)
