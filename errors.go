package consistency

import "errors"

var (
	// ErrDuplicateKey is returned by stores when a message identity already exists.
	ErrDuplicateKey = errors.New("consistency: duplicate message key")
	// ErrNotFound is returned by stores when the target message does not exist.
	ErrNotFound = errors.New("consistency: message not found")
	// ErrStoreFailure marks a recognized, expected persistence failure (lost connection,
	// deadlock, lock timeout). Stores wrap driver errors with it.
	ErrStoreFailure = errors.New("consistency: store failure")
	// ErrMessageRequired is returned when a nil message is passed to a query operation.
	ErrMessageRequired = errors.New("consistency: message is required")
	// ErrIDRequired is returned when a zero message id is passed to FindByID.
	ErrIDRequired = errors.New("consistency: message id is required")
	// ErrMessageNameRequired is returned when Message.Name is empty.
	ErrMessageNameRequired = errors.New("consistency: message name is required")
	// ErrPayloadRequired is returned when Message.Payload is empty.
	ErrPayloadRequired = errors.New("consistency: message payload is required")
	// ErrInvalidPayload is returned when Message.Payload is not valid JSON.
	ErrInvalidPayload = errors.New("consistency: message payload must be valid JSON")
	// ErrInvalidHeaders is returned when Message.Headers is not valid JSON.
	ErrInvalidHeaders = errors.New("consistency: message headers must be valid JSON")
	// ErrStoreNotRegistered is returned when no store is bound for a triple.
	ErrStoreNotRegistered = errors.New("consistency: no store registered")
)
