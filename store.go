package consistency

import "context"

// MessageStore persists messages of type T keyed by K.
//
// Implementations own their atomicity and concurrency control. Recognized failures are
// reported with ErrDuplicateKey, ErrNotFound or ErrStoreFailure (wrapped or bare) so
// that callers can match them with errors.Is. Any other error is treated as a defect.
type MessageStore[T any, K comparable] interface {
	// Create persists the message and returns its id. The id is assigned by the store
	// when the message does not carry one yet.
	Create(ctx context.Context, msg *T) (K, error)
	// FindByID returns the message stored under id, or nil when it does not exist.
	FindByID(ctx context.Context, id K) (*T, error)
	// Delete removes the message. It returns ErrNotFound when nothing was removed.
	Delete(ctx context.Context, msg *T) error
	// GetMessageID returns the identity carried by the message.
	GetMessageID(ctx context.Context, msg *T) (K, error)
}

// Accessor reads and assigns message identity for backends that cannot inspect T.
type Accessor[T any, K comparable] struct {
	// ID returns the id carried by the message (zero when unassigned).
	ID func(msg *T) K
	// SetID assigns the id to the message.
	SetID func(msg *T, id K)
	// NewID generates a fresh id for messages created without one.
	NewID KeyGenerator[K]
}

// Valid reports whether every accessor function is set.
func (a Accessor[T, K]) Valid() bool {
	return a.ID != nil && a.SetID != nil && a.NewID != nil
}

// AssignID returns the id carried by msg, generating one when it is zero.
func (a Accessor[T, K]) AssignID(msg *T) (K, error) {
	id := a.ID(msg)
	var zero K
	if id != zero {
		return id, nil
	}

	return a.NewID()
}
