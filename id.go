package consistency

import (
	"fmt"

	"github.com/google/uuid"
)

// KeyGenerator creates new message ids.
type KeyGenerator[K comparable] func() (K, error)

// StringKeys generates canonical UUID v7 strings. UUID v7 ids sort by creation time,
// which keeps B-tree primary keys append-mostly.
func StringKeys() KeyGenerator[string] {
	return func() (string, error) {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("consistency: generate id failed: %w", err)
		}

		return id.String(), nil
	}
}

// UUIDKeys generates UUID v7 values for stores keyed by uuid.UUID.
func UUIDKeys() KeyGenerator[uuid.UUID] {
	return func() (uuid.UUID, error) {
		id, err := uuid.NewV7()
		if err != nil {
			return uuid.Nil, fmt.Errorf("consistency: generate id failed: %w", err)
		}

		return id, nil
	}
}
