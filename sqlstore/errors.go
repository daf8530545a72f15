package sqlstore

import "errors"

var (
	// ErrDBRequired is returned when a nil *sql.DB is provided.
	ErrDBRequired = errors.New("consistency sqlstore: db is required")
	// ErrDialectRequired is returned when a nil Dialect is provided.
	ErrDialectRequired = errors.New("consistency sqlstore: dialect is required")
	// ErrAccessorRequired is returned when the accessor has unset functions.
	ErrAccessorRequired = errors.New("consistency sqlstore: accessor is incomplete")
	// ErrTableNameRequired is returned when the table name is empty.
	ErrTableNameRequired = errors.New("consistency sqlstore: table name is required")
	// ErrInvalidTableName is returned when the table name has disallowed characters.
	ErrInvalidTableName = errors.New("consistency sqlstore: invalid table name")
	// ErrCleanupBeforeRequired is returned when cleanup cutoff is missing.
	ErrCleanupBeforeRequired = errors.New("consistency sqlstore: cleanup before time is required")
	// ErrCleanupLimitInvalid is returned when cleanup limit is negative.
	ErrCleanupLimitInvalid = errors.New("consistency sqlstore: cleanup limit must be non-negative")
	// ErrCleanupRetentionInvalid is returned when cleanup retention is not positive.
	ErrCleanupRetentionInvalid = errors.New("consistency sqlstore: cleanup retention must be positive")
)
