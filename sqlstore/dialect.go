package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/velmie/consistency"
)

// Dialect adapts the store to a database engine. Queries are written with ? placeholders
// and passed through Rebind before use.
type Dialect interface {
	// Name returns the driver name registered with database/sql.
	Name() string
	// Rebind rewrites ? placeholders into the engine's syntax.
	Rebind(query string) string
	// Schema returns the DDL statements creating table and its indexes.
	Schema(table string) []string
	// CleanupQuery deletes at most limit rows created at or before a cutoff.
	// Arguments are (before, limit).
	CleanupQuery(table string) string
	// ClassifyError maps a driver error onto consistency.ErrDuplicateKey or
	// consistency.ErrStoreFailure. It returns nil for errors it does not recognize.
	ClassifyError(err error) error
}

// Locker is implemented by dialects that support session-level advisory locks.
type Locker interface {
	// TryLock attempts to take name on conn without waiting.
	TryLock(ctx context.Context, conn *sql.Conn, name string) (bool, error)
	// Unlock releases name on conn.
	Unlock(ctx context.Context, conn *sql.Conn, name string) error
}

// classify attaches a failure category to err. Cancellation passes through untouched so
// that callers can tell it apart from store failures.
func classify(d Dialect, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if category := d.ClassifyError(err); category != nil {
		return wrapCategory(op, category, err)
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return wrapCategory(op, consistency.ErrStoreFailure, err)
	}

	return wrap(op, err)
}
