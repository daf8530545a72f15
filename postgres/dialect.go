package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/sqlstore"
)

// DriverName is the database/sql driver name.
const DriverName = "postgres"

const (
	codeUniqueViolation      = pq.ErrorCode("23505")
	codeSerializationFailure = pq.ErrorCode("40001")
	codeDeadlockDetected     = pq.ErrorCode("40P01")
	codeLockNotAvailable     = pq.ErrorCode("55P03")
	codeAdminShutdown        = pq.ErrorCode("57P01")
	classConnection          = pq.ErrorClass("08")
)

const tableTemplate = `CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	body JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

const indexTemplate = `CREATE INDEX IF NOT EXISTS %s ON %s (created_at)`

// Dialect implements sqlstore.Dialect and sqlstore.Locker for PostgreSQL.
type Dialect struct{}

var (
	_ sqlstore.Dialect = Dialect{}
	_ sqlstore.Locker  = Dialect{}
)

// Name implements sqlstore.Dialect.
func (Dialect) Name() string {
	return DriverName
}

// Rebind implements sqlstore.Dialect.
func (Dialect) Rebind(query string) string {
	return sqlstore.RebindDollar(query)
}

// Schema implements sqlstore.Dialect.
func (Dialect) Schema(table string) []string {
	return []string{
		fmt.Sprintf(tableTemplate, table),
		fmt.Sprintf(indexTemplate, sqlstore.IndexName(table, "created_at"), table),
	}
}

// CleanupQuery implements sqlstore.Dialect.
func (Dialect) CleanupQuery(table string) string {
	return fmt.Sprintf(
		"DELETE FROM %s WHERE id IN (SELECT id FROM %s WHERE created_at <= $1 ORDER BY created_at LIMIT $2)",
		table,
		table,
	)
}

// ClassifyError implements sqlstore.Dialect.
func (Dialect) ClassifyError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch {
	case pqErr.Code == codeUniqueViolation:
		return consistency.ErrDuplicateKey
	case pqErr.Code.Class() == classConnection,
		pqErr.Code == codeSerializationFailure,
		pqErr.Code == codeDeadlockDetected,
		pqErr.Code == codeLockNotAvailable,
		pqErr.Code == codeAdminShutdown:
		return consistency.ErrStoreFailure
	}

	return nil
}

// TryLock implements sqlstore.Locker with a session-level advisory lock.
func (Dialect) TryLock(ctx context.Context, conn *sql.Conn, name string) (bool, error) {
	var got bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", name).Scan(&got); err != nil {
		return false, err
	}

	return got, nil
}

// Unlock implements sqlstore.Locker.
func (Dialect) Unlock(ctx context.Context, conn *sql.Conn, name string) error {
	var released bool

	return conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock(hashtext($1))", name).Scan(&released)
}
