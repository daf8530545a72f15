package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/sqlstore"
)

// DriverName is the database/sql driver name.
const DriverName = "mysql"

const (
	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errLockDeadlock    = 1213
	errQueryKilled     = 1317
	errServerShutdown  = 1053
)

const schemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(64) NOT NULL,
	body JSON NOT NULL,
	created_at DATETIME(6) NOT NULL,
	PRIMARY KEY (id),
	INDEX %s (created_at)
)`

// Dialect implements sqlstore.Dialect and sqlstore.Locker for MySQL.
type Dialect struct{}

var (
	_ sqlstore.Dialect = Dialect{}
	_ sqlstore.Locker  = Dialect{}
)

// Name implements sqlstore.Dialect.
func (Dialect) Name() string {
	return DriverName
}

// Rebind implements sqlstore.Dialect. MySQL uses ? placeholders natively.
func (Dialect) Rebind(query string) string {
	return query
}

// Schema implements sqlstore.Dialect.
func (Dialect) Schema(table string) []string {
	return []string{fmt.Sprintf(schemaTemplate, table, sqlstore.IndexName(table, "created_at"))}
}

// CleanupQuery implements sqlstore.Dialect.
func (Dialect) CleanupQuery(table string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE created_at <= ? ORDER BY created_at LIMIT ?", table)
}

// ClassifyError implements sqlstore.Dialect.
func (Dialect) ClassifyError(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errDuplicateEntry:
			return consistency.ErrDuplicateKey
		case errLockWaitTimeout, errLockDeadlock, errQueryKilled, errServerShutdown:
			return consistency.ErrStoreFailure
		}

		return nil
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return consistency.ErrStoreFailure
	}

	return nil
}

// TryLock implements sqlstore.Locker with GET_LOCK.
func (Dialect) TryLock(ctx context.Context, conn *sql.Conn, name string) (bool, error) {
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0)", name).Scan(&got); err != nil {
		return false, err
	}

	return got.Valid && got.Int64 == 1, nil
}

// Unlock implements sqlstore.Locker with RELEASE_LOCK.
func (Dialect) Unlock(ctx context.Context, conn *sql.Conn, name string) error {
	var released sql.NullInt64

	return conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", name).Scan(&released)
}
