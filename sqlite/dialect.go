package sqlite

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/sqlstore"
)

// DriverName is the database/sql driver name.
const DriverName = "sqlite3"

const tableTemplate = `CREATE TABLE IF NOT EXISTS %s (
	id TEXT NOT NULL PRIMARY KEY,
	body TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

// Dialect implements sqlstore.Dialect for SQLite.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

// Name implements sqlstore.Dialect.
func (Dialect) Name() string {
	return DriverName
}

// Rebind implements sqlstore.Dialect.
func (Dialect) Rebind(query string) string {
	return query
}

// Schema implements sqlstore.Dialect. SQLite qualifies the index name rather than the
// indexed table.
func (Dialect) Schema(table string) []string {
	schema, name := sqlstore.SplitTableName(table)
	index := sqlstore.IndexName(name, "created_at")
	if schema != "" {
		index = schema + "." + index
	}

	return []string{
		fmt.Sprintf(tableTemplate, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (created_at)", index, name),
	}
}

// CleanupQuery implements sqlstore.Dialect.
func (Dialect) CleanupQuery(table string) string {
	return fmt.Sprintf(
		"DELETE FROM %s WHERE id IN (SELECT id FROM %s WHERE created_at <= ? ORDER BY created_at LIMIT ?)",
		table,
		table,
	)
}

// ClassifyError implements sqlstore.Dialect.
func (Dialect) ClassifyError(err error) error {
	var liteErr sqlite3.Error
	if !errors.As(err, &liteErr) {
		return nil
	}

	switch liteErr.Code {
	case sqlite3.ErrConstraint:
		if liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return consistency.ErrDuplicateKey
		}
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return consistency.ErrStoreFailure
	}

	return nil
}
