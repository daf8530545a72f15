package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Table is the message table shared by every Store built over it. It owns the DDL and
// retention cleanup, which do not depend on the message type.
type Table struct {
	db      *sql.DB
	dialect Dialect
	cfg     Config
	name    string
	queries queries
}

// NewTable validates configuration and prepares the table queries.
func NewTable(db *sql.DB, dialect Dialect, opts ...Option) (*Table, error) {
	if db == nil {
		return nil, ErrDBRequired
	}
	if dialect == nil {
		return nil, ErrDialectRequired
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	name, err := SanitizeTableName(cfg.Table)
	if err != nil {
		return nil, err
	}

	return &Table{
		db:      db,
		dialect: dialect,
		cfg:     cfg,
		name:    name,
		queries: newQueries(dialect, name),
	}, nil
}

// Name returns the sanitized table name.
func (t *Table) Name() string {
	return t.name
}

// Dialect returns the table dialect.
func (t *Table) Dialect() Dialect {
	return t.dialect
}

// DB returns the underlying database handle.
func (t *Table) DB() *sql.DB {
	return t.db
}

// Schema returns the DDL statements for the table.
func (t *Table) Schema() []string {
	return t.dialect.Schema(t.name)
}

// Migrate creates the table and its indexes when they do not exist.
func (t *Table) Migrate(ctx context.Context) error {
	for _, stmt := range t.Schema() {
		if _, err := t.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("consistency sqlstore: migrate %s failed: %w", t.name, err)
		}
	}

	return nil
}

// Count returns the number of stored messages.
func (t *Table) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := t.exec(ctx).QueryRowContext(ctx, t.queries.count).Scan(&count); err != nil {
		return 0, classify(t.dialect, "count", err)
	}

	return count, nil
}

func (t *Table) exec(ctx context.Context) Executor {
	if exec, ok := ExecutorFrom(ctx); ok {
		return exec
	}

	return t.db
}
