package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/registry"
	"github.com/velmie/consistency/sqlstore"
)

// Context is the backend context for SQLite stores.
type Context struct {
	DB      *sql.DB
	Options []sqlstore.Option
}

// Close closes the database.
func (c Context) Close() error {
	if c.DB == nil {
		return nil
	}

	return c.DB.Close()
}

// Open opens the database at dsn (a file path or file: URI). SQLite allows a single
// writer, so the pool is limited to one connection.
func Open(dsn string, opts ...sqlstore.Option) (Context, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return Context{}, fmt.Errorf("consistency sqlite: open failed: %w", err)
	}
	db.SetMaxOpenConns(1)

	return Context{DB: db, Options: opts}, nil
}

// NewStore builds a store for T keyed by K.
func NewStore[T any, K comparable](c Context, accessor consistency.Accessor[T, K], opts ...sqlstore.Option) (*sqlstore.Store[T, K], error) {
	return sqlstore.New(c.DB, Dialect{}, accessor, append(append([]sqlstore.Option(nil), c.Options...), opts...)...)
}

// AddStores registers a SQLite store for (T, Context, K). The registry must provide a
// Context.
func AddStores[T any, K comparable](r *registry.Registry, accessor consistency.Accessor[T, K], opts ...sqlstore.Option) bool {
	return consistency.AddStore[T, Context, K](r, func(c Context) (*sqlstore.Store[T, K], error) {
		return NewStore(c, accessor, opts...)
	})
}
