package mysql

import (
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/registry"
	"github.com/velmie/consistency/sqlstore"
)

// Context is the backend context for MySQL stores. Provide it to the registry with
// registry.Provide, or with registry.ProvideFactory and Open to let the registry own the
// connection pool.
type Context struct {
	DB      *sql.DB
	Options []sqlstore.Option
}

// Close closes the connection pool.
func (c Context) Close() error {
	if c.DB == nil {
		return nil
	}

	return c.DB.Close()
}

// Open opens a pool for dsn. parseTime is forced on so DATETIME columns scan into
// time.Time.
func Open(dsn string, opts ...sqlstore.Option) (Context, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return Context{}, fmt.Errorf("consistency mysql: parse dsn failed: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return Context{}, fmt.Errorf("consistency mysql: connector failed: %w", err)
	}

	return Context{DB: sql.OpenDB(connector), Options: opts}, nil
}

// NewStore builds a store for T keyed by K.
func NewStore[T any, K comparable](c Context, accessor consistency.Accessor[T, K], opts ...sqlstore.Option) (*sqlstore.Store[T, K], error) {
	return sqlstore.New(c.DB, Dialect{}, accessor, append(append([]sqlstore.Option(nil), c.Options...), opts...)...)
}

// AddStores registers a MySQL store for (T, Context, K). The registry must provide a
// Context.
func AddStores[T any, K comparable](r *registry.Registry, accessor consistency.Accessor[T, K], opts ...sqlstore.Option) bool {
	return consistency.AddStore[T, Context, K](r, func(c Context) (*sqlstore.Store[T, K], error) {
		return NewStore(c, accessor, opts...)
	})
}
