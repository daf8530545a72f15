package sqlstore

import (
	"context"
	"database/sql"
)

// Executor runs statements. *sql.DB, *sql.Tx and *sql.Conn satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executorKey struct{}

// WithExecutor returns a context whose store calls run on exec. Use it to write messages
// inside the caller's business transaction:
//
//	tx, _ := db.BeginTx(ctx, nil)
//	result, err := manager.Create(sqlstore.WithExecutor(ctx, tx), msg)
func WithExecutor(ctx context.Context, exec Executor) context.Context {
	if exec == nil {
		return ctx
	}

	return context.WithValue(ctx, executorKey{}, exec)
}

// ExecutorFrom returns the executor attached to ctx, if any.
func ExecutorFrom(ctx context.Context) (Executor, bool) {
	exec, ok := ctx.Value(executorKey{}).(Executor)

	return exec, ok
}
