package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/eventlog"
)

const (
	defaultCleanupLimit      = 10000
	defaultCleanupEvery      = time.Hour
	defaultCleanupLockPrefix = "consistency:cleanup:"
)

// CleanupOptions defines which messages Cleanup removes.
type CleanupOptions struct {
	// Before removes rows created at or before this time (required).
	Before time.Time
	// Limit caps the number of rows deleted per call (0 uses the default).
	Limit int
}

// CleanupResult reports how many rows were removed.
type CleanupResult struct {
	Deleted int64
}

// Cleanup removes messages created at or before opts.Before.
func (t *Table) Cleanup(ctx context.Context, opts CleanupOptions) (CleanupResult, error) {
	if opts.Before.IsZero() {
		return CleanupResult{}, ErrCleanupBeforeRequired
	}
	limit := opts.Limit
	if limit == 0 {
		limit = defaultCleanupLimit
	}
	if limit < 0 {
		return CleanupResult{}, ErrCleanupLimitInvalid
	}

	res, err := t.exec(ctx).ExecContext(ctx, t.queries.cleanup, opts.Before.UTC(), limit)
	if err != nil {
		return CleanupResult{}, classify(t.dialect, "cleanup delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return CleanupResult{}, wrap("cleanup rows", err)
	}

	return CleanupResult{Deleted: affected}, nil
}

// CleanupMaintainerConfig controls periodic cleanup.
type CleanupMaintainerConfig struct {
	// Retention removes rows older than now-retention (required).
	Retention time.Duration
	// CheckEvery is the interval between cleanup runs.
	CheckEvery time.Duration
	// Limit caps the number of rows deleted per run (0 uses the default).
	Limit int
	// LockName is the advisory lock name. Defaults to consistency:cleanup:<table>.
	LockName string
	// Clock overrides the time source.
	Clock consistency.Clock
	// Sink receives cleanup events. Defaults to the table sink.
	Sink eventlog.Sink
	// OnRun is called after every pass, successful or not.
	OnRun func(CleanupResult, error)
}

// CleanupMaintainer runs periodic retention cleanup. When the dialect implements Locker
// only one session across all processes runs a pass at a time.
type CleanupMaintainer struct {
	table *Table
	cfg   CleanupMaintainerConfig
}

// NewCleanupMaintainer creates a maintainer with defaults applied.
func NewCleanupMaintainer(table *Table, cfg CleanupMaintainerConfig) (*CleanupMaintainer, error) {
	if table == nil {
		return nil, ErrDBRequired
	}
	if cfg.Retention <= 0 {
		return nil, ErrCleanupRetentionInvalid
	}
	if cfg.Clock == nil {
		cfg.Clock = table.cfg.Clock
	}
	if cfg.Sink == nil {
		cfg.Sink = table.cfg.Sink
	}
	if cfg.CheckEvery <= 0 {
		cfg.CheckEvery = defaultCleanupEvery
	}
	if cfg.Limit == 0 {
		cfg.Limit = defaultCleanupLimit
	}
	if cfg.Limit < 0 {
		return nil, ErrCleanupLimitInvalid
	}
	if cfg.LockName == "" {
		cfg.LockName = defaultCleanupLockPrefix + table.name
	}

	return &CleanupMaintainer{table: table, cfg: cfg}, nil
}

// Config returns the effective configuration.
func (m *CleanupMaintainer) Config() CleanupMaintainerConfig {
	return m.cfg
}

// Run performs a pass immediately and then every CheckEvery until ctx is canceled.
func (m *CleanupMaintainer) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.CheckEvery)
	defer ticker.Stop()

	m.pass(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.pass(ctx)
		}
	}
}

func (m *CleanupMaintainer) pass(ctx context.Context) {
	res, err := m.Ensure(ctx)
	if err != nil && ctx.Err() == nil {
		cleanupEvents().failed.Log(ctx, m.cfg.Sink, err, m.table.name)
	}
	if m.cfg.OnRun != nil {
		m.cfg.OnRun(res, err)
	}
}

// Ensure executes a single cleanup pass. With a locking dialect the delete runs on the
// connection holding the lock. It returns a zero result without error when another
// session holds the cleanup lock.
func (m *CleanupMaintainer) Ensure(ctx context.Context) (CleanupResult, error) {
	locker, ok := m.table.dialect.(Locker)
	if !ok {
		return m.cleanup(ctx)
	}

	conn, err := m.table.db.Conn(ctx)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("consistency sqlstore: cleanup conn failed: %w", err)
	}
	defer conn.Close()

	locked, err := locker.TryLock(ctx, conn, m.cfg.LockName)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("consistency sqlstore: acquire cleanup lock failed: %w", err)
	}
	if !locked {
		cleanupEvents().lockBusy.Log(ctx, m.cfg.Sink, nil, m.cfg.LockName)

		return CleanupResult{}, nil
	}
	defer func() {
		if err := locker.Unlock(context.WithoutCancel(ctx), conn, m.cfg.LockName); err != nil {
			cleanupEvents().failed.Log(ctx, m.cfg.Sink, err, m.table.name)
		}
	}()

	return m.cleanup(WithExecutor(ctx, conn))
}

func (m *CleanupMaintainer) cleanup(ctx context.Context) (CleanupResult, error) {
	before := m.cfg.Clock.Now().Add(-m.cfg.Retention)
	res, err := m.table.Cleanup(ctx, CleanupOptions{Before: before, Limit: m.cfg.Limit})
	if err != nil {
		return CleanupResult{}, err
	}
	cleanupEvents().done.Log(ctx, m.cfg.Sink, nil, m.table.name, res.Deleted)

	return res, nil
}
