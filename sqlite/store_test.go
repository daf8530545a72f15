package sqlite_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/internal/storetest"
	"github.com/velmie/consistency/registry"
	"github.com/velmie/consistency/sqlite"
	"github.com/velmie/consistency/sqlstore"
)

var databaseSeq atomic.Int64

func openMemory(t *testing.T, opts ...sqlstore.Option) sqlite.Context {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, databaseSeq.Add(1))
	c, err := sqlite.Open(dsn, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func newMessageStore(t *testing.T, c sqlite.Context, opts ...sqlstore.Option) *sqlstore.Store[consistency.Message, string] {
	t.Helper()

	store, err := sqlite.NewStore(c, consistency.MessageAccessor(), opts...)
	require.NoError(t, err)
	require.NoError(t, store.Table().Migrate(context.Background()))

	return store
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) *consistency.Manager[consistency.Message, string] {
		store := newMessageStore(t, openMemory(t))

		return consistency.NewManager[consistency.Message, string](store)
	})
}

func TestStoreDuplicateIsClassified(t *testing.T) {
	store := newMessageStore(t, openMemory(t))
	ctx := context.Background()

	msg := storetest.NewMessage(t, "one")
	msg.ID = "m-1"
	_, err := store.Create(ctx, msg)
	require.NoError(t, err)

	_, err = store.Create(ctx, msg)
	require.ErrorIs(t, err, consistency.ErrDuplicateKey)

	var liteErr sqlite3.Error
	require.True(t, errors.As(err, &liteErr), "driver error must stay reachable")
}

func TestStoreCreateLeavesIDUnsetOnFailure(t *testing.T) {
	c := openMemory(t)
	store, err := sqlite.NewStore(c, consistency.MessageAccessor())
	require.NoError(t, err)

	msg := storetest.NewMessage(t, "no table yet")
	_, err = store.Create(context.Background(), msg)
	require.Error(t, err)
	require.False(t, errors.Is(err, consistency.ErrDuplicateKey))
	require.Empty(t, msg.ID)
}

func TestStoreJoinsCallerTransaction(t *testing.T) {
	c := openMemory(t)
	store := newMessageStore(t, c)
	manager := consistency.NewManager[consistency.Message, string](store)
	ctx := context.Background()

	tx, err := c.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	msg := storetest.NewMessage(t, "rolled back")
	result, err := manager.Create(sqlstore.WithExecutor(ctx, tx), msg)
	require.NoError(t, err)
	require.True(t, result.Succeeded(), result.String())
	require.NoError(t, tx.Rollback())

	found, err := manager.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	require.Nil(t, found)

	tx, err = c.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	result, err = manager.Create(sqlstore.WithExecutor(ctx, tx), msg)
	require.NoError(t, err)
	require.True(t, result.Succeeded(), result.String())
	require.NoError(t, tx.Commit())

	found, err = manager.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func TestCleanupMaintainer(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := newMessageStore(t, openMemory(t), sqlstore.WithClock(clock))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, storetest.NewMessage(t, "old"))
		require.NoError(t, err)
	}
	clock.now = clock.now.Add(3 * time.Hour)
	_, err := store.Create(ctx, storetest.NewMessage(t, "recent"))
	require.NoError(t, err)

	maintainer, err := sqlstore.NewCleanupMaintainer(store.Table(), sqlstore.CleanupMaintainerConfig{
		Retention: time.Hour,
		Limit:     2,
	})
	require.NoError(t, err)

	res, err := maintainer.Ensure(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Deleted)

	res, err = maintainer.Ensure(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Deleted)

	count, err := store.Table().Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

// sessionLock is a Locker over the sqlite dialect that records the locking connection.
type sessionLock struct {
	sqlite.Dialect
	held *sql.Conn
}

func (l *sessionLock) TryLock(_ context.Context, conn *sql.Conn, _ string) (bool, error) {
	l.held = conn
	return true, nil
}

func (l *sessionLock) Unlock(_ context.Context, conn *sql.Conn, _ string) error {
	if conn != l.held {
		return errors.New("unlock on a different connection")
	}
	l.held = nil
	return nil
}

func TestCleanupMaintainerDeletesOnLockConnection(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := openMemory(t)
	lock := &sessionLock{}
	table, err := sqlstore.NewTable(c.DB, lock, sqlstore.WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, table.Migrate(context.Background()))
	store, err := sqlstore.NewWithTable(table, consistency.MessageAccessor())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 2; i++ {
		_, err := store.Create(ctx, storetest.NewMessage(t, "old"))
		require.NoError(t, err)
	}
	clock.now = clock.now.Add(2 * time.Hour)

	maintainer, err := sqlstore.NewCleanupMaintainer(table, sqlstore.CleanupMaintainerConfig{
		Retention: time.Hour,
		Clock:     clock,
	})
	require.NoError(t, err)

	// The pool holds a single connection, so a delete outside the locked session would
	// wait until the deadline.
	res, err := maintainer.Ensure(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Deleted)
	require.Nil(t, lock.held)
}

func TestCleanupMaintainerRunStopsOnCancel(t *testing.T) {
	store := newMessageStore(t, openMemory(t))
	passes := make(chan error, 16)
	maintainer, err := sqlstore.NewCleanupMaintainer(store.Table(), sqlstore.CleanupMaintainerConfig{
		Retention:  time.Hour,
		CheckEvery: 10 * time.Millisecond,
		OnRun: func(_ sqlstore.CleanupResult, err error) {
			select {
			case passes <- err:
			default:
			}
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- maintainer.Run(ctx) }()

	require.NoError(t, <-passes)
	require.NoError(t, <-passes)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("maintainer did not stop after cancel")
	}
}

func TestTableCleanupValidation(t *testing.T) {
	store := newMessageStore(t, openMemory(t))
	ctx := context.Background()

	_, err := store.Table().Cleanup(ctx, sqlstore.CleanupOptions{})
	require.ErrorIs(t, err, sqlstore.ErrCleanupBeforeRequired)

	_, err = store.Table().Cleanup(ctx, sqlstore.CleanupOptions{Before: time.Now(), Limit: -1})
	require.ErrorIs(t, err, sqlstore.ErrCleanupLimitInvalid)
}

type note struct {
	Seq  int64  `json:"seq"`
	Text string `json:"text"`
}

func TestAddStoresWithRegistryOwnedContext(t *testing.T) {
	r := registry.New()
	dsn := fmt.Sprintf("file:registry_%d?mode=memory&cache=shared", databaseSeq.Add(1))
	registry.ProvideFactory(r, func(*registry.Registry) (sqlite.Context, error) {
		return sqlite.Open(dsn, sqlstore.WithTable("notes"))
	})

	var seq atomic.Int64
	require.True(t, sqlite.AddStores[note, int64](r, consistency.Accessor[note, int64]{
		ID:    func(n *note) int64 { return n.Seq },
		SetID: func(n *note, id int64) { n.Seq = id },
		NewID: func() (int64, error) { return seq.Add(1), nil },
	}))

	manager, err := consistency.ResolveManager[note, sqlite.Context, int64](r)
	require.NoError(t, err)
	store := manager.Store().(*sqlstore.Store[note, int64])
	require.Equal(t, "notes", store.Table().Name())
	ctx := context.Background()
	require.NoError(t, store.Table().Migrate(ctx))

	n := &note{Text: "hello"}
	result, err := manager.Create(ctx, n)
	require.NoError(t, err)
	require.True(t, result.Succeeded(), result.String())
	require.EqualValues(t, 1, n.Seq)

	found, err := manager.FindByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, n, found)

	require.NoError(t, r.Close())
	_, err = store.Table().Count(ctx)
	require.Error(t, err, "registry must close the pool it opened")
}

func TestStoreBodyIsJSON(t *testing.T) {
	c := openMemory(t)
	store := newMessageStore(t, c)
	ctx := context.Background()

	msg := storetest.NewMessage(t, "hello")
	id, err := store.Create(ctx, msg)
	require.NoError(t, err)

	var body string
	require.NoError(t, c.DB.QueryRowContext(ctx, "SELECT body FROM outbox_messages WHERE id = ?", id).Scan(&body))
	var decoded consistency.Message
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	require.Equal(t, id, decoded.ID)
}
