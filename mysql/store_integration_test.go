//go:build integration

package mysql_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/internal/storetest"
	"github.com/velmie/consistency/internal/testutil"
	"github.com/velmie/consistency/mysql"
	"github.com/velmie/consistency/registry"
	"github.com/velmie/consistency/sqlstore"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func TestStoreConformanceIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test disabled in short mode")
	}

	ctx := context.Background()
	database := testutil.StartMySQL(t, ctx)

	n := 0
	storetest.Run(t, func(t *testing.T) *consistency.Manager[consistency.Message, string] {
		n++
		store, err := mysql.NewStore(mysql.Context{DB: database.DB}, consistency.MessageAccessor(),
			sqlstore.WithTable(fmt.Sprintf("outbox_conformance_%d", n)))
		require.NoError(t, err)
		require.NoError(t, store.Table().Migrate(ctx))

		return consistency.NewManager[consistency.Message, string](store)
	})
}

func TestStoreTransactionalCreateIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test disabled in short mode")
	}

	ctx := context.Background()
	database := testutil.StartMySQL(t, ctx)

	r := registry.New()
	t.Cleanup(func() { _ = r.Close() })
	registry.Provide(r, mysql.Context{DB: database.DB})
	require.True(t, mysql.AddStores[consistency.Message, string](r, consistency.MessageAccessor()))

	manager, err := consistency.ResolveManager[consistency.Message, mysql.Context, string](r)
	require.NoError(t, err)
	store := manager.Store().(*sqlstore.Store[consistency.Message, string])
	require.NoError(t, store.Table().Migrate(ctx))

	tx, err := database.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	msg := &consistency.Message{Name: "order.created", Payload: json.RawMessage(`{"id":1}`)}
	result, err := manager.Create(sqlstore.WithExecutor(ctx, tx), msg)
	require.NoError(t, err)
	require.True(t, result.Succeeded(), result.String())
	require.NoError(t, tx.Rollback())

	found, err := manager.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	require.Nil(t, found)

	tx, err = database.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	result, err = manager.Create(sqlstore.WithExecutor(ctx, tx), msg)
	require.NoError(t, err)
	require.True(t, result.Succeeded(), result.String())
	require.NoError(t, tx.Commit())

	found, err = manager.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.JSONEq(t, `{"id":1}`, string(found.Payload))
}

func TestCleanupMaintainerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test disabled in short mode")
	}

	ctx := context.Background()
	database := testutil.StartMySQL(t, ctx)

	clock := &fixedClock{now: time.Now().UTC().Add(-2 * time.Hour)}
	store, err := mysql.NewStore(mysql.Context{DB: database.DB}, consistency.MessageAccessor(), sqlstore.WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, store.Table().Migrate(ctx))

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, &consistency.Message{Name: "old", Payload: json.RawMessage(`{}`)})
		require.NoError(t, err)
	}
	clock.now = time.Now().UTC()
	_, err = store.Create(ctx, &consistency.Message{Name: "recent", Payload: json.RawMessage(`{}`)})
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

func TestCleanupLockBusyIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test disabled in short mode")
	}

	ctx := context.Background()
	database := testutil.StartMySQL(t, ctx)

	store, err := mysql.NewStore(mysql.Context{DB: database.DB}, consistency.MessageAccessor())
	require.NoError(t, err)
	require.NoError(t, store.Table().Migrate(ctx))

	maintainer, err := sqlstore.NewCleanupMaintainer(store.Table(), sqlstore.CleanupMaintainerConfig{Retention: time.Hour})
	require.NoError(t, err)

	conn, err := database.DB.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()
	locked, err := mysql.Dialect{}.TryLock(ctx, conn, maintainer.Config().LockName)
	require.NoError(t, err)
	require.True(t, locked)

	res, err := maintainer.Ensure(ctx)
	require.NoError(t, err)
	require.Zero(t, res.Deleted)

	require.NoError(t, mysql.Dialect{}.Unlock(ctx, conn, maintainer.Config().LockName))
}
