// Package storetest holds the behavior every consistency.MessageStore backend must show
// when driven through a consistency.Manager.
package storetest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velmie/consistency"
)

// ManagerFactory returns a fresh manager over an empty store.
type ManagerFactory func(t *testing.T) *consistency.Manager[consistency.Message, string]

// NewMessage builds a valid message carrying payload as a JSON string.
func NewMessage(t *testing.T, payload string) *consistency.Message {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	return &consistency.Message{
		Name:    "order.created",
		Payload: raw,
		Headers: json.RawMessage(`{"trace":"abc"}`),
	}
}

// Run executes the conformance suite.
func Run(t *testing.T, newManager ManagerFactory) {
	t.Helper()

	t.Run("CanCreateAndFindByID", func(t *testing.T) {
		manager := newManager(t)
		ctx := context.Background()
		msg := NewMessage(t, "hello")

		result, err := manager.Create(ctx, msg)
		require.NoError(t, err)
		require.True(t, result.Succeeded(), result.String())

		id, err := manager.GetMessageID(ctx, msg)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		found, err := manager.FindByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, found)
		require.Equal(t, id, found.ID)
		require.Equal(t, msg.Name, found.Name)
		require.JSONEq(t, `"hello"`, string(found.Payload))
		require.JSONEq(t, `{"trace":"abc"}`, string(found.Headers))
	})

	t.Run("CanDeleteMessage", func(t *testing.T) {
		manager := newManager(t)
		ctx := context.Background()
		msg := NewMessage(t, "hello")

		result, err := manager.Create(ctx, msg)
		require.NoError(t, err)
		require.True(t, result.Succeeded())

		id, err := manager.GetMessageID(ctx, msg)
		require.NoError(t, err)

		result, err = manager.Delete(ctx, msg)
		require.NoError(t, err)
		require.True(t, result.Succeeded(), result.String())

		found, err := manager.FindByID(ctx, id)
		require.NoError(t, err)
		require.Nil(t, found)

		result, err = manager.Delete(ctx, msg)
		require.NoError(t, err)
		require.False(t, result.Succeeded())
		require.True(t, result.HasCode(consistency.CodeNotFound), result.String())

		result, err = manager.Delete(ctx, msg)
		require.NoError(t, err)
		require.True(t, result.HasCode(consistency.CodeNotFound), result.String())
	})

	t.Run("RejectsDuplicateKey", func(t *testing.T) {
		manager := newManager(t)
		ctx := context.Background()
		first := NewMessage(t, "one")

		result, err := manager.Create(ctx, first)
		require.NoError(t, err)
		require.True(t, result.Succeeded())

		second := NewMessage(t, "two")
		second.ID = first.ID
		result, err = manager.Create(ctx, second)
		require.NoError(t, err)
		require.False(t, result.Succeeded())
		require.True(t, result.HasCode(consistency.CodeDuplicateKey), result.String())
		require.NotEmpty(t, result.Errors()[0].Description)

		found, err := manager.FindByID(ctx, first.ID)
		require.NoError(t, err)
		require.JSONEq(t, `"one"`, string(found.Payload))
	})

	t.Run("FindMissingReturnsNil", func(t *testing.T) {
		manager := newManager(t)

		found, err := manager.FindByID(context.Background(), "0190b7a6-0000-7000-8000-000000000000")
		require.NoError(t, err)
		require.Nil(t, found)
	})

	t.Run("DeleteNeverCreatedReportsNotFound", func(t *testing.T) {
		manager := newManager(t)
		msg := NewMessage(t, "ghost")
		msg.ID = "0190b7a6-0000-7000-8000-000000000001"

		result, err := manager.Delete(context.Background(), msg)
		require.NoError(t, err)
		require.True(t, result.HasCode(consistency.CodeNotFound), result.String())
	})

	t.Run("CanceledCreateLeavesNothing", func(t *testing.T) {
		manager := newManager(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		msg := NewMessage(t, "late")
		msg.ID = "0190b7a6-0000-7000-8000-000000000002"
		result, err := manager.Create(ctx, msg)
		require.ErrorIs(t, err, context.Canceled)
		require.False(t, result.Succeeded())
		require.Empty(t, result.Errors())

		found, err := manager.FindByID(context.Background(), msg.ID)
		require.NoError(t, err)
		require.Nil(t, found)
	})
}
