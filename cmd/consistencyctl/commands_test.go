package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velmie/consistency"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, err := runCLI(t, "schema", "--driver", "postgres", "--table", "app.outbox")
	require.NoError(t, err)
	require.Contains(t, out, "CREATE TABLE IF NOT EXISTS app.outbox")
	require.Contains(t, out, "JSONB")

	_, err = runCLI(t, "schema", "--table", "bad-name")
	require.Error(t, err)
}

func TestMessageLifecycleOnSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "outbox.db")
	base := []string{"--driver", "sqlite3", "--dsn", dsn}

	out, err := runCLI(t, append([]string{"migrate"}, base...)...)
	require.NoError(t, err)
	require.Contains(t, out, "outbox_messages")

	out, err = runCLI(t, append([]string{"create", "--name", "order.created", "--payload", `{"id":1}`}, base...)...)
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = runCLI(t, append([]string{"find", id}, base...)...)
	require.NoError(t, err)
	var msg consistency.Message
	require.NoError(t, json.Unmarshal([]byte(out), &msg))
	require.Equal(t, "order.created", msg.Name)
	require.JSONEq(t, `{"id":1}`, string(msg.Payload))

	_, err = runCLI(t, append([]string{"create", "--id", id, "--name", "order.created", "--payload", `{}`}, base...)...)
	require.ErrorContains(t, err, consistency.CodeDuplicateKey)

	_, err = runCLI(t, append([]string{"create", "--name", "order.created", "--payload", `{`}, base...)...)
	require.ErrorContains(t, err, consistency.CodeValidation)

	out, err = runCLI(t, append([]string{"delete", id}, base...)...)
	require.NoError(t, err)
	require.Contains(t, out, id)

	_, err = runCLI(t, append([]string{"delete", id}, base...)...)
	require.ErrorContains(t, err, consistency.CodeNotFound)

	_, err = runCLI(t, append([]string{"find", id}, base...)...)
	require.ErrorContains(t, err, "not found")

	out, err = runCLI(t, append([]string{"cleanup", "--once", "--retention", "1h"}, base...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Deleted 0 messages")
}

func TestCreateWithSchemaValidation(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "order.json")
	require.NoError(t, os.WriteFile(schema, []byte(`{"type":"object","required":["id"]}`), 0o600))
	config := filepath.Join(dir, "consistency.yaml")
	require.NoError(t, os.WriteFile(config, []byte(
		"driver: sqlite3\ndsn: "+filepath.Join(dir, "outbox.db")+"\nschemas:\n  order.created: "+schema+"\n"), 0o600))

	_, err := runCLI(t, "migrate", "--config", config)
	require.NoError(t, err)

	_, err = runCLI(t, "create", "--config", config, "--name", "order.created", "--payload", `{"other":1}`)
	require.ErrorContains(t, err, consistency.CodeValidation)

	_, err = runCLI(t, "create", "--config", config, "--name", "order.created", "--payload", `{"id":1}`)
	require.NoError(t, err)
}

func TestCleanupRequiresRetention(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "outbox.db")
	_, err := runCLI(t, "cleanup", "--once", "--driver", "sqlite3", "--dsn", dsn)
	require.Error(t, err)
}
