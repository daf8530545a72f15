package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/eventlog"
	"github.com/velmie/consistency/sqlstore"
)

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the DDL for the configured driver and table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dialect, err := dialectFor(a.cfg.Driver)
			if err != nil {
				return err
			}
			table, err := sqlstore.SanitizeTableName(a.cfg.Table)
			if err != nil {
				return err
			}
			for _, stmt := range dialect.Schema(table) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", stmt)
			}

			return nil
		},
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the message table when it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *backend) error {
				if err := b.table.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Table %s is ready\n", b.table.Name())

				return nil
			})
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var id, name, payload, headers string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg := &consistency.Message{ID: id, Name: name, Payload: json.RawMessage(payload)}
			if headers != "" {
				msg.Headers = json.RawMessage(headers)
			}

			return a.withBackend(cmd, func(ctx context.Context, b *backend) error {
				result, err := b.manager.Create(ctx, msg)
				if err != nil {
					return err
				}
				if err := result.Err(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg.ID)

				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Message id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "Message name, e.g. order.created")
	cmd.Flags().StringVar(&payload, "payload", "", "JSON payload")
	cmd.Flags().StringVar(&headers, "headers", "", "JSON headers")

	return cmd
}

func newFindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find [id]",
		Short: "Print a message as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *backend) error {
				msg, err := b.manager.FindByID(ctx, args[0])
				if err != nil {
					return err
				}
				if msg == nil {
					return fmt.Errorf("message %s not found", args[0])
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")

				return enc.Encode(msg)
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd, func(ctx context.Context, b *backend) error {
				result, err := b.manager.Delete(ctx, &consistency.Message{ID: args[0]})
				if err != nil {
					return err
				}
				if err := result.Err(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Message deleted: %s\n", args[0])

				return nil
			})
		},
	}
}

// withBackend opens the configured backend, scopes log events to the command and
// closes the backend afterwards.
func (a *app) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *backend) error) error {
	return a.withBackendMetrics(cmd, nil, fn)
}

func (a *app) withBackendMetrics(cmd *cobra.Command, metrics consistency.Metrics, fn func(ctx context.Context, b *backend) error) error {
	b, err := openBackend(a.cfg, a.logger, metrics)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = eventlog.WithScope(ctx, slogCommand(cmd))

	return errors.Join(fn(ctx, b), b.Close())
}

func slogCommand(cmd *cobra.Command) slog.Attr {
	return slog.String("command", strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()+" "))
}
