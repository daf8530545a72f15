package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	cfg        Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "consistencyctl",
		Short:         "Manage outbox message tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg)

			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file (default ./"+defaultConfigFile+" when present)")
	flags.String("driver", "", "Database driver: mysql, postgres or sqlite3")
	flags.String("dsn", "", "Data source name")
	flags.String("table", "", "Message table (schema.table allowed)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")

	root.AddCommand(
		newSchemaCmd(a),
		newMigrateCmd(a),
		newCreateCmd(a),
		newFindCmd(a),
		newDeleteCmd(a),
		newCleanupCmd(a),
	)

	return root
}

func newLogger(w io.Writer, cfg Config) *slog.Logger {
	level, _ := cfg.level()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
