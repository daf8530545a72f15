package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/velmie/consistency/metrics"
	"github.com/velmie/consistency/sqlstore"
)

const metricsShutdownTimeout = 5 * time.Second

func newCleanupCmd(a *app) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete messages older than the retention period",
		Long: `Cleanup deletes messages created before now-retention, at most --limit rows per pass.
Without --once it repeats every --check-every until interrupted. On MySQL and PostgreSQL
an advisory lock keeps concurrent runs from overlapping.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := a.cfg.Cleanup
			flags := cmd.Flags()
			if flags.Changed("retention") {
				cc.Retention, _ = flags.GetDuration("retention")
			}
			if flags.Changed("check-every") {
				cc.CheckEvery, _ = flags.GetDuration("check-every")
			}
			if flags.Changed("limit") {
				cc.Limit, _ = flags.GetInt("limit")
			}
			if flags.Changed("lock-name") {
				cc.LockName, _ = flags.GetString("lock-name")
			}
			if flags.Changed("metrics-addr") {
				cc.MetricsAddr, _ = flags.GetString("metrics-addr")
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			prom, err := metrics.New(reg, metrics.Options{ConstLabels: prometheus.Labels{"table": a.cfg.Table}})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return a.withBackendMetrics(cmd, prom, func(ctx context.Context, b *backend) error {
				maintainer, err := sqlstore.NewCleanupMaintainer(b.table, sqlstore.CleanupMaintainerConfig{
					Retention:  cc.Retention,
					CheckEvery: cc.CheckEvery,
					Limit:      cc.Limit,
					LockName:   cc.LockName,
					OnRun:      prom.ObserveCleanup,
				})
				if err != nil {
					return fmt.Errorf("init maintainer: %w", err)
				}

				if once {
					res, err := maintainer.Ensure(ctx)
					prom.ObserveCleanup(res, err)
					if err != nil {
						return fmt.Errorf("cleanup: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d messages\n", res.Deleted)

					return nil
				}

				if cc.MetricsAddr != "" {
					shutdown := serveMetrics(ctx, a, cc.MetricsAddr, reg)
					defer shutdown()
				}
				a.logger.InfoContext(ctx, "cleanup maintainer started",
					"table", b.table.Name(), "retention", cc.Retention, "check_every", maintainer.Config().CheckEvery)

				if err := maintainer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("run maintainer: %w", err)
				}

				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.Duration("retention", 0, "Delete messages older than this duration (required)")
	flags.Duration("check-every", time.Hour, "Interval between cleanup passes")
	flags.Int("limit", 0, "Max rows deleted per pass (0 uses the default)")
	flags.String("lock-name", "", "Advisory lock name (default consistency:cleanup:<table>)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	flags.BoolVar(&once, "once", false, "Run a single pass and exit")

	return cmd
}

func serveMetrics(ctx context.Context, a *app, addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.ErrorContext(ctx, "metrics server failed", "addr", addr, "err", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
