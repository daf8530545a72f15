package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/eventlog"
	"github.com/velmie/consistency/jsonschema"
	"github.com/velmie/consistency/mysql"
	"github.com/velmie/consistency/postgres"
	"github.com/velmie/consistency/registry"
	"github.com/velmie/consistency/sqlite"
	"github.com/velmie/consistency/sqlstore"
)

type backend struct {
	registry *registry.Registry
	manager  *consistency.Manager[consistency.Message, string]
	table    *sqlstore.Table
}

func (b *backend) Close() error {
	return b.registry.Close()
}

func dialectFor(driver string) (sqlstore.Dialect, error) {
	switch driver {
	case mysql.DriverName:
		return mysql.Dialect{}, nil
	case postgres.DriverName:
		return postgres.Dialect{}, nil
	case sqlite.DriverName:
		return sqlite.Dialect{}, nil
	}

	return nil, fmt.Errorf("unsupported driver %q", driver)
}

// openBackend wires the configured driver into a registry. The registry owns the
// connection pool and closes it in backend.Close.
func openBackend(cfg Config, logger *slog.Logger, metrics consistency.Metrics) (*backend, error) {
	sink := eventlog.NewSlogSink(logger)
	r := registry.New()
	registry.Provide[eventlog.Sink](r, sink)
	if metrics != nil {
		registry.Provide(r, metrics)
	}

	storeOpts := []sqlstore.Option{sqlstore.WithTable(cfg.Table), sqlstore.WithSink(sink)}
	accessor := consistency.MessageAccessor()

	managerOpts := []consistency.ManagerOption[consistency.Message]{
		consistency.WithValidator[consistency.Message](consistency.ValidateMessage),
	}
	if len(cfg.Schemas) > 0 {
		validator := jsonschema.New()
		for name, path := range cfg.Schemas {
			if err := validator.RegisterFile(name, path); err != nil {
				return nil, err
			}
		}
		managerOpts = append(managerOpts, consistency.WithValidator[consistency.Message](validator.Validate))
	}

	switch cfg.Driver {
	case mysql.DriverName:
		registry.ProvideFactory(r, func(*registry.Registry) (mysql.Context, error) {
			return mysql.Open(cfg.DSN, storeOpts...)
		})
		mysql.AddStores[consistency.Message, string](r, accessor)

		return resolveBackend[mysql.Context](r, managerOpts)
	case postgres.DriverName:
		registry.ProvideFactory(r, func(*registry.Registry) (postgres.Context, error) {
			return postgres.Open(cfg.DSN, storeOpts...)
		})
		postgres.AddStores[consistency.Message, string](r, accessor)

		return resolveBackend[postgres.Context](r, managerOpts)
	case sqlite.DriverName:
		registry.ProvideFactory(r, func(*registry.Registry) (sqlite.Context, error) {
			return sqlite.Open(cfg.DSN, storeOpts...)
		})
		sqlite.AddStores[consistency.Message, string](r, accessor)

		return resolveBackend[sqlite.Context](r, managerOpts)
	}

	return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
}

func resolveBackend[C any](r *registry.Registry, opts []consistency.ManagerOption[consistency.Message]) (*backend, error) {
	manager, err := consistency.ResolveManager[consistency.Message, C, string](r, opts...)
	if err != nil {
		return nil, errors.Join(err, r.Close())
	}
	store, ok := manager.Store().(*sqlstore.Store[consistency.Message, string])
	if !ok {
		return nil, errors.Join(fmt.Errorf("unexpected store type %T", manager.Store()), r.Close())
	}

	return &backend{registry: r, manager: manager, table: store.Table()}, nil
}
