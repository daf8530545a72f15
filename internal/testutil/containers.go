//go:build integration

// Package testutil starts database containers for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

const (
	mysqlImage       = "mysql:8.0.36"
	postgresImage    = "postgres:16-alpine"
	databaseName     = "consistency"
	databasePassword = "secret"
	startupTimeout   = 2 * time.Minute
)

// Database is a started container with an open pool.
type Database struct {
	Container testcontainers.Container
	DB        *sql.DB
	DSN       string
}

// StartMySQL starts MySQL and returns a pool opened with parseTime enabled. The test is
// skipped when Docker is unavailable.
func StartMySQL(t *testing.T, ctx context.Context) Database {
	t.Helper()

	dsn := func(host string, port nat.Port) string {
		return fmt.Sprintf("root:%s@tcp(%s:%s)/%s?parseTime=true", databasePassword, host, port.Port(), databaseName)
	}

	return start(t, ctx, "mysql", nat.Port("3306/tcp"), testcontainers.ContainerRequest{
		Image: mysqlImage,
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": databasePassword,
			"MYSQL_DATABASE":      databaseName,
		},
	}, dsn)
}

// StartPostgres starts PostgreSQL and returns an open pool. The test is skipped when
// Docker is unavailable.
func StartPostgres(t *testing.T, ctx context.Context) Database {
	t.Helper()

	dsn := func(host string, port nat.Port) string {
		return fmt.Sprintf("postgres://postgres:%s@%s:%s/%s?sslmode=disable", databasePassword, host, port.Port(), databaseName)
	}

	return start(t, ctx, "postgres", nat.Port("5432/tcp"), testcontainers.ContainerRequest{
		Image: postgresImage,
		Env: map[string]string{
			"POSTGRES_PASSWORD": databasePassword,
			"POSTGRES_DB":       databaseName,
		},
	}, dsn)
}

func start(
	t *testing.T,
	ctx context.Context,
	driver string,
	port nat.Port,
	req testcontainers.ContainerRequest,
	dsn func(host string, port nat.Port) string,
) Database {
	t.Helper()

	req.ExposedPorts = []string{string(port)}
	req.WaitingFor = wait.ForSQL(port, driver, dsn).WithStartupTimeout(startupTimeout)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("start %s container: %v", driver, err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("resolve host: %v", err)
	}
	mappedPort, err := container.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("resolve port: %v", err)
	}

	source := dsn(host, mappedPort)
	db, err := sql.Open(driver, source)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return Database{Container: container, DB: db, DSN: source}
}
