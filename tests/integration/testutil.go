//go:build integration

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/webdev-it/baza-ai/internal/database"
)

// TestEnv holds shared infrastructure for integration tests. Containers are
// started once per test binary.
type TestEnv struct {
	Pool *pgxpool.Pool
}

var testEnv *TestEnv

func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "baza_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() { pgContainer.Terminate(ctx) })

	pgHost, _ := pgContainer.Host(ctx)
	pgPort, _ := pgContainer.MappedPort(ctx, "5432")

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/baza_test?sslmode=disable", pgHost, pgPort.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := database.RunMigrations(dsn, migrationsDir()); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}

	testEnv = &TestEnv{Pool: pool}
	return testEnv
}

// migrationsDir resolves the migrations directory relative to this file so
// tests work regardless of the working directory.
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// Truncate clears usage tables between tests.
func (e *TestEnv) Truncate(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, table := range []string{"usage_counts", "subscribers"} {
		if _, err := e.Pool.Exec(ctx, "TRUNCATE "+table); err != nil {
			t.Fatalf("truncating %s: %v", table, err)
		}
	}
}
