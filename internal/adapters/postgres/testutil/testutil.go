//go:build integration

// Package testutil provisions throwaway Postgres databases for adapter tests.
package testutil

import (
	"context"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	postgres "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres"
)

var (
	serverOnce sync.Once
	serverURL  string
	serverErr  error

	// container stays up for the whole test binary; Ryuk reaps it.
	container testcontainers.Container
)

// OpenMigratedPool returns a pool on a fresh, migrated database.
// TEST_DATABASE_URL selects an existing server; otherwise a container is started once per package.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	base := adminURL(t)
	name := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := pgx.Connect(ctx, base)
	if err != nil {
		t.Fatalf("connect admin: %v", err)
	}
	if _, err := admin.Exec(ctx, "CREATE DATABASE "+name); err != nil {
		_ = admin.Close(ctx)
		t.Fatalf("create database: %v", err)
	}
	_ = admin.Close(ctx)

	dbURL, err := withDatabase(base, name)
	if err != nil {
		t.Fatalf("database url: %v", err)
	}
	pool, err := postgres.NewPool(ctx, dbURL, postgres.PoolOptions{MaxConns: 20})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func adminURL(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("TEST_DATABASE_URL"); v != "" {
		return v
	}
	serverOnce.Do(func() {
		ctx := context.Background()
		c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("enrollments"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			tcpostgres.BasicWaitStrategies(),
		)
		if err != nil {
			serverErr = err
			return
		}
		container = c
		serverURL, serverErr = c.ConnectionString(ctx, "sslmode=disable")
	})
	if serverErr != nil {
		t.Fatalf("start postgres container: %v", serverErr)
	}
	return serverURL
}

func withDatabase(raw, name string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.Path = "/" + name
	return u.String(), nil
}
