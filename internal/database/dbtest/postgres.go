//go:build integration

// internal/database/dbtest/postgres.go

// Package dbtest starts a migrated Postgres container for integration tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github-gitee-mirror/migrations"
)

// SetupPool starts Postgres, applies the migrations and returns a pool that
// is closed, with the container, when the test ends.
func SetupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("mirror"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pgContainer)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, migrations.Up(connStr))

	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(dbpool.Close)

	return dbpool
}
