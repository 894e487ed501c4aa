//go:build integration

package testdb

import (
	"context"
	"testing"

	"student-roster/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
)

const postgresImage = "postgres:16-alpine"

// NewPostgres starts a throwaway PostgreSQL container, opens it through the
// same constructor the application uses and creates the tables for models.
// The container is terminated when the test ends.
func NewPostgres(t *testing.T, models ...interface{}) *bun.DB {
	t.Helper()

	ctx := context.Background()
	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("roster"),
		postgres.WithUsername("roster"),
		postgres.WithPassword("roster"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := db.NewPostgres(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(database) })

	require.NoError(t, db.RunMigrations(ctx, database, models...))
	return database
}
