// Package testdb provides databases for repository and service tests.
package testdb

import (
	"context"
	"fmt"
	"testing"

	"student-roster/internal/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// NewSQLite opens a private in-memory SQLite database, creates the tables for
// models and closes the database when the test ends.
//
// Usage:
//
//	func TestRepository(t *testing.T) {
//	    database := testdb.NewSQLite(t, (*student.Student)(nil))
//	    repo := student.NewRepository(database, nil)
//	    // ... test
//	}
func NewSQLite(t *testing.T, models ...interface{}) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	database, err := db.NewSQLite(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(database) })

	require.NoError(t, db.RunMigrations(context.Background(), database, models...))
	return database
}

// CleanupTables removes every row from the given tables.
func CleanupTables(t *testing.T, database *bun.DB, tables ...string) {
	t.Helper()

	ctx := context.Background()
	for _, table := range tables {
		query := "DELETE FROM " + table
		if database.Dialect().Name() == dialect.PG {
			query = "TRUNCATE " + table + " RESTART IDENTITY CASCADE"
		}
		_, err := database.ExecContext(ctx, query)
		require.NoError(t, err, "failed to clean table: %s", table)
	}
}
