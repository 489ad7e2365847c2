package postgresql_test

import (
	"context"
	"os"
	"testing"

	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-sync-go/internal/repository/postgresql"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL, applies the schema and empties every
// table except the default shift. Tests are skipped without a database.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	require.NoError(t, postgresql.EnsureSchema(ctx, db))

	_, err = db.Exec(ctx, `TRUNCATE TABLE attendance_anomalies, attendance_log, employees, devices CASCADE`)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `DELETE FROM shifts WHERE id <> 1`)
	require.NoError(t, err)

	return db
}
