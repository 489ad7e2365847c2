package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *database.SQLiteDB {
	t.Helper()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "device.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, EnsureSchema(context.Background(), db))
	return db
}

func mustTime(t *testing.T, layout, value string) time.Time {
	t.Helper()
	v, err := time.Parse(layout, value)
	require.NoError(t, err)
	return v
}
