package sqlite

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cmlabs-hris/attendance-sync-go/internal/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - attendance buffer with explicit sync_status lifecycle
const currentSchemaVersion = 1

// EnsureSchema creates missing tables and records the schema version. Idempotent.
func EnsureSchema(ctx context.Context, db *database.SQLiteDB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
