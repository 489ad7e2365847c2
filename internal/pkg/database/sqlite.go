package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDB is the device-local database. SQLite allows a single writer, so the
// pool holds exactly one connection and every statement shares its pragmas.
type SQLiteDB struct {
	*sql.DB
}

// NewSQLiteDB opens path in WAL mode with synchronous=FULL so a committed
// transaction survives power loss. maxPages bounds the file size; 0 leaves it unbounded.
func NewSQLiteDB(path string, maxPages int) (*SQLiteDB, error) {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "FULL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")
	params.Set("_txlock", "immediate")

	db, err := sql.Open("sqlite3", "file:"+path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if maxPages > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA max_page_count = %d", maxPages)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set max_page_count: %w", err)
		}
	}

	return &SQLiteDB{DB: db}, nil
}

// Pragma reads a single pragma value.
func (db *SQLiteDB) Pragma(ctx context.Context, name string) (string, error) {
	var value string
	if err := db.QueryRowContext(ctx, "PRAGMA "+name).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to query %s: %w", name, err)
	}
	return value, nil
}
