// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/leaflet/pkg/storage/sqldriver"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	owner_id TEXT NOT NULL DEFAULT '',
	page_count INTEGER NOT NULL,
	chunk_count INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);
`

// SQLiteDriver implements storage.Driver using SQLite.
type SQLiteDriver struct {
	*sqldriver.SQLDriver
}

// NewSQLiteDriver creates a new SQLite-backed store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDriver(dbPath string) (*SQLiteDriver, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite database path is required")
	}

	db, err := sql.Open("sqlite3", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteDriver{
		SQLDriver: sqldriver.NewSQLDriver(db, sqldriver.SQLite),
	}, nil
}

// sqliteDSN turns the path into a DSN that enables foreign keys on every
// pooled connection. A one-shot PRAGMA via db.Exec only reaches the single
// connection that happens to run it.
func sqliteDSN(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_foreign_keys=on"
}
