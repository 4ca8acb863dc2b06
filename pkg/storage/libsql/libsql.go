// Package libsql provides a libSQL-backed storage driver for Turso and
// sqld deployments.
package libsql

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/tursodatabase/go-libsql" // register the libSQL driver as "libsql"

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

// Driver implements storage.Driver using libSQL.
type Driver struct {
	*sqldriver.SQLDriver
}

// NewDriver creates a new libSQL-backed store. The URL can be a remote
// database URL like "libsql://name.turso.io?authToken=..." or a local
// "file:" path.
func NewDriver(url string) (*Driver, error) {
	if url == "" {
		return nil, errors.New("libsql database URL is required")
	}

	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Per-connection pragma; the libSQL DSN has no foreign-keys option.
	// Session deletes cascade explicitly in sqldriver and do not rely on it.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{
		SQLDriver: sqldriver.NewSQLDriver(db, sqldriver.SQLite),
	}, nil
}
