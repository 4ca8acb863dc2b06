// Package sqldriver provides the shared database/sql implementation of
// storage.Driver. Backend packages own connection setup and schema
// migration and wrap this driver.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/leaflet/pkg/storage"
)

// Dialect selects the placeholder style for the backend.
type Dialect int

const (
	// SQLite uses ? placeholders. Also used by libSQL.
	SQLite Dialect = iota

	// Postgres uses $1, $2, ... placeholders.
	Postgres
)

// SQLDriver implements storage.Driver on top of an open *sql.DB.
type SQLDriver struct {
	DB      *sql.DB
	dialect Dialect
}

// NewSQLDriver wraps an open database handle. The caller is responsible
// for having created the schema.
func NewSQLDriver(db *sql.DB, dialect Dialect) *SQLDriver {
	return &SQLDriver{DB: db, dialect: dialect}
}

// rebind converts ? placeholders to the dialect's style.
func (d *SQLDriver) rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CreateSession stores a new session.
func (d *SQLDriver) CreateSession(ctx context.Context, session *storage.Session) error {
	if session == nil {
		return errors.New("cannot store nil session")
	}

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := d.DB.ExecContext(ctx,
		d.rebind(`INSERT INTO sessions (id, display_name, owner_id, page_count, chunk_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		session.ID, session.DisplayName, session.OwnerID, session.PageCount, session.ChunkCount, createdAt,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID.
func (d *SQLDriver) GetSession(ctx context.Context, id string) (*storage.Session, error) {
	row := d.DB.QueryRowContext(ctx,
		d.rebind(`SELECT id, display_name, owner_id, page_count, chunk_count, created_at FROM sessions WHERE id = ?`),
		id,
	)

	var session storage.Session
	err := row.Scan(&session.ID, &session.DisplayName, &session.OwnerID, &session.PageCount, &session.ChunkCount, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Kind: "session", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	return &session, nil
}

// ListSessions returns sessions most recently created first, optionally
// filtered by owner.
func (d *SQLDriver) ListSessions(ctx context.Context, ownerID string) ([]*storage.Session, error) {
	query := `SELECT id, display_name, owner_id, page_count, chunk_count, created_at FROM sessions ORDER BY created_at DESC`
	args := []any{}
	if ownerID != "" {
		query = d.rebind(`SELECT id, display_name, owner_id, page_count, chunk_count, created_at FROM sessions WHERE owner_id = ? ORDER BY created_at DESC`)
		args = append(args, ownerID)
	}

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*storage.Session
	for rows.Next() {
		var session storage.Session
		if err := rows.Scan(&session.ID, &session.DisplayName, &session.OwnerID, &session.PageCount, &session.ChunkCount, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}

// DeleteSession removes a session and its messages in one transaction.
// The delete is explicit rather than left to the schema's FK cascade:
// SQLite-family backends enforce foreign keys per connection, and the
// pool gives no control over which connection runs the delete.
func (d *SQLDriver) DeleteSession(ctx context.Context, id string) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM messages WHERE session_id = ?`), id); err != nil {
		return fmt.Errorf("deleting session messages: %w", err)
	}

	result, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM sessions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return storage.NotFoundError{Kind: "session", ID: id}
	}

	return tx.Commit()
}

// AppendMessage appends a message to a session's history.
func (d *SQLDriver) AppendMessage(ctx context.Context, message *storage.Message) error {
	if message == nil {
		return errors.New("cannot store nil message")
	}

	createdAt := message.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := d.DB.ExecContext(ctx,
		d.rebind(`INSERT INTO messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`),
		message.ID, message.SessionID, message.Role, message.Content, createdAt,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	return nil
}

// ListMessages returns a session's messages in chronological order.
func (d *SQLDriver) ListMessages(ctx context.Context, sessionID string) ([]*storage.Message, error) {
	if _, err := d.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := d.DB.QueryContext(ctx,
		d.rebind(`SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY created_at ASC`),
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*storage.Message
	for rows.Next() {
		var message storage.Message
		if err := rows.Scan(&message.ID, &message.SessionID, &message.Role, &message.Content, &message.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, &message)
	}

	return messages, rows.Err()
}

// DeleteMessage removes a single message by ID.
func (d *SQLDriver) DeleteMessage(ctx context.Context, id string) error {
	result, err := d.DB.ExecContext(ctx, d.rebind(`DELETE FROM messages WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return storage.NotFoundError{Kind: "message", ID: id}
	}

	return nil
}

// Close closes the underlying database.
func (d *SQLDriver) Close() error {
	return d.DB.Close()
}

// Ensure SQLDriver implements storage.Driver
var _ storage.Driver = (*SQLDriver)(nil)
