// Package inmemory provides a map-backed storage driver for tests and
// ephemeral sessions.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/papercomputeco/leaflet/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards both maps
	mu sync.RWMutex

	// sessions keyed by session ID
	sessions map[string]*storage.Session

	// messages keyed by message ID
	messages map[string]*storage.Message
}

// NewDriver creates a new in-memory storage driver.
func NewDriver() *Driver {
	return &Driver{
		sessions: make(map[string]*storage.Session),
		messages: make(map[string]*storage.Message),
	}
}

// CreateSession stores a new session.
func (d *Driver) CreateSession(_ context.Context, session *storage.Session) error {
	if session == nil {
		return errors.New("cannot store nil session")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	s := *session
	d.sessions[s.ID] = &s
	return nil
}

// GetSession retrieves a session by ID.
func (d *Driver) GetSession(_ context.Context, id string) (*storage.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	session, ok := d.sessions[id]
	if !ok {
		return nil, storage.NotFoundError{Kind: "session", ID: id}
	}

	s := *session
	return &s, nil
}

// ListSessions returns sessions most recently created first, optionally
// filtered by owner.
func (d *Driver) ListSessions(_ context.Context, ownerID string) ([]*storage.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sessions := make([]*storage.Session, 0, len(d.sessions))
	for _, session := range d.sessions {
		if ownerID != "" && session.OwnerID != ownerID {
			continue
		}
		s := *session
		sessions = append(sessions, &s)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}

// DeleteSession removes a session and all of its messages.
func (d *Driver) DeleteSession(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sessions[id]; !ok {
		return storage.NotFoundError{Kind: "session", ID: id}
	}

	delete(d.sessions, id)

	for msgID, msg := range d.messages {
		if msg.SessionID == id {
			delete(d.messages, msgID)
		}
	}

	return nil
}

// AppendMessage appends a message to a session's history.
func (d *Driver) AppendMessage(_ context.Context, message *storage.Message) error {
	if message == nil {
		return errors.New("cannot store nil message")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sessions[message.SessionID]; !ok {
		return storage.NotFoundError{Kind: "session", ID: message.SessionID}
	}

	m := *message
	d.messages[m.ID] = &m
	return nil
}

// ListMessages returns a session's messages in chronological order.
func (d *Driver) ListMessages(_ context.Context, sessionID string) ([]*storage.Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.sessions[sessionID]; !ok {
		return nil, storage.NotFoundError{Kind: "session", ID: sessionID}
	}

	var messages []*storage.Message
	for _, msg := range d.messages {
		if msg.SessionID == sessionID {
			m := *msg
			messages = append(messages, &m)
		}
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	return messages, nil
}

// DeleteMessage removes a single message by ID.
func (d *Driver) DeleteMessage(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.messages[id]; !ok {
		return storage.NotFoundError{Kind: "message", ID: id}
	}

	delete(d.messages, id)
	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return nil
}

// Ensure Driver implements storage.Driver
var _ storage.Driver = (*Driver)(nil)
