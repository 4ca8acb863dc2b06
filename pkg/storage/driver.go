// Package storage
package storage

import (
	"context"
	"time"
)

// Message roles as persisted in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session represents one uploaded document and its conversation.
// A session owns its chunks in the vector store and its messages here;
// deleting the session removes both.
type Session struct {
	// ID is the session identifier, a UUID assigned at ingestion.
	ID string `json:"id"`

	// DisplayName is the session's display title, the uploaded
	// document's file name by default.
	DisplayName string `json:"display_name"`

	// OwnerID identifies the user who owns the session.
	OwnerID string `json:"owner_id"`

	// PageCount is the number of pages extracted from the document.
	PageCount int `json:"page_count"`

	// ChunkCount is the number of chunks indexed for the document.
	ChunkCount int `json:"chunk_count"`

	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at"`
}

// Message is a single turn entry in a session's conversation history.
// Messages are append-only and never mutated after creation.
type Message struct {
	// ID is the message identifier, a UUID.
	ID string `json:"id"`

	// SessionID is the owning session.
	SessionID string `json:"session_id"`

	// Role is RoleUser or RoleAssistant.
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// CreatedAt is when the message was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// Driver defines the interface for persisting sessions and their
// conversation history in a storage backend.
type Driver interface {
	// CreateSession stores a new session.
	CreateSession(ctx context.Context, session *Session) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns sessions most recently created first.
	// An empty ownerID returns every session; otherwise only the
	// owner's sessions.
	ListSessions(ctx context.Context, ownerID string) ([]*Session, error)

	// DeleteSession removes a session and all of its messages. The
	// caller is responsible for cascading the session's vector chunks.
	DeleteSession(ctx context.Context, id string) error

	// AppendMessage appends a message to a session's history.
	// The session must exist.
	AppendMessage(ctx context.Context, message *Message) error

	// ListMessages returns a session's messages in chronological order.
	ListMessages(ctx context.Context, sessionID string) ([]*Message, error)

	// DeleteMessage removes a single message by ID. Used to roll back
	// an optimistic write, not to edit history.
	DeleteMessage(ctx context.Context, id string) error

	// Close closes the store and releases any resources.
	Close() error
}
