// Package eventstream defines transport-neutral pipeline events and the
// publisher contract for emitting them.
package eventstream

import (
	"time"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSessionIngested is emitted after a document is chunked,
	// embedded, and indexed into a new session.
	EventTypeSessionIngested = "leaflet.session.ingested"

	// EventTypeTurnCompleted is emitted after a question/answer turn is
	// persisted.
	EventTypeTurnCompleted = "leaflet.turn.completed"
)

// SessionIngestedEvent is the payload for a completed ingestion.
type SessionIngestedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	SessionID  string `json:"session_id"`
	FileName   string `json:"file_name"`
	OwnerID    string `json:"owner_id,omitempty"`
	PageCount  int    `json:"page_count"`
	ChunkCount int    `json:"chunk_count"`
}

// TurnCompletedEvent is the payload for a persisted conversation turn.
type TurnCompletedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	SessionID   string        `json:"session_id"`
	Question    string        `json:"question"`
	Answer      string        `json:"answer"`
	ContextSize int           `json:"context_size"`
	Fallback    bool          `json:"fallback"`
	Streaming   bool          `json:"streaming"`
	Duration    time.Duration `json:"-"`
	DurationMs  int64         `json:"duration_ms"`
	ModelName   string        `json:"model_name,omitempty"`
}
