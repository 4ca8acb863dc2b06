package api

import (
	"time"

	"github.com/papercomputeco/leaflet/pkg/document"
)

// ErrorResponse is the JSON body returned for every error status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// IngestRequest is the JSON alternative to a multipart file upload:
// pre-extracted page text submitted directly.
type IngestRequest struct {
	FileName string                 `json:"file_name"`
	OwnerID  string                 `json:"owner_id,omitempty"`
	Pages    []document.PageContent `json:"pages"`
}

// IngestResponse reports the session created for an uploaded document.
type IngestResponse struct {
	SessionID string `json:"session_id"`
	FileName  string `json:"file_name"`
	Pages     int    `json:"pages"`
	Chunks    int    `json:"chunks"`
}

// SessionResponse is the wire shape of a session.
type SessionResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	OwnerID     string    `json:"owner_id,omitempty"`
	PageCount   int       `json:"page_count"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionListResponse wraps a list of sessions.
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Count    int               `json:"count"`
}

// MessageResponse is the wire shape of one conversation message.
type MessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageListResponse wraps a session's conversation history.
type MessageListResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []MessageResponse `json:"messages"`
	Count     int               `json:"count"`
}

// AskRequest is the body of POST /v1/sessions/:id/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// ContextResult is one retrieved chunk included with an answer.
type ContextResult struct {
	Text  string  `json:"text"`
	Page  int     `json:"page"`
	Score float32 `json:"score"`
}

// AskResponse is the completed answer for a question.
type AskResponse struct {
	Answer  string          `json:"answer"`
	State   string          `json:"state"`
	Results []ContextResult `json:"results"`
}

// SearchResponse is the body of GET /v1/sessions/:id/search.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []ContextResult `json:"results"`
	Count   int             `json:"count"`
}
