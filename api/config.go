// Package api provides the HTTP API server for ingesting documents and
// chatting with them.
package api

import (
	"net/http"

	"github.com/papercomputeco/leaflet/pkg/rag"
	"github.com/papercomputeco/leaflet/pkg/storage"
	"github.com/papercomputeco/leaflet/pkg/vector"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Store persists sessions and messages
	Store storage.Driver

	// Vectors holds the embedded document chunks. Used directly for
	// cascade deletes when a session is removed.
	Vectors vector.Driver

	// Ingestor turns uploaded documents into sessions
	Ingestor *rag.Ingestor

	// Turn runs question/answer turns
	Turn *rag.Turn

	// Retriever serves the raw context search endpoint
	Retriever *rag.Retriever

	// MCPHandler, when set, is mounted at /mcp
	MCPHandler http.Handler
}
