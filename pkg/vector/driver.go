// Package vector provides interfaces and implementations for vector storage
// and similarity search over document chunks.
package vector

import "context"

// Document represents a stored chunk with its embedding and metadata.
type Document struct {
	// ID is a unique identifier for the chunk.
	ID string

	// SessionID scopes the chunk to the document session that owns it.
	SessionID string

	// Text is the chunk's raw text content.
	Text string

	// Page is the 1-based source page the chunk was derived from.
	Page int

	// Embedding is the vector representation of the chunk text.
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	// Text is the matched chunk's text content.
	Text string

	// Page is the matched chunk's source page.
	Page int

	// Score is the similarity score (higher = more similar). For
	// normalized embeddings this is cosine similarity.
	Score float32
}

// Query describes a nearest-neighbor search scoped to one session.
type Query struct {
	// SessionID restricts results to chunks owned by this session.
	SessionID string

	// Embedding is the query vector.
	Embedding []float32

	// Threshold excludes results whose similarity falls below it.
	Threshold float32

	// TopK caps the number of results. Defaults to 5 if zero.
	TopK int
}

// Driver handles storage and retrieval of chunk embeddings.
type Driver interface {
	// Add stores documents with their embeddings. If a document with the
	// same ID already exists, implementers should update the document.
	Add(ctx context.Context, docs []Document) error

	// Search finds the most similar documents for the query, ordered
	// descending by score, at most TopK long, every score >= Threshold.
	Search(ctx context.Context, q Query) ([]QueryResult, error)

	// DeleteSession removes every document owned by the given session.
	DeleteSession(ctx context.Context, sessionID string) error

	// Close releases any resources held by the driver.
	Close() error
}

// DefaultTopK is the result cap applied when Query.TopK is zero.
const DefaultTopK = 5
