// Package rag wires retrieval, prompt assembly, and answer generation
// into document-chat turns.
package rag

import (
	"context"

	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/embeddings"
	"github.com/papercomputeco/leaflet/pkg/vector"
)

// DefaultThreshold is the minimum similarity for a chunk to count as
// relevant. Deliberately low so thin documents still produce context.
const DefaultThreshold float32 = 0.1

// Retriever embeds a question and finds its most relevant chunks within
// one session.
type Retriever struct {
	embedder  embeddings.Embedder
	store     vector.Driver
	threshold float32
	topK      int
	logger    *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithThreshold overrides the similarity threshold.
func WithThreshold(threshold float32) RetrieverOption {
	return func(r *Retriever) {
		r.threshold = threshold
	}
}

// WithTopK overrides the result count cap.
func WithTopK(topK int) RetrieverOption {
	return func(r *Retriever) {
		r.topK = topK
	}
}

// NewRetriever creates a retriever over the given embedder and store.
func NewRetriever(embedder embeddings.Embedder, store vector.Driver, logger *zap.Logger, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder:  embedder,
		store:     store,
		threshold: DefaultThreshold,
		topK:      vector.DefaultTopK,
		logger:    logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Retrieve returns the session's chunks most similar to the question,
// best first. Retrieval is fail-open: embedding or store errors are
// logged and yield no results, so a degraded search never takes the
// whole turn down with it.
func (r *Retriever) Retrieve(ctx context.Context, sessionID, question string) []vector.QueryResult {
	embedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		r.logger.Warn("embedding question failed, continuing without context",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil
	}

	results, err := r.store.Search(ctx, vector.Query{
		SessionID: sessionID,
		Embedding: embedding,
		Threshold: r.threshold,
		TopK:      r.topK,
	})
	if err != nil {
		r.logger.Warn("vector search failed, continuing without context",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil
	}

	r.logger.Debug("retrieved context chunks",
		zap.String("session_id", sessionID),
		zap.Int("count", len(results)),
	)

	return results
}
