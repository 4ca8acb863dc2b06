package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/document"
	"github.com/papercomputeco/leaflet/pkg/embeddings"
	"github.com/papercomputeco/leaflet/pkg/eventstream"
	"github.com/papercomputeco/leaflet/pkg/eventstream/nop"
	"github.com/papercomputeco/leaflet/pkg/storage"
	"github.com/papercomputeco/leaflet/pkg/vector"
)

// DefaultIngestWorkers is the embedding concurrency used when no
// WithWorkers option is given.
const DefaultIngestWorkers = 1

// Ingestor turns an extracted document into a searchable session: one
// session row plus one embedded chunk per window of page text.
type Ingestor struct {
	chunker   *document.Chunker
	embedder  embeddings.Embedder
	vectors   vector.Driver
	store     storage.Driver
	publisher eventstream.Publisher
	logger    *zap.Logger
	workers   int
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithWorkers sets the number of concurrent embedding workers. Values
// below one are ignored.
func WithWorkers(n int) IngestorOption {
	return func(i *Ingestor) {
		if n >= 1 {
			i.workers = n
		}
	}
}

// NewIngestor creates an ingestor. A nil publisher disables events.
func NewIngestor(chunker *document.Chunker, embedder embeddings.Embedder, vectors vector.Driver, store storage.Driver, publisher eventstream.Publisher, logger *zap.Logger, opts ...IngestorOption) *Ingestor {
	if publisher == nil {
		publisher = nop.NewPublisher()
	}

	i := &Ingestor{
		chunker:   chunker,
		embedder:  embedder,
		vectors:   vectors,
		store:     store,
		publisher: publisher,
		logger:    logger,
		workers:   DefaultIngestWorkers,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest creates a session for the document and stores an embedding for
// every chunk of its pages. It returns the new session's ID. On any
// failure after the session row exists, the session and whatever chunks
// were already stored are deleted before the error is returned, so a
// failed upload leaves nothing behind.
func (i *Ingestor) Ingest(ctx context.Context, fileName string, pages []document.PageContent, ownerID string) (string, error) {
	if len(pages) == 0 {
		return "", document.ErrEmptyDocument
	}

	chunks := i.chunker.Chunk(pages)
	if len(chunks) == 0 {
		return "", document.ErrEmptyDocument
	}

	session := &storage.Session{
		ID:          uuid.NewString(),
		DisplayName: fileName,
		OwnerID:     ownerID,
		PageCount:   len(pages),
		ChunkCount:  len(chunks),
		CreatedAt:   time.Now().UTC(),
	}
	if err := i.store.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}

	i.logger.Info("ingesting document",
		zap.String("session_id", session.ID),
		zap.String("file_name", fileName),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
		zap.Int("workers", i.workers),
	)

	docs, err := i.embedChunks(ctx, session.ID, chunks)
	if err != nil {
		i.compensate(ctx, session.ID)
		return "", fmt.Errorf("embedding chunks: %w", err)
	}

	if err := i.vectors.Add(ctx, docs); err != nil {
		i.compensate(ctx, session.ID)
		return "", fmt.Errorf("storing chunks: %w", err)
	}

	i.publishSessionIngested(ctx, session, fileName)

	return session.ID, nil
}

// embedChunks embeds every chunk with bounded concurrency, preserving
// chunk order in the returned documents.
func (i *Ingestor) embedChunks(ctx context.Context, sessionID string, chunks []document.Chunk) ([]vector.Document, error) {
	docs := make([]vector.Document, len(chunks))

	sem := make(chan struct{}, i.workers)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var firstErr error

	for idx, chunk := range chunks {
		mu.Lock()
		failed := firstErr != nil
		mu.Unlock()
		if failed || ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(idx int, chunk document.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			embedding, err := i.embedder.Embed(ctx, chunk.Text)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			docs[idx] = vector.Document{
				ID:        uuid.NewString(),
				SessionID: sessionID,
				Text:      chunk.Text,
				Page:      chunk.Page,
				Embedding: embedding,
			}
		}(idx, chunk)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// compensate removes the session row and any chunks stored before the
// failure. Cleanup errors are logged, not returned, so the original
// failure stays visible.
func (i *Ingestor) compensate(ctx context.Context, sessionID string) {
	if err := i.vectors.DeleteSession(ctx, sessionID); err != nil {
		i.logger.Error("removing chunks for failed ingest",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
	if err := i.store.DeleteSession(ctx, sessionID); err != nil {
		i.logger.Error("removing session for failed ingest",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

func (i *Ingestor) publishSessionIngested(ctx context.Context, session *storage.Session, fileName string) {
	event := &eventstream.SessionIngestedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeSessionIngested,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		SessionID:     session.ID,
		FileName:      fileName,
		OwnerID:       session.OwnerID,
		PageCount:     session.PageCount,
		ChunkCount:    session.ChunkCount,
	}

	if err := i.publisher.PublishSessionIngested(ctx, event); err != nil {
		i.logger.Warn("publishing ingest event failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}
}
