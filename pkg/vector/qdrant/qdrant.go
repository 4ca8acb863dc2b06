// Package qdrant provides a Qdrant vector database driver implementation
// using the official gRPC client.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for chunk embeddings.
	DefaultCollectionName = "leaflet"

	// DefaultPort is the Qdrant gRPC port.
	DefaultPort = 6334
)

// Payload field names for chunk metadata.
const (
	fieldSessionID = "session_id"
	fieldText      = "text"
	fieldPage      = "page"
)

// QdrantDriver implements vector.Driver against a Qdrant collection.
// Session scoping uses a payload match filter; the collection is created
// with cosine distance so scores are cosine similarity directly.
type QdrantDriver struct {
	client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant host (e.g., "localhost").
	Host string

	// Port is the Qdrant gRPC port. Defaults to DefaultPort if zero.
	Port int

	// APIKey is an optional API key for Qdrant Cloud.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// CollectionName is the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the embedding vector size.
	Dimensions uint
}

// NewQdrantDriver creates a new Qdrant vector driver and ensures the
// collection exists.
func NewQdrantDriver(ctx context.Context, c Config, logger *zap.Logger) (*QdrantDriver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection: %v", vector.ErrConnection, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", collection, err)
		}
	}

	logger.Info("connected to qdrant",
		zap.String("host", c.Host),
		zap.Int("port", port),
		zap.String("collection", collection),
		zap.Uint("dimensions", c.Dimensions),
	)

	return &QdrantDriver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

// Add stores documents with their embeddings.
func (d *QdrantDriver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				fieldSessionID: doc.SessionID,
				fieldText:      doc.Text,
				fieldPage:      int64(doc.Page),
			}),
		}
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant",
		zap.Int("count", len(docs)),
	)

	return nil
}

// Search finds the most similar chunks within one session.
func (d *QdrantDriver) Search(ctx context.Context, q vector.Query) ([]vector.QueryResult, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(q.Embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		ScoreThreshold: qdrant.PtrOf(q.Threshold),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldSessionID, q.SessionID),
			},
		},
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, point := range points {
		result := vector.QueryResult{
			Score: point.Score,
		}

		if v, ok := point.Payload[fieldText]; ok {
			result.Text = v.GetStringValue()
		}
		if v, ok := point.Payload[fieldPage]; ok {
			result.Page = int(v.GetIntegerValue())
		}

		results = append(results, result)
	}

	d.logger.Debug("queried qdrant",
		zap.String("session_id", q.SessionID),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// DeleteSession removes every chunk owned by the given session.
func (d *QdrantDriver) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldSessionID, sessionID),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("deleting session points: %w", err)
	}

	d.logger.Debug("deleted session chunks from qdrant",
		zap.String("session_id", sessionID),
	)

	return nil
}

// Close releases the gRPC connection.
func (d *QdrantDriver) Close() error {
	return d.client.Close()
}

// Ensure QdrantDriver implements vector.Driver
var _ vector.Driver = (*QdrantDriver)(nil)
