// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for chunk embeddings.
	DefaultCollectionName = "leaflet"
)

// ChromaDriver implements vector.Driver using Chroma's REST API.
// The collection is created with cosine space so reported distances are
// cosine distances; scores are 1 - distance.
type ChromaDriver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *zap.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string
}

// NewChromaDriver creates a new Chroma vector driver.
func NewChromaDriver(c Config, logger *zap.Logger) (*ChromaDriver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	d := &ChromaDriver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	// Get or create the collection
	collectionID, err := d.getOrCreateCollection(context.Background())
	if err != nil {
		return nil, fmt.Errorf("getting or creating collection %q: %w", collectionName, err)
	}
	d.collectionID = collectionID

	logger.Info("connected to Chroma",
		zap.String("url", c.URL),
		zap.String("collection", collectionName),
		zap.String("collection_id", collectionID),
	)

	return d, nil
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *ChromaDriver) getOrCreateCollection(ctx context.Context) (string, error) {
	// Try to get existing collection first
	url := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s", d.baseURL, d.collectionName)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var collection chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	}

	// Collection doesn't exist, create it with cosine space so distances
	// line up with the similarity threshold.
	createURL := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections", d.baseURL)
	createBody := chromaCreateRequest{
		Name:     d.collectionName,
		Metadata: map[string]any{"hnsw:space": "cosine"},
	}
	jsonBody, err := json.Marshal(createBody)
	if err != nil {
		return "", fmt.Errorf("marshaling create request: %w", err)
	}

	req, err = http.NewRequestWithContext(ctx, "POST", createURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to create collection: status %d: %s", resp.StatusCode, string(body))
	}

	var collection chromaCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}

	return collection.ID, nil
}

// Add stores documents with their embeddings.
func (d *ChromaDriver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	metadatas := make([]map[string]any, len(docs))
	documents := make([]string, len(docs))

	for i, doc := range docs {
		ids[i] = doc.ID
		embeddings[i] = doc.Embedding
		metadatas[i] = map[string]any{
			"session_id": doc.SessionID,
			"page":       doc.Page,
		}
		documents[i] = doc.Text
	}

	reqBody := chromaAddRequest{
		IDs:        ids,
		Embeddings: embeddings,
		Metadatas:  metadatas,
		Documents:  documents,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling add request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s/add", d.baseURL, d.collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating add request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending add request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to add documents: status %d: %s", resp.StatusCode, string(body))
	}

	d.logger.Debug("added documents to chroma",
		zap.Int("count", len(docs)),
	)

	return nil
}

// Search finds the most similar chunks within one session.
func (d *ChromaDriver) Search(ctx context.Context, q vector.Query) ([]vector.QueryResult, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	reqBody := chromaQueryRequest{
		QueryEmbeddings: [][]float32{q.Embedding},
		NResults:        topK,
		Where:           map[string]any{"session_id": q.SessionID},
		Include:         []string{"metadatas", "distances", "documents"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling query request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s/query", d.baseURL, d.collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to query: status %d: %s", resp.StatusCode, string(body))
	}

	var queryResp chromaQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}

	var results []vector.QueryResult

	// Process first group (we only query with one embedding)
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return results, nil
	}

	ids := queryResp.IDs[0]
	distances := queryResp.Distances[0]

	var metadatas []map[string]any
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}

	var documents []string
	if len(queryResp.Documents) > 0 {
		documents = queryResp.Documents[0]
	}

	for i := range ids {
		var result vector.QueryResult

		if i < len(documents) {
			result.Text = documents[i]
		}

		if i < len(metadatas) && metadatas[i] != nil {
			if page, ok := metadatas[i]["page"].(float64); ok {
				result.Page = int(page)
			}
		}

		// Cosine distance to similarity
		if i < len(distances) {
			result.Score = 1.0 - distances[i]
		}

		if result.Score < q.Threshold {
			continue
		}

		results = append(results, result)
	}

	d.logger.Debug("queried chroma",
		zap.String("session_id", q.SessionID),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// DeleteSession removes every chunk owned by the given session.
func (d *ChromaDriver) DeleteSession(ctx context.Context, sessionID string) error {
	reqBody := chromaDeleteRequest{
		Where: map[string]any{"session_id": sessionID},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling delete request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s/delete", d.baseURL, d.collectionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to delete session chunks: status %d: %s", resp.StatusCode, string(body))
	}

	d.logger.Debug("deleted session chunks from chroma",
		zap.String("session_id", sessionID),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *ChromaDriver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// Ensure ChromaDriver implements vector.Driver
var _ vector.Driver = (*ChromaDriver)(nil)
