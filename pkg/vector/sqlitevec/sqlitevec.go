// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/vector"
)

// SQLiteVecDriver implements vector.Driver using SQLite with sqlite-vec.
//
// Chunks live in a single table with their embedding stored as a sqlite-vec
// BLOB; search is an exact scan over one session's chunks ordered by
// vec_distance_cosine. Sessions are small (one document each), so a scan
// beats maintaining a vec0 index per session.
type SQLiteVecDriver struct {
	db     *sql.DB
	dims   uint
	logger *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewSQLiteVecDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewSQLiteVecDriver(c Config, logger *zap.Logger) (*SQLiteVecDriver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			chunk_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			page INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_chunks_session ON chunks(session_id)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session index: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &SQLiteVecDriver{
		db:     db,
		dims:   c.Dimensions,
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Add stores documents with their embeddings.
// If a document with the same ID already exists, it is updated.
func (d *SQLiteVecDriver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	// Embeddings are stored as opaque BLOBs, so a wrong-sized vector
	// would otherwise only surface as a distance error at query time.
	for _, doc := range docs {
		if uint(len(doc.Embedding)) != d.dims {
			return fmt.Errorf("chunk %s: embedding has %d dimensions, store expects %d",
				doc.ID, len(doc.Embedding), d.dims)
		}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (chunk_id, session_id, page, content, embedding)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(chunk_id) DO UPDATE SET
				session_id = excluded.session_id,
				page = excluded.page,
				content = excluded.content,
				embedding = excluded.embedding
		`, doc.ID, doc.SessionID, doc.Page, doc.Text, serializeFloat32(doc.Embedding)); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to sqlite-vec",
		zap.Int("count", len(docs)),
	)

	return nil
}

// Search finds the most similar chunks within one session, ordered
// descending by cosine similarity and filtered by the query threshold.
func (d *SQLiteVecDriver) Search(ctx context.Context, q vector.Query) ([]vector.QueryResult, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT content, page, vec_distance_cosine(embedding, ?) AS distance
		FROM chunks
		WHERE session_id = ?
		ORDER BY distance
		LIMIT ?
	`, serializeFloat32(q.Embedding), q.SessionID, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var content string
		var page int
		var distance float64
		if err := rows.Scan(&content, &page, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		// Cosine similarity from cosine distance.
		score := float32(1.0 - distance)
		if score < q.Threshold {
			continue
		}

		results = append(results, vector.QueryResult{
			Text:  content,
			Page:  page,
			Score: score,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		zap.String("session_id", q.SessionID),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// DeleteSession removes every chunk owned by the given session.
func (d *SQLiteVecDriver) DeleteSession(ctx context.Context, sessionID string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM chunks WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting session chunks: %w", err)
	}

	if count, err := res.RowsAffected(); err == nil {
		d.logger.Debug("deleted session chunks from sqlite-vec",
			zap.String("session_id", sessionID),
			zap.Int64("count", count),
		)
	}

	return nil
}

// Close releases resources held by the driver.
func (d *SQLiteVecDriver) Close() error {
	return d.db.Close()
}

// Ensure SQLiteVecDriver implements vector.Driver
var _ vector.Driver = (*SQLiteVecDriver)(nil)
