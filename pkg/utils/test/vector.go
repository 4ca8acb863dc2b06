package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/leaflet/pkg/vector"
)

// MockVectorDriver is a test vector driver
type MockVectorDriver struct {
	Documents []vector.Document
	Results   []vector.QueryResult

	// Queries records every search issued
	Queries []vector.Query

	// AddErr, SearchErr, and DeleteErr force failures when set
	AddErr    error
	SearchErr error
	DeleteErr error

	// DeletedSessions records DeleteSession calls
	DeletedSessions []string
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Documents: make([]vector.Document, 0),
		Results:   make([]vector.QueryResult, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Documents = append(m.Documents, docs...)
	return nil
}

func (m *MockVectorDriver) Search(_ context.Context, q vector.Query) ([]vector.QueryResult, error) {
	m.Queries = append(m.Queries, q)

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	topK := q.TopK
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	var results []vector.QueryResult
	for _, result := range m.Results {
		if result.Score >= q.Threshold {
			results = append(results, result)
		}
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

func (m *MockVectorDriver) DeleteSession(_ context.Context, sessionID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.DeletedSessions = append(m.DeletedSessions, sessionID)

	kept := m.Documents[:0]
	for _, doc := range m.Documents {
		if doc.SessionID != sessionID {
			kept = append(kept, doc)
		}
	}
	m.Documents = kept
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

// Ensure MockVectorDriver implements vector.Driver
var _ vector.Driver = (*MockVectorDriver)(nil)

// ErrMockVector is a sentinel for forcing vector failures in tests.
var ErrMockVector = errors.New("mock vector failure")
