package testutils

import (
	"context"

	"github.com/papercomputeco/leaflet/pkg/storage"
	"github.com/papercomputeco/leaflet/pkg/storage/inmemory"
)

// MockStorageDriver wraps the in-memory driver with failure injection
// for exercising rollback paths.
type MockStorageDriver struct {
	*inmemory.Driver

	// FailAppendRole forces AppendMessage to fail for messages with
	// this role.
	FailAppendRole string

	// AppendErr is the error returned for a forced failure.
	AppendErr error

	// Deleted records DeleteMessage calls.
	Deleted []string
}

func NewMockStorageDriver() *MockStorageDriver {
	return &MockStorageDriver{Driver: inmemory.NewDriver()}
}

func (m *MockStorageDriver) AppendMessage(ctx context.Context, message *storage.Message) error {
	if m.FailAppendRole != "" && message != nil && message.Role == m.FailAppendRole {
		return m.AppendErr
	}
	return m.Driver.AppendMessage(ctx, message)
}

func (m *MockStorageDriver) DeleteMessage(ctx context.Context, id string) error {
	m.Deleted = append(m.Deleted, id)
	return m.Driver.DeleteMessage(ctx, id)
}

// Ensure MockStorageDriver implements storage.Driver
var _ storage.Driver = (*MockStorageDriver)(nil)
