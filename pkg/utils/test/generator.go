package testutils

import (
	"context"

	"github.com/papercomputeco/leaflet/pkg/llm"
)

// MockGenerator is a test chat generator with a canned response.
type MockGenerator struct {
	// Response is returned by Generate; StreamChunks by GenerateStream.
	Response     string
	StreamChunks []string

	// Err forces both methods to fail when set
	Err error

	// Requests records every conversation passed in
	Requests [][]llm.Message
}

func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

func (m *MockGenerator) Generate(_ context.Context, messages []llm.Message) (string, error) {
	m.Requests = append(m.Requests, messages)

	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockGenerator) GenerateStream(_ context.Context, messages []llm.Message, fn llm.StreamFunc) error {
	m.Requests = append(m.Requests, messages)

	if m.Err != nil {
		return m.Err
	}

	chunks := m.StreamChunks
	if chunks == nil {
		chunks = []string{m.Response}
	}

	for _, chunk := range chunks {
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockGenerator) ModelName() string {
	return "mock-model"
}

func (m *MockGenerator) Close() error {
	return nil
}

// Ensure MockGenerator implements llm.Generator
var _ llm.Generator = (*MockGenerator)(nil)
