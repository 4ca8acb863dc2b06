package llm

import (
	"context"
	"errors"
)

// ErrStreamingNotSupported is returned by GenerateStream when a provider
// only supports buffered generation.
var ErrStreamingNotSupported = errors.New("streaming not supported for this provider")

// StreamFunc receives incremental chunks of generated text. Returning an
// error aborts the stream.
type StreamFunc func(chunk string) error

// Generator defines the interface for chat model providers.
type Generator interface {
	// Generate produces a complete response for the conversation.
	Generate(ctx context.Context, messages []Message) (string, error)

	// GenerateStream produces a response incrementally, invoking fn for
	// each chunk as it arrives. Providers without streaming support
	// return ErrStreamingNotSupported.
	GenerateStream(ctx context.Context, messages []Message, fn StreamFunc) error

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources held by the provider.
	Close() error
}
