package embeddings

import (
	"context"
	"sync"
)

// Lazy defers construction of an Embedder until the first Embed call.
// Model acquisition is expensive, so the wrapped embedder is built exactly
// once: concurrent first calls share the same in-flight initialization and
// all observe the same result.
//
// Lazy is an explicitly constructed, injectable wrapper rather than ambient
// global state, so independent pipelines can hold independent instances.
type Lazy struct {
	factory func() (Embedder, error)

	once     sync.Once
	embedder Embedder
	initErr  error
}

// NewLazy wraps a factory that will be invoked on first use.
func NewLazy(factory func() (Embedder, error)) *Lazy {
	return &Lazy{factory: factory}
}

// Embed initializes the underlying embedder on first call and delegates.
// If initialization failed, every subsequent call returns the same error.
func (l *Lazy) Embed(ctx context.Context, text string) ([]float32, error) {
	l.once.Do(func() {
		l.embedder, l.initErr = l.factory()
	})
	if l.initErr != nil {
		return nil, l.initErr
	}
	return l.embedder.Embed(ctx, text)
}

// Close releases the underlying embedder if it was ever initialized.
func (l *Lazy) Close() error {
	if l.embedder != nil {
		return l.embedder.Close()
	}
	return nil
}

// Ensure Lazy implements Embedder
var _ Embedder = (*Lazy)(nil)
