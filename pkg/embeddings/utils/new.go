// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/papercomputeco/leaflet/pkg/embeddings"
	"github.com/papercomputeco/leaflet/pkg/embeddings/ollama"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
}

// NewEmbedder creates an embedder for the configured provider, wrapped in a
// lazy initializer so model acquisition happens on first use.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "ollama", "":
		return embeddings.NewLazy(func() (embeddings.Embedder, error) {
			return ollama.NewEmbedder(ollama.EmbedderConfig{
				BaseURL: o.TargetURL,
				Model:   o.Model,
			})
		}), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
