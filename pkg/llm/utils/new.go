package llmutils

import (
	"fmt"
	"time"

	"github.com/papercomputeco/leaflet/pkg/llm"
	"github.com/papercomputeco/leaflet/pkg/llm/provider/google"
	"github.com/papercomputeco/leaflet/pkg/llm/provider/ollama"
	"github.com/papercomputeco/leaflet/pkg/llm/provider/openai"
)

type NewGeneratorOpts struct {
	ProviderType string
	TargetURL    string
	APIKey       string
	Model        string
	Timeout      time.Duration
}

func NewGenerator(o *NewGeneratorOpts) (llm.Generator, error) {
	switch o.ProviderType {
	case "ollama", "":
		return ollama.NewGenerator(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			Timeout: o.Timeout,
		}), nil
	case "openai":
		return openai.NewGenerator(openai.Config{
			BaseURL: o.TargetURL,
			APIKey:  o.APIKey,
			Model:   o.Model,
			Timeout: o.Timeout,
		})
	case "google":
		return google.NewGenerator(google.Config{
			BaseURL: o.TargetURL,
			APIKey:  o.APIKey,
			Model:   o.Model,
			Timeout: o.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", o.ProviderType)
	}
}
