package config

const (
	defaultAPIListen       = ":8080"
	defaultClientAPITarget = "http://localhost:8080"

	defaultStorageProvider = "sqlite"
	defaultVectorProvider  = "sqlite"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultLLMProvider = "ollama"
	defaultLLMTarget   = "http://localhost:11434"
	defaultLLMModel    = "llama3.2"

	defaultEventsProvider = "nop"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider: defaultLLMProvider,
			Target:   defaultLLMTarget,
			Model:    defaultLLMModel,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
		},
	}
}
