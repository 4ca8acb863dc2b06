// Package servecmder provides the serve command for running the leaflet API server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/api"
	"github.com/papercomputeco/leaflet/api/mcp"
	"github.com/papercomputeco/leaflet/pkg/config"
	"github.com/papercomputeco/leaflet/pkg/credentials"
	"github.com/papercomputeco/leaflet/pkg/document"
	embeddingutils "github.com/papercomputeco/leaflet/pkg/embeddings/utils"
	"github.com/papercomputeco/leaflet/pkg/eventstream"
	"github.com/papercomputeco/leaflet/pkg/eventstream/kafka"
	"github.com/papercomputeco/leaflet/pkg/eventstream/nop"
	llmutils "github.com/papercomputeco/leaflet/pkg/llm/utils"
	"github.com/papercomputeco/leaflet/pkg/logger"
	"github.com/papercomputeco/leaflet/pkg/rag"
	storageutils "github.com/papercomputeco/leaflet/pkg/storage/utils"
	vectorutils "github.com/papercomputeco/leaflet/pkg/vector/utils"
)

// generationTimeout bounds a single LLM request. Local models can be slow
// on first load, so this is generous.
const generationTimeout = 5 * time.Minute

type ServeCommander struct {
	listen string

	storageProvider string
	sqlitePath      string
	storageTarget   string

	vectorProvider string
	vectorTarget   string
	vectorAPIKey   string

	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	embeddingDims     uint

	llmProvider string
	llmTarget   string
	llmModel    string
	llmAPIKey   string

	eventsProvider string
	eventsBrokers  []string
	eventsTopic    string

	ingestWorkers int
	configDir     string

	debug  bool
	logger *zap.Logger
}

// serveFlags is the flag registry for the serve command. Each entry maps a
// CLI flag to its dotted viper key so flag > env > config file > default
// precedence holds for every setting.
var serveFlags = config.FlagSet{
	config.FlagAPIListen: {
		Name: "listen", Shorthand: "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagStorageProv: {
		Name:        "storage-provider",
		ViperKey:    "storage.provider",
		Description: "Session storage provider (sqlite, libsql, postgres, memory)",
	},
	config.FlagSQLite: {
		Name: "sqlite", Shorthand: "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to the SQLite database file",
	},
	config.FlagStorageTgt: {
		Name:        "storage-target",
		ViperKey:    "storage.target",
		Description: "Storage connection URL (libsql or postgres)",
	},
	config.FlagVectorStoreProv: {
		Name:        "vector-store-provider",
		ViperKey:    "vector_store.provider",
		Description: "Vector store provider (sqlite, chroma, qdrant)",
	},
	config.FlagVectorStoreTgt: {
		Name:        "vector-store-target",
		ViperKey:    "vector_store.target",
		Description: "Vector store URL",
	},
	config.FlagVectorStoreKey: {
		Name:        "vector-store-api-key",
		ViperKey:    "vector_store.api_key",
		Description: "Vector store API key",
	},
	config.FlagEmbeddingProv: {
		Name:        "embedding-provider",
		ViperKey:    "embedding.provider",
		Description: "Embedding provider (ollama)",
	},
	config.FlagEmbeddingTgt: {
		Name:        "embedding-target",
		ViperKey:    "embedding.target",
		Description: "Embedding provider URL",
	},
	config.FlagEmbeddingModel: {
		Name:        "embedding-model",
		ViperKey:    "embedding.model",
		Description: "Embedding model name",
	},
	config.FlagEmbeddingDims: {
		Name:        "embedding-dimensions",
		ViperKey:    "embedding.dimensions",
		Description: "Embedding vector dimensions",
	},
	config.FlagLLMProv: {
		Name:        "llm-provider",
		ViperKey:    "llm.provider",
		Description: "Answer generation provider (ollama, openai, google)",
	},
	config.FlagLLMTgt: {
		Name:        "llm-target",
		ViperKey:    "llm.target",
		Description: "Answer generation provider URL",
	},
	config.FlagLLMModel: {
		Name: "llm-model", Shorthand: "m",
		ViperKey:    "llm.model",
		Description: "Answer generation model name",
	},
	config.FlagLLMKey: {
		Name:        "llm-api-key",
		ViperKey:    "llm.api_key",
		Description: "Answer generation provider API key",
	},
	config.FlagEventsProv: {
		Name:        "events-provider",
		ViperKey:    "events.provider",
		Description: "Event publisher (nop, kafka)",
	},
	config.FlagEventsTopic: {
		Name:        "events-topic",
		ViperKey:    "events.topic",
		Description: "Kafka topic for published events",
	},
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagStorageProv,
	config.FlagSQLite,
	config.FlagStorageTgt,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStoreKey,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagLLMProv,
	config.FlagLLMTgt,
	config.FlagLLMModel,
	config.FlagLLMKey,
	config.FlagEventsProv,
	config.FlagEventsTopic,
}

const serveLongDesc string = `Run the leaflet API server.

The server exposes endpoints for ingesting documents, asking questions,
and managing sessions, plus an MCP endpoint at /mcp for agent clients.

Settings resolve with flag > environment (LEAFLET_*) > config file > default
precedence. Run "leaflet config list" to inspect the persisted config.

Examples:
  leaflet serve
  leaflet serve --listen :9090 --sqlite ./leaflet.db
  leaflet serve --llm-provider openai --llm-model gpt-4o-mini --llm-api-key $KEY
  LEAFLET_EVENTS_PROVIDER=kafka leaflet serve`

const serveShortDesc string = "Run the leaflet API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.configDir = configDir

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)

			cmder.listen = v.GetString("api.listen")
			cmder.storageProvider = v.GetString("storage.provider")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.storageTarget = v.GetString("storage.target")
			cmder.vectorProvider = v.GetString("vector_store.provider")
			cmder.vectorTarget = v.GetString("vector_store.target")
			cmder.vectorAPIKey = v.GetString("vector_store.api_key")
			cmder.embeddingProvider = v.GetString("embedding.provider")
			cmder.embeddingTarget = v.GetString("embedding.target")
			cmder.embeddingModel = v.GetString("embedding.model")
			cmder.embeddingDims = v.GetUint("embedding.dimensions")
			cmder.llmProvider = v.GetString("llm.provider")
			cmder.llmTarget = v.GetString("llm.target")
			cmder.llmModel = v.GetString("llm.model")
			cmder.llmAPIKey = v.GetString("llm.api_key")
			cmder.eventsProvider = v.GetString("events.provider")
			cmder.eventsBrokers = v.GetStringSlice("events.brokers")
			cmder.eventsTopic = v.GetString("events.topic")

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageProv, &cmder.storageProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageTgt, &cmder.storageTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreKey, &cmder.vectorAPIKey)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, serveFlags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, serveFlags, config.FlagLLMProv, &cmder.llmProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagLLMTgt, &cmder.llmTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagLLMModel, &cmder.llmModel)
	config.AddStringFlag(cmd, serveFlags, config.FlagLLMKey, &cmder.llmAPIKey)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsProv, &cmder.eventsProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsTopic, &cmder.eventsTopic)

	cmd.Flags().IntVar(&cmder.ingestWorkers, "ingest-workers", rag.DefaultIngestWorkers, "Concurrent embedding workers during ingestion")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	c.llmAPIKey = resolveAPIKey(c.llmAPIKey, c.llmProvider, c.configDir)
	c.vectorAPIKey = resolveAPIKey(c.vectorAPIKey, c.vectorProvider, c.configDir)

	ctx := context.Background()

	store, err := storageutils.NewStorageDriver(ctx, &storageutils.NewStorageDriverOpts{
		ProviderType: c.storageProvider,
		DBPath:       c.sqlitePath,
		TargetURL:    c.storageTarget,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating storage driver: %w", err)
	}
	defer store.Close()

	vectors, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: c.vectorProvider,
		TargetURL:    c.vectorTarget,
		DBPath:       c.sqlitePath,
		APIKey:       c.vectorAPIKey,
		Dimensions:   c.embeddingDims,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer vectors.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embeddingProvider,
		TargetURL:    c.embeddingTarget,
		Model:        c.embeddingModel,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	generator, err := llmutils.NewGenerator(&llmutils.NewGeneratorOpts{
		ProviderType: c.llmProvider,
		TargetURL:    c.llmTarget,
		APIKey:       c.llmAPIKey,
		Model:        c.llmModel,
		Timeout:      generationTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}
	defer generator.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	chunker, err := document.NewChunker(document.DefaultChunkSize, document.DefaultOverlap)
	if err != nil {
		return fmt.Errorf("creating chunker: %w", err)
	}

	ingestor := rag.NewIngestor(chunker, embedder, vectors, store, publisher, c.logger,
		rag.WithWorkers(c.ingestWorkers))
	retriever := rag.NewRetriever(embedder, vectors, c.logger)
	answerer := rag.NewAnswerer(generator, c.logger)
	turn := rag.NewTurn(retriever, answerer, store, publisher, c.logger)

	mcpServer, err := mcp.NewServer(mcp.Config{
		Retriever: retriever,
		Turn:      turn,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	server, err := api.NewServer(api.Config{
		ListenAddr: c.listen,
		Store:      store,
		Vectors:    vectors,
		Ingestor:   ingestor,
		Turn:       turn,
		Retriever:  retriever,
		MCPHandler: mcpServer.Handler(),
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("starting API server",
		zap.String("listen", c.listen),
		zap.String("storage", c.storageProvider),
		zap.String("vector_store", c.vectorProvider),
		zap.String("embedding_model", c.embeddingModel),
		zap.String("llm_model", c.llmModel),
	)

	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

// resolveAPIKey falls back from the configured key to credentials.toml,
// then to the provider's environment variable.
func resolveAPIKey(key, provider, configDir string) string {
	if key != "" || !credentials.IsSupportedProvider(provider) {
		return key
	}

	if mgr, err := credentials.NewManager(configDir); err == nil {
		if stored, err := mgr.GetKey(provider); err == nil && stored != "" {
			return stored
		}
	}

	return os.Getenv(credentials.EnvVarForProvider(provider))
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.eventsProvider {
	case "kafka":
		c.logger.Info("publishing events to Kafka",
			zap.Strings("brokers", c.eventsBrokers),
			zap.String("topic", c.eventsTopic),
		)
		return kafka.NewPublisher(kafka.Config{
			Brokers: c.eventsBrokers,
			Topic:   c.eventsTopic,
		}, c.logger)
	case "nop", "":
		return nop.NewPublisher(), nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", c.eventsProvider)
	}
}
