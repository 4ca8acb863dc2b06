package api

import (
	"errors"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Server is the API server for ingesting documents and running
// question/answer turns against them.
type Server struct {
	config Config
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server. The storage and vector drivers are
// injected to allow sharing with other components.
func NewServer(config Config, logger *zap.Logger) (*Server, error) {
	if config.Store == nil {
		return nil, errors.New("storage driver is required")
	}
	if config.Vectors == nil {
		return nil, errors.New("vector driver is required")
	}
	if config.Ingestor == nil {
		return nil, errors.New("ingestor is required")
	}
	if config.Turn == nil {
		return nil, errors.New("turn runner is required")
	}
	if config.Retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             64 * 1024 * 1024,
	})

	s := &Server{
		config: config,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Post("/sessions", s.handleIngest)
	v1.Get("/sessions", s.handleListSessions)
	v1.Get("/sessions/:id", s.handleGetSession)
	v1.Delete("/sessions/:id", s.handleDeleteSession)
	v1.Get("/sessions/:id/messages", s.handleListMessages)
	v1.Get("/sessions/:id/search", s.handleSearch)
	v1.Post("/sessions/:id/ask", s.handleAsk)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}
