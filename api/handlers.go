package api

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/document"
	"github.com/papercomputeco/leaflet/pkg/storage"
)

// handleIngest creates a session from an uploaded document. Accepts either
// a multipart upload with a "file" field or a JSON body with pre-extracted
// pages.
func (s *Server) handleIngest(c *fiber.Ctx) error {
	fileName, pages, ownerID, err := s.readIngestInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	sessionID, err := s.config.Ingestor.Ingest(c.Context(), fileName, pages, ownerID)
	if err != nil {
		if errors.Is(err, document.ErrEmptyDocument) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("ingest failed",
			zap.String("file_name", fileName),
			zap.Error(err),
		)
		// Embedding and vector store failures are upstream dependencies.
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "ingest failed"})
	}

	session, err := s.config.Store.GetSession(c.Context(), sessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "reading session"})
	}

	return c.Status(fiber.StatusCreated).JSON(IngestResponse{
		SessionID: sessionID,
		FileName:  fileName,
		Pages:     session.PageCount,
		Chunks:    session.ChunkCount,
	})
}

// readIngestInput extracts the file name, pages, and owner from either a
// multipart upload or a JSON body.
func (s *Server) readIngestInput(c *fiber.Ctx) (string, []document.PageContent, string, error) {
	contentType := string(c.Request().Header.ContentType())

	if strings.HasPrefix(contentType, "multipart/form-data") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return "", nil, "", errors.New("file field is required")
		}

		// The PDF extractor needs a seekable file on disk.
		tmpDir, err := os.MkdirTemp("", "leaflet-upload-*")
		if err != nil {
			return "", nil, "", errors.New("staging upload failed")
		}
		defer os.RemoveAll(tmpDir)

		tmpPath := filepath.Join(tmpDir, filepath.Base(fileHeader.Filename))
		if err := c.SaveFile(fileHeader, tmpPath); err != nil {
			return "", nil, "", errors.New("staging upload failed")
		}

		pages, err := document.ExtractFile(tmpPath)
		if err != nil {
			return "", nil, "", err
		}

		return fileHeader.Filename, pages, c.FormValue("owner_id"), nil
	}

	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return "", nil, "", errors.New("invalid request body")
	}
	if req.FileName == "" {
		return "", nil, "", errors.New("file_name is required")
	}
	if len(req.Pages) == 0 {
		return "", nil, "", errors.New("pages are required")
	}

	return req.FileName, req.Pages, req.OwnerID, nil
}

// handleListSessions returns all sessions, optionally filtered by owner.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions, err := s.config.Store.ListSessions(c.Context(), c.Query("owner"))
	if err != nil {
		s.logger.Error("listing sessions failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list sessions"})
	}

	out := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, sessionResponse(session))
	}

	return c.JSON(SessionListResponse{
		Sessions: out,
		Count:    len(out),
	})
}

// handleGetSession returns a single session by ID.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	session, err := s.config.Store.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "reading session"})
	}

	return c.JSON(sessionResponse(session))
}

// handleDeleteSession removes a session, its messages, and its stored
// chunks.
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := s.config.Store.DeleteSession(c.Context(), id); err != nil {
		if storage.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "deleting session"})
	}

	// Chunks go with the session. A failed chunk delete is logged, not
	// surfaced: the session row is already gone.
	if err := s.config.Vectors.DeleteSession(c.Context(), id); err != nil {
		s.logger.Error("deleting session chunks failed",
			zap.String("session_id", id),
			zap.Error(err),
		)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleListMessages returns a session's conversation history oldest first.
func (s *Server) handleListMessages(c *fiber.Ctx) error {
	id := c.Params("id")

	if _, err := s.config.Store.GetSession(c.Context(), id); err != nil {
		if storage.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "reading session"})
	}

	messages, err := s.config.Store.ListMessages(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "listing messages"})
	}

	out := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, MessageResponse{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	return c.JSON(MessageListResponse{
		SessionID: id,
		Messages:  out,
		Count:     len(out),
	})
}

// handleSearch returns the raw retrieval results for a query without
// running generation.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	id := c.Params("id")

	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter is required"})
	}

	if _, err := s.config.Store.GetSession(c.Context(), id); err != nil {
		if storage.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "reading session"})
	}

	results := s.config.Retriever.Retrieve(c.Context(), id, query)

	return c.JSON(SearchResponse{
		Query:   query,
		Results: contextResults(results),
		Count:   len(results),
	})
}

func sessionResponse(session *storage.Session) SessionResponse {
	return SessionResponse{
		ID:          session.ID,
		DisplayName: session.DisplayName,
		OwnerID:     session.OwnerID,
		PageCount:   session.PageCount,
		ChunkCount:  session.ChunkCount,
		CreatedAt:   session.CreatedAt,
	}
}
