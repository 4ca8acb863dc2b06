package api

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/rag"
	"github.com/papercomputeco/leaflet/pkg/sse"
	"github.com/papercomputeco/leaflet/pkg/storage"
	"github.com/papercomputeco/leaflet/pkg/vector"
)

// handleAsk runs a question/answer turn against a session. With
// ?stream=true the answer is delivered as SSE message events followed by
// a done event carrying the full payload; otherwise the completed answer
// is returned as JSON.
//
// Retrieval and generation failures never surface as 5xx here: retrieval
// fails open and generation falls back, so the turn always completes with
// an answer.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	if c.QueryBool("stream") {
		return s.handleAskStream(c, sessionID, req.Question)
	}

	result, err := s.config.Turn.Run(c.Context(), sessionID, req.Question)
	if err != nil {
		return s.askError(c, sessionID, err)
	}

	return c.JSON(askResponse(result))
}

// handleAskStream streams the turn's answer as SSE. The pipe gives direct
// backpressure: every delta written by the generator reaches the client
// before the next one is produced.
func (s *Server) handleAskStream(c *fiber.Ctx, sessionID, question string) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Connection", "keep-alive")

	// Detach from the fiber context: the turn outlives this handler.
	ctx := context.Background()

	pr, pw := io.Pipe()
	go s.streamTurn(ctx, pw, sessionID, question)

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func (s *Server) streamTurn(ctx context.Context, pw *io.PipeWriter, sessionID, question string) {
	defer pw.Close()

	writer := sse.NewWriter(pw)

	result, err := s.config.Turn.RunStream(ctx, sessionID, question, func(chunk string) error {
		data, err := json.Marshal(map[string]string{"delta": chunk})
		if err != nil {
			return err
		}
		return writer.Write(&sse.Event{Type: sse.TypeMessage, Data: string(data)})
	})
	if err != nil {
		s.logger.Error("streamed turn failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		data, _ := json.Marshal(ErrorResponse{Error: turnErrorMessage(err)})
		_ = writer.Write(&sse.Event{Type: sse.TypeError, Data: string(data)})
		return
	}

	data, err := json.Marshal(askResponse(result))
	if err != nil {
		s.logger.Error("encoding final answer failed", zap.Error(err))
		return
	}
	_ = writer.Write(&sse.Event{Type: sse.TypeDone, Data: string(data)})
}

// askError maps turn failures onto the error taxonomy: unknown session is
// 404, persistence failures are 500.
func (s *Server) askError(c *fiber.Ctx, sessionID string, err error) error {
	if storage.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	s.logger.Error("turn failed",
		zap.String("session_id", sessionID),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: turnErrorMessage(err)})
}

func turnErrorMessage(err error) string {
	if storage.IsNotFound(err) {
		return "session not found"
	}
	return "failed to complete turn"
}

func askResponse(result *rag.TurnResult) AskResponse {
	return AskResponse{
		Answer:  result.Answer,
		State:   string(result.State),
		Results: contextResults(result.Results),
	}
}

func contextResults(results []vector.QueryResult) []ContextResult {
	out := make([]ContextResult, 0, len(results))
	for _, result := range results {
		out = append(out, ContextResult{
			Text:  result.Text,
			Page:  result.Page,
			Score: result.Score,
		})
	}
	return out
}
