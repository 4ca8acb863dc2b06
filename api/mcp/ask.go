package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/storage"
)

var (
	askToolName    = "ask"
	askDescription = "Ask a question about an ingested document. Answers strictly from the document's content with [Page N] citations, and records the exchange in the session's history."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	SessionID string `json:"session_id" jsonschema:"the document session to ask within"`
	Question  string `json:"question" jsonschema:"the question to answer from the document"`
}

// AskOutput represents the output of the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	State   string         `json:"state"`
	Results []SearchResult `json:"results"`
}

// handleAsk processes an ask request by running a full turn.
func (s *Server) handleAsk(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	logger := s.config.Logger

	if input.SessionID == "" || input.Question == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "session_id and question are required"},
			},
		}, AskOutput{}, nil
	}

	logger.Debug("MCP ask request",
		zap.String("session_id", input.SessionID),
		zap.String("question", input.Question),
	)

	result, err := s.config.Turn.Run(ctx, input.SessionID, input.Question)
	if err != nil {
		msg := "failed to complete turn"
		if storage.IsNotFound(err) {
			msg = fmt.Sprintf("session %q not found", input.SessionID)
		} else {
			logger.Error("MCP ask turn failed", zap.Error(err))
		}
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: msg},
			},
		}, AskOutput{}, nil
	}

	output := AskOutput{
		Answer:  result.Answer,
		State:   string(result.State),
		Results: make([]SearchResult, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		output.Results = append(output.Results, SearchResult{
			Text:  r.Text,
			Page:  r.Page,
			Score: r.Score,
		})
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: result.Answer},
		},
	}, output, nil
}
