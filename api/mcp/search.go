package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

var (
	searchToolName    = "search"
	searchDescription = "Search a document session's chunks by semantic similarity. Returns the most relevant passages with their source pages and scores."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	SessionID string `json:"session_id" jsonschema:"the document session to search within"`
	Query     string `json:"query" jsonschema:"the search query text to find relevant passages"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	Text  string  `json:"text"`
	Page  int     `json:"page"`
	Score float32 `json:"score"`
}

// SearchOutput represents the output of the search tool.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	if input.SessionID == "" || input.Query == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "session_id and query are required"},
			},
		}, SearchOutput{}, nil
	}

	logger.Debug("MCP search request",
		zap.String("session_id", input.SessionID),
		zap.String("query", input.Query),
	)

	results := s.config.Retriever.Retrieve(ctx, input.SessionID, input.Query)

	output := SearchOutput{
		Query:   input.Query,
		Results: make([]SearchResult, 0, len(results)),
		Count:   len(results),
	}
	for _, result := range results {
		output.Results = append(output.Results, SearchResult{
			Text:  result.Text,
			Page:  result.Page,
			Score: result.Score,
		})
	}

	summary := fmt.Sprintf("Found %d relevant passage(s) for %q", output.Count, input.Query)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
		},
	}, output, nil
}
