// Package google provides a chat generator backed by the Gemini API.
package google

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/leaflet/pkg/llm"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini generator.
type Config struct {
	// BaseURL is the API base URL (default: the public Gemini endpoint).
	BaseURL string

	// APIKey is the Gemini API key.
	APIKey string

	// Model is the model to use (default: gemini-2.5-flash).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Generator produces chat completions via the Gemini generateContent API.
type Generator struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewGenerator creates a new Gemini chat generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Generator{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// buildRequest maps the conversation onto Gemini's content format.
// System messages become the system instruction; assistant messages use
// the "model" role.
func buildRequest(messages []llm.Message) generateRequest {
	var reqBody generateRequest
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			reqBody.SystemInstruction = &content{
				Parts: []part{{Text: msg.Content}},
			}
		case llm.RoleAssistant:
			reqBody.Contents = append(reqBody.Contents, content{
				Role:  "model",
				Parts: []part{{Text: msg.Content}},
			})
		default:
			reqBody.Contents = append(reqBody.Contents, content{
				Role:  "user",
				Parts: []part{{Text: msg.Content}},
			})
		}
	}
	return reqBody
}

func (g *Generator) send(ctx context.Context, messages []llm.Message, stream bool) (*http.Response, error) {
	reqBody := buildRequest(messages)

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	method := "generateContent"
	query := ""
	if stream {
		method = "streamGenerateContent"
		query = "?alt=sse"
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:%s%s", g.baseURL, g.model, method, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("gemini error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, string(body))
	}

	return resp, nil
}

// Generate produces a complete response for the conversation.
func (g *Generator) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	resp, err := g.send(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return candidateText(genResp)
}

// GenerateStream produces a response incrementally via SSE.
func (g *Generator) GenerateStream(ctx context.Context, messages []llm.Message, fn llm.StreamFunc) error {
	resp, err := g.send(ctx, messages, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}

		text, err := candidateText(chunk)
		if err != nil {
			continue
		}
		if text != "" {
			if err := fn(text); err != nil {
				return err
			}
		}
	}

	return scanner.Err()
}

// candidateText extracts the concatenated text of the first candidate.
func candidateText(resp generateResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

// ModelName returns the name of the model being used.
func (g *Generator) ModelName() string {
	return g.model
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}

// Ensure Generator implements llm.Generator
var _ llm.Generator = (*Generator)(nil)
