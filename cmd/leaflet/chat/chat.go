// Package chatcmder provides the chat command for an interactive
// conversation with the active document session.
package chatcmder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/leaflet/api"
	"github.com/papercomputeco/leaflet/pkg/cliui"
	"github.com/papercomputeco/leaflet/pkg/config"
	"github.com/papercomputeco/leaflet/pkg/dotdir"
	"github.com/papercomputeco/leaflet/pkg/logger"
	"github.com/papercomputeco/leaflet/pkg/sse"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("leaflet> ")
)

type chatCommander struct {
	sessionID string
	apiTarget string
	configDir string

	debug  bool
	logger *charmlog.Logger
}

const chatLongDesc string = `Start an interactive chat with an ingested document.

Uses the active session from "leaflet ingest" unless --session is given.
Each question is answered from the document's own text, streamed token by
token, with [Page N] citations. The conversation history is stored with
the session, so follow-up questions have context.

Examples:
  leaflet chat
  leaflet chat --session 3e8c21aa-...
  leaflet chat --api-target http://localhost:8080`

const chatShortDesc string = "Chat interactively with the active document"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.configDir = configDir

			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", defaults.Client.APITarget, "Leaflet API server URL")
	cmd.Flags().StringVarP(&cmder.sessionID, "session", "s", "", "Session ID (default: the active session)")

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.NewPretty(c.debug)

	sessionID := c.sessionID
	var fileName string
	if sessionID == "" {
		state, err := dotdir.NewManager().LoadSessionState(c.configDir)
		if err != nil {
			return fmt.Errorf("loading session state: %w", err)
		}
		if state == nil {
			return fmt.Errorf(`no active session: run "leaflet ingest <file>" first or pass --session`)
		}
		sessionID = state.SessionID
		fileName = state.FileName
	}

	fmt.Println()
	if fileName != "" {
		fmt.Printf("  %s %s\n",
			cliui.KeyStyle.Render("Document:"),
			cliui.ValueStyle.Render(fileName),
		)
	}
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Session:"),
		cliui.DimStyle.Render(sessionID),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your question and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		if err := c.askAndStream(sessionID, input); err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		fmt.Println()
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// streamDelta is the payload of one "message" event in the ask stream.
type streamDelta struct {
	Delta string `json:"delta"`
}

// streamError is the payload of an "error" event in the ask stream.
type streamError struct {
	Error string `json:"error"`
}

// askAndStream sends a question to the streaming ask endpoint and prints
// answer tokens to stdout as they arrive.
func (c *chatCommander) askAndStream(sessionID, question string) error {
	body, err := json.Marshal(api.AskRequest{Question: question})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("sending ask request",
		"api_target", c.apiTarget,
		"session_id", sessionID,
	)

	url := fmt.Sprintf("%s/v1/sessions/%s/ask?stream=true", c.apiTarget, sessionID)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	client := &http.Client{
		// LLM responses can be slow
		Timeout: 5 * time.Minute,
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	fmt.Print(assistantPrompt)

	reader := sse.NewReader(resp.Body)
	for {
		event, err := reader.Next()
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
		if event == nil {
			return nil
		}

		switch event.Type {
		case sse.TypeMessage:
			var delta streamDelta
			if err := json.Unmarshal([]byte(event.Data), &delta); err != nil {
				c.logger.Debug("failed to parse stream event", "err", err, "data", event.Data)
				continue
			}
			fmt.Print(delta.Delta)
		case sse.TypeDone:
			return nil
		case sse.TypeError:
			var streamErr streamError
			if err := json.Unmarshal([]byte(event.Data), &streamErr); err != nil || streamErr.Error == "" {
				return fmt.Errorf("stream failed")
			}
			return fmt.Errorf("stream failed: %s", streamErr.Error)
		}
	}
}
