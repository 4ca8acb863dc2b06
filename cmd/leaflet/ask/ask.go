// Package askcmder provides the ask command for one-shot questions against
// the active document session.
package askcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/api"
	"github.com/papercomputeco/leaflet/pkg/cliui"
	"github.com/papercomputeco/leaflet/pkg/config"
	"github.com/papercomputeco/leaflet/pkg/dotdir"
	"github.com/papercomputeco/leaflet/pkg/logger"
	"github.com/papercomputeco/leaflet/pkg/utils"
)

type askCommander struct {
	question    string
	sessionID   string
	apiTarget   string
	configDir   string
	showSources bool

	debug  bool
	logger *zap.Logger
}

const askLongDesc string = `Ask a single question about an ingested document.

Uses the active session from "leaflet ingest" unless --session is given.
The answer is grounded in the document's text and cites its sources as
[Page N] markers. Pass --sources to also print the retrieved passages.

Examples:
  leaflet ask "What were the quarterly results?"
  leaflet ask "Who is the author?" --session 3e8c21aa-...
  leaflet ask "Summarize chapter 2" --sources`

const askShortDesc string = "Ask a question about the active document"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.ExactArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.question = args[0]

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
	cmd.Flags().BoolVar(&cmder.showSources, "sources", false, "Print the retrieved passages below the answer")

	return cmd
}

func (c *askCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	sessionID, fileName, err := resolveSession(c.sessionID, c.configDir)
	if err != nil {
		return err
	}

	if fileName != "" {
		fmt.Printf("\n  %s %s\n\n",
			cliui.KeyStyle.Render("Document:"),
			cliui.ValueStyle.Render(fileName),
		)
	}

	result, err := Ask(c.apiTarget, sessionID, c.question)
	if err != nil {
		return err
	}

	fmt.Println(cliui.HighlightCitations(result.Answer))

	if c.showSources && len(result.Results) > 0 {
		fmt.Println()
		for i, r := range result.Results {
			text := strings.ReplaceAll(utils.Truncate(r.Text, 120), "\n", " ")
			fmt.Printf("  %s %s %s\n",
				cliui.KeyStyle.Render(fmt.Sprintf("#%d", i+1)),
				cliui.DimStyle.Render(fmt.Sprintf("[Page %d] score %.3f", r.Page, r.Score)),
				cliui.ValueStyle.Render(text),
			)
		}
	}
	fmt.Println()

	return nil
}

// resolveSession returns the explicit session ID when given, or falls back
// to the active session saved by "leaflet ingest".
func resolveSession(sessionID, configDir string) (id, fileName string, err error) {
	if sessionID != "" {
		return sessionID, "", nil
	}

	state, err := dotdir.NewManager().LoadSessionState(configDir)
	if err != nil {
		return "", "", fmt.Errorf("loading session state: %w", err)
	}
	if state == nil {
		return "", "", fmt.Errorf(`no active session: run "leaflet ingest <file>" first or pass --session`)
	}

	return state.SessionID, state.FileName, nil
}

// Ask sends a question to the ask endpoint and returns the completed answer.
// Exported so the chat command's non-streaming path can reuse it.
func Ask(apiTarget, sessionID, question string) (*api.AskResponse, error) {
	body, err := json.Marshal(api.AskRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/sessions/%s/ask", apiTarget, sessionID)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		// LLM responses can be slow
		Timeout: 5 * time.Minute,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request to API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result api.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}
