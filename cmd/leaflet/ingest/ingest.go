// Package ingestcmder provides the ingest command for uploading a document
// and starting a chat session with it.
package ingestcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/api"
	"github.com/papercomputeco/leaflet/pkg/cliui"
	"github.com/papercomputeco/leaflet/pkg/config"
	"github.com/papercomputeco/leaflet/pkg/dotdir"
	"github.com/papercomputeco/leaflet/pkg/git"
	"github.com/papercomputeco/leaflet/pkg/logger"
)

type ingestCommander struct {
	filePath  string
	ownerID   string
	apiTarget string
	configDir string

	debug  bool
	logger *zap.Logger
}

const ingestLongDesc string = `Ingest a document and start a chat session.

Uploads the file to the leaflet API server, which extracts its text,
chunks it, embeds each chunk, and creates a session scoped to the
document. The new session becomes the active session for subsequent
"leaflet ask" and "leaflet chat" commands.

Supported file types: .pdf, .txt, .md

Examples:
  leaflet ingest report.pdf
  leaflet ingest notes.md --owner jane
  leaflet ingest report.pdf --api-target http://localhost:8080`

const ingestShortDesc string = "Ingest a document and start a session"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
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
			cmder.filePath = args[0]

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
	cmd.Flags().StringVarP(&cmder.ownerID, "owner", "o", "", "Owner ID to scope the session to (default: current repo or directory name)")

	return cmd
}

func (c *ingestCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if _, err := os.Stat(c.filePath); err != nil {
		return fmt.Errorf("reading %s: %w", c.filePath, err)
	}

	// Scope sessions to the current project unless an owner was given.
	if c.ownerID == "" {
		c.ownerID = git.RepoName()
	}

	fileName := filepath.Base(c.filePath)

	var result *api.IngestResponse
	err := cliui.Step(os.Stdout, fmt.Sprintf("Ingesting %s", fileName), func() error {
		var err error
		result, err = c.upload()
		return err
	})
	if err != nil {
		return err
	}

	// The new session becomes the active one for ask/chat.
	dotdirManager := dotdir.NewManager()
	state := &dotdir.SessionState{
		SessionID: result.SessionID,
		FileName:  result.FileName,
	}
	if err := dotdirManager.SaveSessionState(state, c.configDir); err != nil {
		return fmt.Errorf("saving session state: %w", err)
	}

	fmt.Printf("\n  %s %s %s\n",
		cliui.KeyStyle.Render("Session:"),
		cliui.ValueStyle.Render(result.SessionID),
		cliui.DimStyle.Render(fmt.Sprintf("(%d pages, %d chunks)", result.Pages, result.Chunks)),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render(`Ask questions with "leaflet ask" or "leaflet chat".`))

	return nil
}

// upload POSTs the file to the ingest endpoint as a multipart form.
func (c *ingestCommander) upload() (*api.IngestResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(c.filePath))
	if err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}

	f, err := os.Open(c.filePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", c.filePath, err)
	}
	defer f.Close()

	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.filePath, err)
	}

	if c.ownerID != "" {
		if err := writer.WriteField("owner_id", c.ownerID); err != nil {
			return nil, fmt.Errorf("building upload: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}

	url := c.apiTarget + "/v1/sessions"
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := &http.Client{
		// Embedding a large document can take a while.
		Timeout: 10 * time.Minute,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request to API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var errResp api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result api.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}
