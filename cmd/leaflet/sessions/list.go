package sessionscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/leaflet/api"
	"github.com/papercomputeco/leaflet/pkg/cliui"
	"github.com/papercomputeco/leaflet/pkg/config"
	"github.com/papercomputeco/leaflet/pkg/dotdir"
)

const listLongDesc string = `List document sessions on the leaflet API server.

The active session (the one "leaflet ask" and "leaflet chat" use) is
marked with an asterisk.

Examples:
  leaflet sessions list
  leaflet sessions list --owner jane`

const listShortDesc string = "List document sessions"

type listCommander struct {
	apiTarget string
	ownerID   string
	configDir string
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
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
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", defaults.Client.APITarget, "Leaflet API server URL")
	cmd.Flags().StringVarP(&cmder.ownerID, "owner", "o", "", "Only list sessions for this owner ID")

	return cmd
}

func (c *listCommander) run() error {
	listURL, err := url.Parse(c.apiTarget)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	listURL.Path = "/v1/sessions"
	if c.ownerID != "" {
		q := listURL.Query()
		q.Set("owner", c.ownerID)
		listURL.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, listURL.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	var result api.SessionListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if result.Count == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	// Best effort: a missing state file just means nothing gets marked.
	activeID := ""
	if state, err := dotdir.NewManager().LoadSessionState(c.configDir); err == nil && state != nil {
		activeID = state.SessionID
	}

	fmt.Println()
	for _, session := range result.Sessions {
		marker := " "
		if session.ID == activeID {
			marker = cliui.SuccessMark
		}

		fmt.Printf("  %s %s  %s %s\n",
			marker,
			cliui.KeyStyle.Render(session.ID),
			cliui.ValueStyle.Render(session.DisplayName),
			cliui.DimStyle.Render(fmt.Sprintf("(%d pages, %d chunks, %s)",
				session.PageCount,
				session.ChunkCount,
				session.CreatedAt.Local().Format("2006-01-02 15:04"),
			)),
		)
	}
	fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf("%d sessions", result.Count)))

	return nil
}
