package sessionscmder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/leaflet/pkg/cliui"
	"github.com/papercomputeco/leaflet/pkg/config"
	"github.com/papercomputeco/leaflet/pkg/dotdir"
)

const deleteLongDesc string = `Delete a document session.

Removes the session, its chat history, and its embedded chunks from the
leaflet API server. If the deleted session was the active one, the
active session state is cleared.

Examples:
  leaflet sessions delete 3e8c21aa-...`

const deleteShortDesc string = "Delete a document session"

type deleteCommander struct {
	sessionID string
	apiTarget string
	configDir string
}

func newDeleteCmd() *cobra.Command {
	cmder := &deleteCommander{}

	cmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: deleteShortDesc,
		Long:  deleteLongDesc,
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
		RunE: func(_ *cobra.Command, args []string) error {
			cmder.sessionID = args[0]
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", defaults.Client.APITarget, "Leaflet API server URL")

	return cmd
}

func (c *deleteCommander) run() error {
	url := fmt.Sprintf("%s/v1/sessions/%s", c.apiTarget, c.sessionID)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}

	// Clear the active session marker if it pointed at the deleted session.
	dotdirManager := dotdir.NewManager()
	if state, err := dotdirManager.LoadSessionState(c.configDir); err == nil && state != nil && state.SessionID == c.sessionID {
		if err := dotdirManager.ClearSessionState(c.configDir); err != nil {
			return fmt.Errorf("clearing session state: %w", err)
		}
	}

	fmt.Printf("  %s Deleted session %s\n", cliui.SuccessMark, cliui.KeyStyle.Render(c.sessionID))
	return nil
}
