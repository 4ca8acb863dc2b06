// Package sessionscmder provides the sessions command for listing and
// deleting document sessions.
package sessionscmder

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/leaflet/api"
)

const sessionsLongDesc string = `Manage document sessions.

A session is one ingested document plus its chat history. Sessions live
on the leaflet API server; deleting one removes its messages and
embedded chunks as well.

Use subcommands to list or delete sessions:
  leaflet sessions list               List all sessions
  leaflet sessions delete <id>        Delete a session

Examples:
  leaflet sessions list
  leaflet sessions list --owner jane
  leaflet sessions delete 3e8c21aa-...`

const sessionsShortDesc string = "Manage document sessions"

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: sessionsShortDesc,
		Long:  sessionsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

// decodeError extracts the API's error message from a non-2xx response.
func decodeError(resp *http.Response) error {
	respBody, _ := io.ReadAll(resp.Body)
	var errResp api.ErrorResponse
	if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, errResp.Error)
	}
	return fmt.Errorf("API returned status %d", resp.StatusCode)
}
