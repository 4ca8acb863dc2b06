// Package leafletcmder
package leafletcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/leaflet/cmd/leaflet/ask"
	authcmder "github.com/papercomputeco/leaflet/cmd/leaflet/auth"
	chatcmder "github.com/papercomputeco/leaflet/cmd/leaflet/chat"
	configcmder "github.com/papercomputeco/leaflet/cmd/leaflet/config"
	ingestcmder "github.com/papercomputeco/leaflet/cmd/leaflet/ingest"
	initcmder "github.com/papercomputeco/leaflet/cmd/leaflet/init"
	servecmder "github.com/papercomputeco/leaflet/cmd/leaflet/serve"
	sessionscmder "github.com/papercomputeco/leaflet/cmd/leaflet/sessions"
	versioncmder "github.com/papercomputeco/leaflet/cmd/version"
)

const leafletLongDesc string = `Leaflet lets you chat with your documents.

Ingest a PDF, markdown, or text file, then ask questions about it. Answers
come from the document's own text, with page citations.

Typical workflow:
  leaflet serve                 Run the API server
  leaflet ingest report.pdf     Ingest a document, starting a session
  leaflet ask "what is ...?"    Ask a single question
  leaflet chat                  Chat interactively`

const leafletShortDesc string = "Leaflet - Chat with your documents"

func NewLeafletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaflet",
		Short: leafletShortDesc,
		Long:  leafletLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing the .leaflet config (default: ./.leaflet or ~/.leaflet)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(sessionscmder.NewSessionsCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
