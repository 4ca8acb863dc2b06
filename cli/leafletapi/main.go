package main

import (
	"os"

	servecmder "github.com/papercomputeco/leaflet/cmd/leaflet/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "leafletapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing the .leaflet config (default: ./.leaflet or ~/.leaflet)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
