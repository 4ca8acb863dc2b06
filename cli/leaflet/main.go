package main

import (
	"os"

	leafletcmder "github.com/papercomputeco/leaflet/cmd/leaflet"
)

func main() {
	cmd := leafletcmder.NewLeafletCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
