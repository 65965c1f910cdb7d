package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agorad",
	Short: "Agora - real-time forum backend",
	Long: `Agorad serves the agora forum API together with its websocket
broadcast layer. Clients fetch collections over REST, join per-resource
rooms over the /ws endpoint and receive every accepted mutation as a
room-scoped event.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"agorad version %s\nCommit: %s\n", Version, Commit,
	))
	rootCmd.AddCommand(serveCmd)
}
