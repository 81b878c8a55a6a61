// Mothership discovers and controls multi-room audio zones on the local
// network.
//
// It browses mDNS for WiiM/Linkplay and Bluesound/BluOS players, keeps a
// live registry of every zone it finds and exposes three front ends: an
// interactive terminal dashboard, a JSON-over-HTTP bridge with websocket
// push for local frontends, and one-shot scan output for scripting.
//
// Usage:
//
//	mothership dashboard [flags]
//	mothership serve [flags]
//	mothership scan [flags]
//
// See 'mothership --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RomRMX/mothership/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mothership",
	Short: "LAN audio zone discovery and control",
	Long: `Mothership discovers WiiM/Linkplay and Bluesound/BluOS players on the
local network and keeps them under one control surface.

Zones are discovered over mDNS, polled for live playback state and
controlled through each vendor's HTTP API. Preferences, saved groups and
filter settings persist in a YAML config file in the OS config directory.`,
	Version: version.Version,
}

// Global flags shared by every subcommand
var (
	configPath string
	logLevel   string
	mockZones  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: OS config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty disables logging")
	rootCmd.PersistentFlags().BoolVar(&mockZones, "mock", false, "Use deterministic fixture zones instead of network discovery")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mothership %s (commit: %s)\n", version.Version, version.Commit)
	},
}
