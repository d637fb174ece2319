// Package main is the entry point for the widget-server CLI.
//
// Usage:
//
//	widget-server serve -c config.yaml    # Start the server
//	widget-server validate -c config.yaml # Validate configuration
//	widget-server version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags "-X main.version=1.0.0".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "widget-server",
	Short: "Serve command, proxy and static file widgets over HTTP",
	Long: `widget-server serves a fixed set of pages built from a YAML file:
an index page, shell command widgets, upstream proxy viewers, static files
and diagnostic pages.

Example config:
  server:
    address: ":8080"
  routes:
    - path: /uptime
      kind: command
      api_path: /api/uptime
      description: uptime
      command: uptime`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "widget-server %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}
