// Package main is the entry point for the feedprobe CLI.
//
// Usage:
//
//	feedprobe sync                      # Follow the feed with the polling sync client
//	feedprobe stress --requests 100     # Hammer the index endpoint in rounds
//	feedprobe validate -c feedprobe.yaml
//	feedprobe version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "feedprobe",
	Short: "Test clients for a timestamped feed service",
	Long: `feedprobe exercises a feed service that serves batches of timestamped posts.

The service address is taken from --host, the config file's host, the HOST
environment variable (a .env file in the working directory is loaded first),
or http://localhost:4000, in that order.

Quick start:
  feedprobe sync                 # fetch the index, then poll for deltas
  feedprobe stress               # 100 concurrent index requests per round

Example config:
  host: ${HOST:-http://localhost:4000}
  sync:
    interval: 2s
    size_check: non-strict
  stress:
    requests: 100`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this feedprobe binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "feedprobe %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
