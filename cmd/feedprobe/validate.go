package main

import (
	"fmt"

	"github.com/jpalmerr/feedprobe/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without contacting the service.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a feedprobe configuration file without contacting the service.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  feedprobe validate -c feedprobe.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	host := config.ResolveHost("", cfg)
	if _, err := config.BuildTarget(host, cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Host:          %s\n", host)
	fmt.Fprintf(out, "  Timeout:       %s\n", cfg.Timeout.Duration())
	fmt.Fprintf(out, "  Sync:          every %s, size check %s\n", cfg.Sync.Interval.Duration(), cfg.Sync.SizeCheck)
	fmt.Fprintf(out, "  Stress:        %d requests x %d workers per round\n", cfg.Stress.Requests, cfg.Stress.Workers)
	if cfg.StatusPort != 0 {
		fmt.Fprintf(out, "  Status port:   %d\n", cfg.StatusPort)
	}

	return nil
}
