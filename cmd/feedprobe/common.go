package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jpalmerr/feedprobe"
	"github.com/jpalmerr/feedprobe/config"
	"github.com/spf13/cobra"
)

// newLogger creates a JSON logger for CLI use.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// addCommonFlags registers the flags shared by sync and stress.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file (optional)")
	cmd.Flags().String("host", "", "feed service base URL (overrides config and HOST)")
	cmd.Flags().String("env-file", ".env", "dotenv file loaded before resolving HOST")
	cmd.Flags().Int("status-port", 0, "serve progress on this port (0 disables)")
	cmd.Flags().BoolP("verbose", "v", false, "enable debug logging")
}

// runSetup holds everything sync and stress share after flag parsing.
type runSetup struct {
	cfg      *config.Config
	target   feedprobe.Target
	logger   *slog.Logger
	observer *feedprobe.Observer
}

// setup loads the environment and config, resolves the target and starts the
// status server when one is requested.
func setup(ctx context.Context, cmd *cobra.Command) (*runSetup, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Info("config loaded", "path", configFile)
	}

	if cmd.Flags().Changed("status-port") {
		cfg.StatusPort, _ = cmd.Flags().GetInt("status-port")
	}

	flagHost, _ := cmd.Flags().GetString("host")
	host := config.ResolveHost(flagHost, cfg)

	target, err := config.BuildTarget(host, cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid host: %w", err)
	}

	s := &runSetup{cfg: cfg, target: target, logger: logger}

	if cfg.StatusPort != 0 {
		observer, err := feedprobe.NewObserver(cfg.StatusPort, logger)
		if err != nil {
			return nil, err
		}
		if err := observer.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start status server: %w", err)
		}
		s.observer = observer
	}

	return s, nil
}
