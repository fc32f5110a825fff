package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/feedprobe"
	"github.com/jpalmerr/feedprobe/config"
	"github.com/spf13/cobra"
)

// stressCmd runs the load generator.
var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Fire rounds of concurrent index requests",
	Long: `Run the load generator against the index endpoint.

Each round submits --requests identical requests to a pool of --workers
goroutines, waits for all of them, prints a tick line, pauses for --delay,
and starts the next round. A request fails on a transport error, a non-200
status, or a body that is not JSON; failures are reported but never stop the
run.

Example:
  feedprobe stress
  feedprobe stress --requests 500 --workers 50 --rounds 10`,
	RunE: runStress,
}

func init() {
	rootCmd.AddCommand(stressCmd)

	addCommonFlags(stressCmd)
	stressCmd.Flags().Int("requests", 0, "requests per round (default from config, 100)")
	stressCmd.Flags().Int("workers", 0, "worker pool size (default: requests per round)")
	stressCmd.Flags().Int("rounds", 0, "stop after this many rounds (0 runs forever)")
	stressCmd.Flags().Duration("delay", 0, "pause between rounds (default from config, 1ms)")
}

func runStress(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := setup(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("requests") {
		s.cfg.Stress.Requests, _ = cmd.Flags().GetInt("requests")
		if !cmd.Flags().Changed("workers") {
			s.cfg.Stress.Workers = s.cfg.Stress.Requests
		}
	}
	if cmd.Flags().Changed("workers") {
		s.cfg.Stress.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("rounds") {
		s.cfg.Stress.Rounds, _ = cmd.Flags().GetInt("rounds")
	}
	if cmd.Flags().Changed("delay") {
		d, _ := cmd.Flags().GetDuration("delay")
		delay := config.Duration(d)
		s.cfg.Stress.Delay = &delay
	}

	out := cmd.OutOrStdout()
	opts := config.LoadOptions(s.cfg, s.logger)
	opts = append(opts, feedprobe.WithRoundCallback(func(r feedprobe.RoundReport) {
		printRound(out, r)
	}))
	if s.observer != nil {
		opts = append(opts, feedprobe.WithRoundCallback(s.observer.RecordRound))
	}

	gen, err := feedprobe.NewLoadGenerator(s.target, opts...)
	if err != nil {
		return fmt.Errorf("failed to create load generator: %w", err)
	}

	return gen.Run(ctx)
}
