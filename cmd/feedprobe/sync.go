package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/feedprobe"
	"github.com/jpalmerr/feedprobe/config"
	"github.com/spf13/cobra"
)

// syncCmd runs the polling sync client.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the index batch, then poll for delta batches",
	Long: `Run the polling sync client.

The client fetches the index batch, derives a cursor from the last post's
timestamp (timestamp mod 1000), and requests the delta batch for that cursor.
The first delta batch must not be larger than the index batch (see
--size-check). It then keeps polling, one delta batch per interval, until
interrupted or --iterations is reached.

Example:
  feedprobe sync
  feedprobe sync --host http://10.0.0.5:4000 --interval 500ms
  feedprobe sync --iterations 1 --size-check strict`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	addCommonFlags(syncCmd)
	syncCmd.Flags().Duration("interval", 0, "pause between delta fetches (default from config, 2s)")
	syncCmd.Flags().Int("iterations", 0, "stop after this many delta fetches (0 polls forever)")
	syncCmd.Flags().String("size-check", "", "first delta check: non-strict, strict or off")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := setup(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("interval") {
		d, _ := cmd.Flags().GetDuration("interval")
		interval := config.Duration(d)
		s.cfg.Sync.Interval = &interval
	}
	if cmd.Flags().Changed("iterations") {
		s.cfg.Sync.Iterations, _ = cmd.Flags().GetInt("iterations")
	}
	if cmd.Flags().Changed("size-check") {
		s.cfg.Sync.SizeCheck, _ = cmd.Flags().GetString("size-check")
	}

	opts, err := config.SyncOptions(s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("invalid sync options: %w", err)
	}

	printer := stepPrinter{w: cmd.OutOrStdout()}
	opts = append(opts, feedprobe.WithStepCallback(printer.print))
	if s.observer != nil {
		opts = append(opts, feedprobe.WithStepCallback(s.observer.RecordStep))
	}

	syncer, err := feedprobe.NewSyncer(s.target, opts...)
	if err != nil {
		return fmt.Errorf("failed to create syncer: %w", err)
	}

	s.logger.Info("sync starting",
		"host", s.target.Host(),
		"interval", syncer.Interval().String(),
		"size_check", syncer.SizeCheck().String(),
	)

	if err := syncer.Run(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}
