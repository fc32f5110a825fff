package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/feedprobe"
	"github.com/jpalmerr/feedprobe/internal/mockserver"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// in-process feed so the demo needs no running service
	feed := mockserver.NewFeed(500)
	for i := int64(0); i < 50; i++ {
		feed.Append(time.Now().UnixMilli()+i, "seed")
	}
	go feed.Generate(ctx, 20*time.Millisecond)

	ts := httptest.NewServer(feed.Handler())
	defer ts.Close()

	target, err := feedprobe.NewTarget(ts.URL, feedprobe.WithTimeout(2*time.Second))
	if err != nil {
		slog.Error("failed to create target", "error", err)
		os.Exit(1)
	}

	syncer, err := feedprobe.NewSyncer(target,
		feedprobe.WithIterations(3),
		feedprobe.WithInterval(500*time.Millisecond),
		feedprobe.WithStepCallback(func(step feedprobe.SyncStep) {
			fmt.Printf("step %d: cursor=%d got %d posts\n", step.Iteration, step.Cursor, step.Size)
		}),
	)
	if err != nil {
		slog.Error("failed to create syncer", "error", err)
		os.Exit(1)
	}
	if err := syncer.Run(ctx); err != nil {
		slog.Error("sync failed", "error", err)
		os.Exit(1)
	}

	gen, err := feedprobe.NewLoadGenerator(target,
		feedprobe.WithRequests(50),
		feedprobe.WithRounds(2),
		feedprobe.WithRoundCallback(func(r feedprobe.RoundReport) {
			fmt.Printf("round %d: %d ok, %d failed in %s\n", r.Round, r.Succeeded, r.Failed, r.Duration)
		}),
	)
	if err != nil {
		slog.Error("failed to create load generator", "error", err)
		os.Exit(1)
	}
	_ = gen.Run(ctx)
}
