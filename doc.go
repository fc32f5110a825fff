// Package feedprobe provides test clients for a feed service that serves
// batches of timestamped posts.
//
// The service exposes two endpoints:
//
//   - GET /api/v1/hi returns the index batch, the most recent posts.
//   - GET /api/v1/s/{cursor} returns the delta batch for a cursor in [0, 999].
//
// Both answer with a JSON document holding a "batch" array of posts and an
// optional "rates" object. Each post carries a timestamp in its "d" field.
//
// # Quick Start
//
// Follow the feed with the polling sync client:
//
//	target, _ := feedprobe.NewTarget("http://localhost:4000")
//	syncer, _ := feedprobe.NewSyncer(target)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	err := syncer.Run(ctx) // blocks until ctx is cancelled or a check fails
//
// Or put the index endpoint under load:
//
//	gen, _ := feedprobe.NewLoadGenerator(target,
//	    feedprobe.WithRequests(100),
//	    feedprobe.WithRoundCallback(func(r feedprobe.RoundReport) {
//	        fmt.Println("round", r.Round, "failed", r.Failed)
//	    }),
//	)
//	gen.Run(ctx)
//
// # Cursors
//
// The cursor for a delta request is the last post's timestamp modulo 1000,
// see [Timestamp.Cursor]. The first delta batch must not be larger than the
// batch its cursor came from; [SizeCheck] selects how strictly that is
// enforced.
//
// # Observing a run
//
// An [Observer] publishes the latest [SyncStep] or [RoundReport] as JSON at
// /api/status and as Server-Sent Events at /api/sse:
//
//	obs, _ := feedprobe.NewObserver(9090, logger)
//	_ = obs.Start(ctx)
//	syncer, _ := feedprobe.NewSyncer(target, feedprobe.WithStepCallback(obs.RecordStep))
//
// # Thread Safety
//
// [Target] is immutable and safe for concurrent use. A [Syncer] or
// [LoadGenerator] must not be run concurrently with itself. Callbacks are
// invoked synchronously from the running tool and must not block.
package feedprobe
