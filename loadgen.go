package feedprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/feedprobe/internal/poller"
)

const (
	defaultRequestsPerRound = 100
	defaultRoundDelay       = time.Millisecond

	// maxErrorSamples caps how many distinct failure messages a round keeps.
	maxErrorSamples = 5
)

// RoundReport summarises one round of the [LoadGenerator].
type RoundReport struct {
	// ID uniquely identifies the round.
	ID string

	// Round counts rounds from 1.
	Round int

	// Requests is the number of requests submitted.
	Requests int

	// Succeeded and Failed always add up to Requests.
	Succeeded int
	Failed    int

	// Errors holds up to five distinct failure messages.
	Errors []string

	// StartedAt and Duration time the whole round, join included.
	StartedAt time.Time
	Duration  time.Duration

	// MaxLatency is the slowest single request in the round.
	MaxLatency time.Duration
}

// OK reports whether every request in the round succeeded.
func (r RoundReport) OK() bool {
	return r.Failed == 0
}

// LoadGenerator fires rounds of identical concurrent requests at the index
// endpoint.
//
// Each round submits a fixed number of requests to a bounded worker pool,
// waits for every one of them, reports a [RoundReport], pauses briefly, and
// starts the next round. Failures are counted, never fatal.
type LoadGenerator struct {
	target    Target
	client    *poller.Client
	pool      *poller.Pool
	requests  int
	delay     time.Duration
	rounds    int
	logger    *slog.Logger
	callbacks []func(RoundReport)
}

// NewLoadGenerator creates a [LoadGenerator] for target.
//
// Defaults:
//   - Requests per round: 100
//   - Workers: equal to requests per round
//   - Delay between rounds: 1ms
//   - Rounds: unbounded
func NewLoadGenerator(target Target, opts ...LoadOption) (*LoadGenerator, error) {
	if target.host == "" {
		return nil, errors.New("target is required (use NewTarget)")
	}

	cfg := &loadConfig{
		requests: defaultRequestsPerRound,
		delay:    defaultRoundDelay,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	workers := cfg.workers
	if workers == 0 {
		workers = cfg.requests
	}
	if workers > cfg.requests {
		workers = cfg.requests
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &LoadGenerator{
		target:    target,
		client:    poller.NewClient(workers),
		pool:      poller.NewPool(workers, logger),
		requests:  cfg.requests,
		delay:     cfg.delay,
		rounds:    cfg.rounds,
		logger:    logger,
		callbacks: cfg.callbacks,
	}, nil
}

// Requests returns the number of requests submitted per round.
func (g *LoadGenerator) Requests() int {
	return g.requests
}

// Workers returns the size of the per-round worker pool.
func (g *LoadGenerator) Workers() int {
	return g.pool.Workers()
}

// Run executes rounds until the configured round count is reached or ctx is
// cancelled. It always returns nil on those paths; individual request
// failures are reported through [RoundReport], not as errors.
func (g *LoadGenerator) Run(ctx context.Context) error {
	defer g.client.Close()

	g.logger.Info("load generator starting",
		"url", g.target.IndexURL(),
		"requests_per_round", g.requests,
		"workers", g.pool.Workers(),
	)

	for round := 1; g.rounds == 0 || round <= g.rounds; round++ {
		if ctx.Err() != nil {
			return nil
		}

		report := g.RunRound(ctx, round)
		if ctx.Err() != nil {
			// a cancelled round is incomplete; don't report it
			return nil
		}
		g.emit(report)

		if !sleepContext(ctx, g.delay) {
			return nil
		}
	}
	return nil
}

// RunRound runs one round and returns its report. It returns only after every
// request in the round has finished.
func (g *LoadGenerator) RunRound(ctx context.Context, round int) RoundReport {
	report := RoundReport{
		ID:        uuid.NewString(),
		Round:     round,
		Requests:  g.requests,
		StartedAt: time.Now(),
	}

	results := g.pool.RunRound(ctx, g.requests, g.request)
	report.Duration = time.Since(report.StartedAt)

	seen := make(map[string]struct{})
	for _, r := range results {
		if r.Latency > report.MaxLatency {
			report.MaxLatency = r.Latency
		}
		if r.Err == nil {
			report.Succeeded++
			continue
		}

		report.Failed++
		msg := r.Err.Error()
		if _, dup := seen[msg]; !dup && len(report.Errors) < maxErrorSamples {
			seen[msg] = struct{}{}
			report.Errors = append(report.Errors, msg)
		}
		if ctx.Err() == nil {
			g.logger.Warn("request failed", "round", round, "index", r.Index, "error", msg)
		}
	}

	return report
}

// request is the pooled task: one index fetch whose body must be JSON.
func (g *LoadGenerator) request(ctx context.Context, _ int) poller.TaskResult {
	url := g.target.IndexURL()
	resp := g.client.Fetch(ctx, url, g.target.headers, g.target.timeout)

	result := poller.TaskResult{
		StatusCode: resp.StatusCode,
		Latency:    resp.Latency,
	}

	switch {
	case resp.Error != nil:
		result.Err = resp.Error
	case resp.StatusCode != http.StatusOK:
		result.Err = &StatusError{URL: url, StatusCode: resp.StatusCode}
	case !json.Valid(resp.Body):
		result.Err = fmt.Errorf("%w: body is not valid JSON", ErrMalformedResponse)
	}

	return result
}

// emit logs the round and hands it to every registered callback.
func (g *LoadGenerator) emit(report RoundReport) {
	attrs := []any{
		"round", report.Round,
		"round_id", report.ID,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration_ms", report.Duration.Milliseconds(),
		"max_latency_ms", report.MaxLatency.Milliseconds(),
	}
	if report.OK() {
		g.logger.Info("round complete", attrs...)
	} else {
		g.logger.Warn("round complete with failures", attrs...)
	}

	for _, cb := range g.callbacks {
		invokeCallbackSafe(g.logger, "round callback", func() { cb(report) })
	}
}
