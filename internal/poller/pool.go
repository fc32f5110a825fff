package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TaskResult is the typed outcome of one pooled task.
type TaskResult struct {
	// Index is the task's position within its round.
	Index int

	// StatusCode is the HTTP status code observed, or zero.
	StatusCode int

	// Latency is how long the task took.
	Latency time.Duration

	// Err is nil on success.
	Err error
}

// Task performs one unit of work. index identifies the task within its round.
type Task func(ctx context.Context, index int) TaskResult

// Pool runs rounds of independent tasks with bounded concurrency.
//
// Every call to [Pool.RunRound] uses a fresh set of workers and returns only
// once each task in the round has finished. Nothing is carried across rounds.
type Pool struct {
	workers int
	logger  *slog.Logger
}

// NewPool creates a [Pool] running at most workers tasks at a time.
// A workers value below one is treated as one.
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{workers: workers, logger: logger}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int {
	return p.workers
}

// RunRound submits n copies of task and waits for all of them.
//
// The returned slice has one entry per task, ordered by index. Tasks that were
// never started because ctx was cancelled report ctx.Err().
func (p *Pool) RunRound(ctx context.Context, n int, task Task) []TaskResult {
	results := make([]TaskResult, n)

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			results[i] = TaskResult{Index: i, Err: err}
			continue
		}
		g.Go(func() error {
			results[i] = p.safeRun(ctx, task, i)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// safeRun calls task with panic recovery.
// A panic is logged with a correlation ID and turned into a failed result.
func (p *Pool) safeRun(ctx context.Context, task Task, index int) (result TaskResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.logger.Error("task panic",
				"correlation_id", correlationID,
				"index", index,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			result = TaskResult{
				Index:   index,
				Latency: time.Since(start),
				Err:     fmt.Errorf("task panic (correlation_id: %s)", correlationID),
			}
		}
	}()

	result = task(ctx, index)
	result.Index = index
	return result
}
