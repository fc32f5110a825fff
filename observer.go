package feedprobe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/feedprobe/internal/server"
	"github.com/jpalmerr/feedprobe/internal/store"
)

// Observer publishes the progress of a [Syncer] or [LoadGenerator] over HTTP.
//
// Register [Observer.RecordStep] with [WithStepCallback] or
// [Observer.RecordRound] with [WithRoundCallback], then call
// [Observer.Start]. The latest report of each tool is served as JSON at
// /api/status and streamed at /api/sse.
type Observer struct {
	runID  string
	store  *store.MemoryStore
	server *server.Server
	logger *slog.Logger
}

// NewObserver creates an [Observer] that will listen on port.
// Port 0 picks a free port; see [Observer.Addr].
func NewObserver(port int, logger *slog.Logger) (*Observer, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}
	if logger == nil {
		logger = slog.Default()
	}

	st := store.NewMemoryStore()
	return &Observer{
		runID:  uuid.NewString(),
		store:  st,
		server: server.NewServer(st, port, logger),
		logger: logger,
	}, nil
}

// RunID identifies this process run in every published report.
func (o *Observer) RunID() string {
	return o.runID
}

// Start serves the status API until ctx is cancelled.
// It returns once the listener is bound, or with the bind error.
func (o *Observer) Start(ctx context.Context) error {
	if o == nil {
		return errors.New("observer is nil")
	}
	if err := o.server.Start(ctx); err != nil {
		return err
	}
	o.logger.Info("status server listening", "addr", o.server.Addr().String(), "run_id", o.runID)
	return nil
}

// Addr returns the bound address, or nil before [Observer.Start].
func (o *Observer) Addr() net.Addr {
	return o.server.Addr()
}

// RecordStep publishes a sync step. Its signature matches [WithStepCallback].
func (o *Observer) RecordStep(step SyncStep) {
	report := store.Report{
		Source:       store.SourceSync,
		RunID:        o.runID,
		Sequence:     step.Iteration,
		Phase:        step.Phase.String(),
		PreviousSize: step.PreviousSize,
		BatchSize:    step.Size,
		LatencyMs:    step.Latency.Milliseconds(),
		RecordedAt:   step.FetchedAt,
	}
	if step.Cursor >= 0 {
		cursor := step.Cursor
		report.Cursor = &cursor
	}
	if report.RecordedAt.IsZero() {
		report.RecordedAt = time.Now()
	}
	o.store.Update(report)
}

// RecordRound publishes a load round. Its signature matches [WithRoundCallback].
func (o *Observer) RecordRound(round RoundReport) {
	report := store.Report{
		Source:     store.SourceStress,
		RunID:      o.runID,
		Sequence:   round.Round,
		Requests:   round.Requests,
		Succeeded:  round.Succeeded,
		Failed:     round.Failed,
		LatencyMs:  round.Duration.Milliseconds(),
		RecordedAt: round.StartedAt.Add(round.Duration),
	}
	if len(round.Errors) > 0 {
		msg := round.Errors[0]
		report.Error = &msg
	}
	o.store.Update(report)
}
