package feedprobe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jpalmerr/feedprobe/internal/poller"
)

const defaultSyncInterval = 2 * time.Second

// Phase is the state of a [Syncer] run.
type Phase int

const (
	// PhaseAwaitingFirstDelta lasts from the index fetch until the first
	// delta batch has been received and checked.
	PhaseAwaitingFirstDelta Phase = iota

	// PhaseSteadyPolling covers every delta fetch after the first. No size
	// check applies in this phase.
	PhaseSteadyPolling
)

// String returns the phase name used in logs and reports.
func (p Phase) String() string {
	switch p {
	case PhaseAwaitingFirstDelta:
		return "awaiting_first_delta"
	case PhaseSteadyPolling:
		return "steady_polling"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// SizeCheck selects how the first delta batch is compared with the batch
// its cursor came from.
type SizeCheck int

const (
	// SizeCheckNonStrict requires len(delta) <= len(previous).
	SizeCheckNonStrict SizeCheck = iota

	// SizeCheckStrict requires len(delta) < len(previous).
	SizeCheckStrict

	// SizeCheckOff disables the comparison.
	SizeCheckOff
)

// String returns the configuration name of the check.
func (c SizeCheck) String() string {
	switch c {
	case SizeCheckNonStrict:
		return "non-strict"
	case SizeCheckStrict:
		return "strict"
	case SizeCheckOff:
		return "off"
	default:
		return fmt.Sprintf("sizecheck(%d)", int(c))
	}
}

// Allows reports whether a delta of size delta passes the check against a
// previous batch of size previous.
func (c SizeCheck) Allows(previous, delta int) bool {
	switch c {
	case SizeCheckStrict:
		return delta < previous
	case SizeCheckOff:
		return true
	default:
		return delta <= previous
	}
}

// ParseSizeCheck parses "non-strict", "strict" or "off".
// An empty string selects [SizeCheckNonStrict].
func ParseSizeCheck(s string) (SizeCheck, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "non-strict", "nonstrict":
		return SizeCheckNonStrict, nil
	case "strict":
		return SizeCheckStrict, nil
	case "off", "none":
		return SizeCheckOff, nil
	default:
		return SizeCheckNonStrict, fmt.Errorf("unknown size check %q (expected 'strict', 'non-strict' or 'off')", s)
	}
}

// SyncStep describes one completed fetch made by a [Syncer].
type SyncStep struct {
	// Iteration is 0 for the index fetch and counts delta fetches from 1.
	Iteration int

	// Phase is the state the syncer was in when the fetch was made.
	Phase Phase

	// URL is the requested URL.
	URL string

	// Cursor is the cursor sent with a delta fetch, or -1 for the index fetch.
	Cursor int

	// PreviousSize is the size of the batch the cursor was derived from.
	// Zero for the index fetch.
	PreviousSize int

	// Size is the number of posts in the fetched batch.
	Size int

	// Rates is the rate information returned with the batch, if any.
	Rates RateInfo

	// Latency is the time taken by the HTTP request.
	Latency time.Duration

	// FetchedAt is when the response was received.
	FetchedAt time.Time
}

// Syncer is the polling sync client.
//
// It fetches the index batch once, then repeatedly requests the delta batch
// for the cursor of the last post it holds. The first delta batch is
// checked against the batch it was derived from according to the configured
// [SizeCheck]; later batches are not checked.
//
// A Syncer is created with [NewSyncer] and driven with [Syncer.Run].
type Syncer struct {
	target     Target
	client     *poller.Client
	interval   time.Duration
	iterations int
	sizeCheck  SizeCheck
	logger     *slog.Logger
	callbacks  []func(SyncStep)
}

// NewSyncer creates a [Syncer] for target.
//
// Defaults:
//   - Interval: 2 seconds
//   - Iterations: unbounded
//   - Size check: [SizeCheckNonStrict]
func NewSyncer(target Target, opts ...SyncOption) (*Syncer, error) {
	if target.host == "" {
		return nil, errors.New("target is required (use NewTarget)")
	}

	cfg := &syncConfig{
		interval:  defaultSyncInterval,
		sizeCheck: SizeCheckNonStrict,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Syncer{
		target:     target,
		client:     poller.NewClient(1),
		interval:   cfg.interval,
		iterations: cfg.iterations,
		sizeCheck:  cfg.sizeCheck,
		logger:     logger,
		callbacks:  cfg.callbacks,
	}, nil
}

// Interval returns the pause between delta fetches.
func (s *Syncer) Interval() time.Duration {
	return s.interval
}

// SizeCheck returns the check applied to the first delta batch.
func (s *Syncer) SizeCheck() SizeCheck {
	return s.sizeCheck
}

// Run performs the index fetch and then polls for delta batches.
//
// Run blocks until the configured number of iterations has completed, the
// context is cancelled, or an error occurs. It returns nil in the first two
// cases. Errors are:
//   - [*StatusError] for any non-200 response
//   - [ErrMalformedResponse] for an unreadable body
//   - [ErrResponseTooLarge] for a body over 64MB
//   - [ErrEmptyBatch] when there is no post to take a cursor from
//   - [ErrInvalidTimestamp] when the last post's "d" is not an integer
//   - [*SizeCheckError] when the first delta batch fails the size check
func (s *Syncer) Run(ctx context.Context) error {
	defer s.client.Close()

	if ctx.Err() != nil {
		return nil
	}

	phase := PhaseAwaitingFirstDelta

	initial, err := s.fetch(ctx, s.target.IndexURL())
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("index fetch: %w", err)
	}
	s.emit(SyncStep{
		Iteration: 0,
		Phase:     phase,
		URL:       s.target.IndexURL(),
		Cursor:    -1,
		Size:      len(initial.response.Batch),
		Rates:     initial.response.Rates,
		Latency:   initial.latency,
		FetchedAt: initial.fetchedAt,
	})

	current := initial.response.Batch
	for iteration := 1; ; iteration++ {
		last, err := current.Last()
		if err != nil {
			return fmt.Errorf("iteration %d: %w", iteration, err)
		}
		cursor, err := last.D.Cursor()
		if err != nil {
			return fmt.Errorf("iteration %d: %w", iteration, err)
		}

		url := s.target.SyncURL(cursor)
		s.logger.Debug("requesting delta", "have", len(current), "cursor", cursor, "phase", phase.String())

		delta, err := s.fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("iteration %d: delta fetch: %w", iteration, err)
		}

		size := len(delta.response.Batch)
		s.emit(SyncStep{
			Iteration:    iteration,
			Phase:        phase,
			URL:          url,
			Cursor:       cursor,
			PreviousSize: len(current),
			Size:         size,
			Rates:        delta.response.Rates,
			Latency:      delta.latency,
			FetchedAt:    delta.fetchedAt,
		})

		// the failing step is still emitted so callbacks see what was received
		if phase == PhaseAwaitingFirstDelta && !s.sizeCheck.Allows(len(current), size) {
			return &SizeCheckError{Check: s.sizeCheck, Previous: len(current), Delta: size}
		}

		phase = PhaseSteadyPolling
		current = delta.response.Batch

		if s.iterations > 0 && iteration >= s.iterations {
			return nil
		}
		if !sleepContext(ctx, s.interval) {
			return nil
		}
	}
}

// fetchResult is a decoded response with its timing.
type fetchResult struct {
	response  BatchResponse
	latency   time.Duration
	fetchedAt time.Time
}

// fetch requests url and decodes the batch response.
func (s *Syncer) fetch(ctx context.Context, url string) (fetchResult, error) {
	resp := s.client.Fetch(ctx, url, s.target.headers, s.target.timeout)
	if resp.Error != nil {
		return fetchResult{}, resp.Error
	}
	if resp.StatusCode != http.StatusOK {
		return fetchResult{}, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	decoded, err := DecodeBatchResponse(resp.Body)
	if err != nil {
		return fetchResult{}, err
	}

	return fetchResult{
		response:  decoded,
		latency:   resp.Latency,
		fetchedAt: time.Now(),
	}, nil
}

// emit logs the step and hands it to every registered callback.
func (s *Syncer) emit(step SyncStep) {
	s.logger.Info("batch received",
		"iteration", step.Iteration,
		"phase", step.Phase.String(),
		"cursor", step.Cursor,
		"previous_size", step.PreviousSize,
		"size", step.Size,
		"latency_ms", step.Latency.Milliseconds(),
	)

	for _, cb := range s.callbacks {
		invokeCallbackSafe(s.logger, "sync step callback", func() { cb(step) })
	}
}

// sleepContext waits for d or until ctx is done.
// It reports false if ctx finished first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// invokeCallbackSafe runs fn with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(name+" panicked", "panic", r)
		}
	}()
	fn()
}
