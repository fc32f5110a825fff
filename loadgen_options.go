package feedprobe

import (
	"errors"
	"log/slog"
	"time"
)

// loadConfig holds mutable state during LoadGenerator construction.
type loadConfig struct {
	requests  int
	workers   int
	delay     time.Duration
	rounds    int
	logger    *slog.Logger
	callbacks []func(RoundReport)
}

// LoadOption is a function that configures a [LoadGenerator] during
// construction.
//
// Built-in options: [WithRequests], [WithWorkers], [WithRoundDelay],
// [WithRounds], [WithLoadLogger], [WithRoundCallback].
type LoadOption func(*loadConfig) error

// WithRequests sets how many requests each round submits. Defaults to 100.
// Returns an error if n is zero or negative.
func WithRequests(n int) LoadOption {
	return func(cfg *loadConfig) error {
		if n <= 0 {
			return errors.New("requests per round must be positive")
		}
		cfg.requests = n
		return nil
	}
}

// WithWorkers sets the worker pool size.
//
// Defaults to the number of requests per round, so that every request of a
// round is in flight at once. Values above the request count are clamped.
// Returns an error if n is zero or negative.
func WithWorkers(n int) LoadOption {
	return func(cfg *loadConfig) error {
		if n <= 0 {
			return errors.New("workers must be positive")
		}
		cfg.workers = n
		return nil
	}
}

// WithRoundDelay sets the pause between rounds. Defaults to 1ms.
// Returns an error if the duration is negative.
func WithRoundDelay(d time.Duration) LoadOption {
	return func(cfg *loadConfig) error {
		if d < 0 {
			return errors.New("round delay cannot be negative")
		}
		cfg.delay = d
		return nil
	}
}

// WithRounds bounds the number of rounds. Zero (the default) runs until the
// context is cancelled.
func WithRounds(n int) LoadOption {
	return func(cfg *loadConfig) error {
		if n < 0 {
			return errors.New("rounds cannot be negative")
		}
		cfg.rounds = n
		return nil
	}
}

// WithLoadLogger sets the [slog.Logger] used by the load generator.
// If not specified, [slog.Default] is used.
func WithLoadLogger(logger *slog.Logger) LoadOption {
	return func(cfg *loadConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithRoundCallback registers a function called after every completed round.
//
// Callbacks run synchronously between rounds and must not block. Panics are
// recovered and logged. Nil callbacks are silently ignored.
func WithRoundCallback(cb func(RoundReport)) LoadOption {
	return func(cfg *loadConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}
