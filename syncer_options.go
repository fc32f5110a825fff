package feedprobe

import (
	"errors"
	"log/slog"
	"time"
)

// syncConfig holds mutable state during Syncer construction.
type syncConfig struct {
	interval   time.Duration
	iterations int
	sizeCheck  SizeCheck
	logger     *slog.Logger
	callbacks  []func(SyncStep)
}

// SyncOption is a function that configures a [Syncer] during construction.
//
// Built-in options: [WithInterval], [WithIterations], [WithSizeCheck],
// [WithSyncLogger], [WithStepCallback].
type SyncOption func(*syncConfig) error

// WithInterval sets the pause between delta fetches.
//
// Zero disables the pause. Defaults to 2 seconds.
// Returns an error if the duration is negative.
func WithInterval(d time.Duration) SyncOption {
	return func(cfg *syncConfig) error {
		if d < 0 {
			return errors.New("interval cannot be negative")
		}
		cfg.interval = d
		return nil
	}
}

// WithIterations bounds the number of delta fetches.
//
// Zero (the default) polls until the context is cancelled. A single-shot
// check is:
//
//	syncer, err := feedprobe.NewSyncer(target,
//	    feedprobe.WithIterations(1),
//	    feedprobe.WithInterval(0),
//	    feedprobe.WithSizeCheck(feedprobe.SizeCheckStrict),
//	)
func WithIterations(n int) SyncOption {
	return func(cfg *syncConfig) error {
		if n < 0 {
			return errors.New("iterations cannot be negative")
		}
		cfg.iterations = n
		return nil
	}
}

// WithSizeCheck sets how the first delta batch is compared with the index
// batch. Defaults to [SizeCheckNonStrict].
func WithSizeCheck(c SizeCheck) SyncOption {
	return func(cfg *syncConfig) error {
		switch c {
		case SizeCheckNonStrict, SizeCheckStrict, SizeCheckOff:
			cfg.sizeCheck = c
			return nil
		default:
			return errors.New("unknown size check")
		}
	}
}

// WithSyncLogger sets the [slog.Logger] used by the syncer.
// If not specified, [slog.Default] is used.
func WithSyncLogger(logger *slog.Logger) SyncOption {
	return func(cfg *syncConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithStepCallback registers a function called after every completed fetch.
//
// Callbacks run synchronously on the polling goroutine, in registration
// order, and must not block. Panics are recovered and logged.
// Nil callbacks are silently ignored.
func WithStepCallback(cb func(SyncStep)) SyncOption {
	return func(cfg *syncConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}
