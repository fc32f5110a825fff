package feedprobe

import (
	"errors"
	"time"
)

// targetConfig holds mutable state during target construction.
type targetConfig struct {
	headers map[string]string
	timeout time.Duration
}

// TargetOption is a function that configures a [Target] during construction.
// Options return an error if validation fails.
type TargetOption func(*targetConfig) error

// WithHeaders adds HTTP headers to every request sent to the target.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	target, err := feedprobe.NewTarget(host,
//	    feedprobe.WithHeaders("User-Agent", "feedprobe"),
//	)
func WithHeaders(keyValues ...string) TargetOption {
	return func(cfg *targetConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the per-request timeout.
//
// Defaults to 10 seconds. Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) TargetOption {
	return func(cfg *targetConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}
