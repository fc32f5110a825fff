package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/jpalmerr/feedprobe"
)

// LoadDotEnv loads variables from a .env file into the process environment.
//
// Variables already set in the environment win. A missing file is not an
// error; an unreadable or malformed one is.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ResolveHost picks the feed service address.
//
// Precedence: the explicit flag value, then the config file's host, then the
// HOST environment variable, then [feedprobe.DefaultHost].
func ResolveHost(flagHost string, cfg *Config) string {
	if flagHost != "" {
		return flagHost
	}
	if cfg != nil && cfg.Host != "" {
		return cfg.Host
	}
	if env := os.Getenv(HostEnvVar); env != "" {
		return env
	}
	return feedprobe.DefaultHost
}

// BuildTarget converts the resolved host and the request settings of cfg
// into an SDK Target.
func BuildTarget(host string, cfg *Config) (feedprobe.Target, error) {
	var opts []feedprobe.TargetOption

	if cfg.Timeout != 0 {
		opts = append(opts, feedprobe.WithTimeout(cfg.Timeout.Duration()))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, feedprobe.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	return feedprobe.NewTarget(host, opts...)
}

// SyncOptions converts the sync section into SDK options.
func SyncOptions(cfg *Config, logger *slog.Logger) ([]feedprobe.SyncOption, error) {
	check, err := feedprobe.ParseSizeCheck(cfg.Sync.SizeCheck)
	if err != nil {
		return nil, err
	}

	opts := []feedprobe.SyncOption{
		feedprobe.WithSizeCheck(check),
		feedprobe.WithIterations(cfg.Sync.Iterations),
	}
	if cfg.Sync.Interval != nil {
		opts = append(opts, feedprobe.WithInterval(cfg.Sync.Interval.Duration()))
	}
	if logger != nil {
		opts = append(opts, feedprobe.WithSyncLogger(logger))
	}
	return opts, nil
}

// LoadOptions converts the stress section into SDK options.
// cfg must have its defaults applied, as [Load], [Parse] and [Default] do.
func LoadOptions(cfg *Config, logger *slog.Logger) []feedprobe.LoadOption {
	// values are passed through unchanged so the options reject bad ones
	opts := []feedprobe.LoadOption{
		feedprobe.WithRounds(cfg.Stress.Rounds),
		feedprobe.WithRequests(cfg.Stress.Requests),
		feedprobe.WithWorkers(cfg.Stress.Workers),
	}
	if cfg.Stress.Delay != nil {
		opts = append(opts, feedprobe.WithRoundDelay(cfg.Stress.Delay.Duration()))
	}
	if logger != nil {
		opts = append(opts, feedprobe.WithLoadLogger(logger))
	}
	return opts
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
