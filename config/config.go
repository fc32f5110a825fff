// Package config provides YAML configuration parsing for feedprobe.
//
// A configuration file is optional; every field has a default. Example:
//
//	host: ${HOST:-http://localhost:4000}
//	timeout: 10s
//	status_port: 9090
//
//	sync:
//	  interval: 2s
//	  size_check: non-strict
//	  iterations: 0
//
//	stress:
//	  requests: 100
//	  workers: 100
//	  delay: 1ms
//	  rounds: 0
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/jpalmerr/feedprobe"
	"gopkg.in/yaml.v3"
)

// HostEnvVar is the environment variable that selects the feed service.
const HostEnvVar = "HOST"

const (
	defaultTimeout   = 10 * time.Second
	defaultRequests  = 100
	defaultInterval  = 2 * time.Second
	defaultDelay     = time.Millisecond
	maxRequests      = 100000
	minStatusPort    = 0
	maxStatusPort    = 65535
	defaultSizeCheck = "non-strict"
)

// Config is the root configuration structure.
//
// Use [Load], [Parse] or [Default] to create one.
type Config struct {
	// Host is the base URL of the feed service. Supports ${VAR} and
	// ${VAR:-default} substitution. Empty means "resolve at run time"; see
	// [ResolveHost].
	Host string `yaml:"host"`

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Headers are sent with every request. Values support env substitution.
	Headers map[string]string `yaml:"headers"`

	// StatusPort enables the status server when non-zero.
	StatusPort int `yaml:"status_port"`

	// Sync configures the polling sync client.
	Sync SyncConfig `yaml:"sync"`

	// Stress configures the load generator.
	Stress StressConfig `yaml:"stress"`
}

// SyncConfig configures the polling sync client.
type SyncConfig struct {
	// Interval is the pause between delta fetches. Defaults to 2s; "0s"
	// disables the pause.
	Interval *Duration `yaml:"interval"`

	// SizeCheck is "non-strict" (default), "strict" or "off".
	SizeCheck string `yaml:"size_check"`

	// Iterations bounds the number of delta fetches. Zero polls forever.
	Iterations int `yaml:"iterations"`
}

// StressConfig configures the load generator.
type StressConfig struct {
	// Requests is the number of requests per round. Defaults to 100.
	Requests int `yaml:"requests"`

	// Workers is the pool size. Defaults to Requests.
	Workers int `yaml:"workers"`

	// Delay is the pause between rounds. Defaults to 1ms.
	Delay *Duration `yaml:"delay"`

	// Rounds bounds the number of rounds. Zero runs forever.
	Rounds int `yaml:"rounds"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// durationPtr returns a pointer to a Duration holding d.
func durationPtr(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, applies defaults, expands
// environment variables and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = Duration(defaultTimeout)
	}
	if c.Sync.Interval == nil {
		c.Sync.Interval = durationPtr(defaultInterval)
	}
	if c.Sync.SizeCheck == "" {
		c.Sync.SizeCheck = defaultSizeCheck
	}
	if c.Stress.Requests == 0 {
		c.Stress.Requests = defaultRequests
	}
	if c.Stress.Workers == 0 {
		c.Stress.Workers = c.Stress.Requests
	}
	if c.Stress.Delay == nil {
		c.Stress.Delay = durationPtr(defaultDelay)
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Host != "" {
		expanded, err := expandEnvVars(c.Host)
		if err != nil {
			return fmt.Errorf("host: %w", err)
		}
		c.Host = expanded
		if err := validateHost(c.Host); err != nil {
			return fmt.Errorf("host: %w", err)
		}
	}

	for k, v := range c.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}

	if c.Timeout.Duration() < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout.Duration())
	}

	if c.StatusPort < minStatusPort || c.StatusPort > maxStatusPort {
		return fmt.Errorf("status_port must be between 0 and 65535, got %d", c.StatusPort)
	}

	if c.Sync.Interval.Duration() < 0 {
		return fmt.Errorf("sync.interval cannot be negative, got %s", c.Sync.Interval.Duration())
	}
	if _, err := feedprobe.ParseSizeCheck(c.Sync.SizeCheck); err != nil {
		return fmt.Errorf("sync.size_check: %w", err)
	}
	if c.Sync.Iterations < 0 {
		return fmt.Errorf("sync.iterations cannot be negative, got %d", c.Sync.Iterations)
	}

	if c.Stress.Requests < 0 || c.Stress.Requests > maxRequests {
		return fmt.Errorf("stress.requests must be between 1 and %d, got %d", maxRequests, c.Stress.Requests)
	}
	if c.Stress.Workers < 0 {
		return fmt.Errorf("stress.workers cannot be negative, got %d", c.Stress.Workers)
	}
	if c.Stress.Delay.Duration() < 0 {
		return fmt.Errorf("stress.delay cannot be negative, got %s", c.Stress.Delay.Duration())
	}
	if c.Stress.Rounds < 0 {
		return fmt.Errorf("stress.rounds cannot be negative, got %d", c.Stress.Rounds)
	}

	return nil
}

// validateHost checks that host is an absolute http(s) URL.
func validateHost(host string) error {
	parsed, err := url.Parse(host)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsed.Host == "" {
		return errors.New("url is missing a hostname")
	}
	return nil
}
