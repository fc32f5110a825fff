package feedprobe

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultHost is the feed service address used when none is configured.
	DefaultHost = "http://localhost:4000"

	defaultTargetTimeout = 10 * time.Second

	indexPath      = "/api/v1/hi"
	syncPathPrefix = "/api/v1/s/"
)

// Target identifies the feed service both tools talk to.
//
// Target is immutable after creation via [NewTarget]. It is passed explicitly
// to [NewSyncer] and [NewLoadGenerator]; nothing reads the host from process
// state.
type Target struct {
	host    string
	headers map[string]string
	timeout time.Duration
}

// Host returns the base URL of the feed service, without a trailing slash.
func (t Target) Host() string {
	return t.host
}

// Headers returns a copy of the headers sent with every request.
// The map is empty if no custom headers are set.
func (t Target) Headers() map[string]string {
	return copyMap(t.headers)
}

// Timeout returns the per-request timeout.
// Defaults to 10 seconds if not explicitly set via [WithTimeout].
func (t Target) Timeout() time.Duration {
	return t.timeout
}

// IndexURL returns the URL of the index endpoint.
func (t Target) IndexURL() string {
	return t.host + indexPath
}

// SyncURL returns the URL of the incremental sync endpoint for cursor.
func (t Target) SyncURL(cursor int) string {
	return t.host + syncPathPrefix + strconv.Itoa(cursor)
}

// NewTarget creates a [Target] for the service at host.
//
// The host must be an absolute http:// or https:// URL. A trailing slash is
// removed so that endpoint paths can be appended directly.
//
// Example:
//
//	target, err := feedprobe.NewTarget("http://localhost:4000",
//	    feedprobe.WithTimeout(5 * time.Second),
//	)
func NewTarget(host string, opts ...TargetOption) (Target, error) {
	if host == "" {
		return Target{}, errors.New("host cannot be empty")
	}

	parsedURL, err := url.Parse(host)
	if err != nil {
		return Target{}, errors.New("invalid host URL: " + err.Error())
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Target{}, errors.New("host must have an http:// or https:// scheme")
	}
	if parsedURL.Host == "" {
		return Target{}, errors.New("host URL is missing a hostname")
	}

	cfg := &targetConfig{
		headers: make(map[string]string),
		timeout: defaultTargetTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Target{}, err
		}
	}

	return Target{
		host:    strings.TrimRight(host, "/"),
		headers: cfg.headers,
		timeout: cfg.timeout,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
