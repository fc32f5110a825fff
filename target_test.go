package feedprobe

import (
	"testing"
	"time"
)

func TestNewTarget_Valid(t *testing.T) {
	target, err := NewTarget("http://localhost:4000")
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}

	if target.Host() != "http://localhost:4000" {
		t.Errorf("Host() = %v, want http://localhost:4000", target.Host())
	}
	if target.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %v, want %v", target.Timeout(), 10*time.Second)
	}
	if target.IndexURL() != "http://localhost:4000/api/v1/hi" {
		t.Errorf("IndexURL() = %v", target.IndexURL())
	}
	if target.SyncURL(234) != "http://localhost:4000/api/v1/s/234" {
		t.Errorf("SyncURL(234) = %v", target.SyncURL(234))
	}
}

func TestNewTarget_TrimsTrailingSlash(t *testing.T) {
	target, err := NewTarget("https://feed.example.com/")
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	if target.IndexURL() != "https://feed.example.com/api/v1/hi" {
		t.Errorf("IndexURL() = %v", target.IndexURL())
	}
}

func TestNewTarget_InvalidHost(t *testing.T) {
	tests := []struct {
		name string
		host string
	}{
		{"empty", ""},
		{"no scheme", "localhost:4000"},
		{"ftp scheme", "ftp://localhost:4000"},
		{"just path", "/api"},
		{"no hostname", "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTarget(tt.host); err == nil {
				t.Errorf("NewTarget(%q) expected error, got nil", tt.host)
			}
		})
	}
}

func TestWithHeaders(t *testing.T) {
	target, err := NewTarget("http://localhost:4000",
		WithHeaders("Authorization", "Bearer token", "X-Trace", "1"),
	)
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}

	headers := target.Headers()
	if headers["Authorization"] != "Bearer token" || headers["X-Trace"] != "1" {
		t.Errorf("Headers() = %v", headers)
	}

	headers["Authorization"] = "mutated"
	if target.Headers()["Authorization"] != "Bearer token" {
		t.Error("Headers() returned a map that aliases the target's headers")
	}
}

func TestWithHeaders_OddArguments(t *testing.T) {
	if _, err := NewTarget("http://localhost:4000", WithHeaders("Authorization")); err == nil {
		t.Error("NewTarget() expected error for odd header arguments, got nil")
	}
}

func TestWithTimeout(t *testing.T) {
	target, err := NewTarget("http://localhost:4000", WithTimeout(250*time.Millisecond))
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	if target.Timeout() != 250*time.Millisecond {
		t.Errorf("Timeout() = %v, want 250ms", target.Timeout())
	}

	for _, d := range []time.Duration{0, -time.Second} {
		if _, err := NewTarget("http://localhost:4000", WithTimeout(d)); err == nil {
			t.Errorf("WithTimeout(%v) expected error, got nil", d)
		}
	}
}
