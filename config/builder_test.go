package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jpalmerr/feedprobe"
)

func TestResolveHost_Precedence(t *testing.T) {
	t.Setenv(HostEnvVar, "http://from-env:4000")

	cfg := &Config{Host: "http://from-config:4000"}

	if got := ResolveHost("http://from-flag:4000", cfg); got != "http://from-flag:4000" {
		t.Errorf("flag: ResolveHost() = %q", got)
	}
	if got := ResolveHost("", cfg); got != "http://from-config:4000" {
		t.Errorf("config: ResolveHost() = %q", got)
	}
	if got := ResolveHost("", &Config{}); got != "http://from-env:4000" {
		t.Errorf("env: ResolveHost() = %q", got)
	}
	if got := ResolveHost("", nil); got != "http://from-env:4000" {
		t.Errorf("nil config: ResolveHost() = %q", got)
	}
}

func TestResolveHost_Default(t *testing.T) {
	t.Setenv(HostEnvVar, "")

	if got := ResolveHost("", &Config{}); got != feedprobe.DefaultHost {
		t.Errorf("ResolveHost() = %q, want %q", got, feedprobe.DefaultHost)
	}
}

func TestLoadDotEnv_SetsUnsetVariables(t *testing.T) {
	t.Setenv("FEEDPROBE_DOTENV_SET", "from-process")
	_ = os.Unsetenv("FEEDPROBE_DOTENV_NEW")
	t.Cleanup(func() { _ = os.Unsetenv("FEEDPROBE_DOTENV_NEW") })

	path := filepath.Join(t.TempDir(), ".env")
	content := "FEEDPROBE_DOTENV_NEW=from-file\nFEEDPROBE_DOTENV_SET=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	if got := os.Getenv("FEEDPROBE_DOTENV_NEW"); got != "from-file" {
		t.Errorf("FEEDPROBE_DOTENV_NEW = %q, want from-file", got)
	}
	if got := os.Getenv("FEEDPROBE_DOTENV_SET"); got != "from-process" {
		t.Errorf("FEEDPROBE_DOTENV_SET = %q, want from-process (environment wins)", got)
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("LoadDotEnv() error = %v, want nil", err)
	}
}

func TestBuildTarget(t *testing.T) {
	cfg := &Config{
		Timeout: Duration(3 * time.Second),
		Headers: map[string]string{"X-B": "2", "X-A": "1"},
	}

	target, err := BuildTarget("http://localhost:4000/", cfg)
	if err != nil {
		t.Fatalf("BuildTarget() error = %v", err)
	}

	if target.Host() != "http://localhost:4000" {
		t.Errorf("Host() = %q", target.Host())
	}
	if target.Timeout() != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", target.Timeout())
	}
	headers := target.Headers()
	if headers["X-A"] != "1" || headers["X-B"] != "2" {
		t.Errorf("Headers() = %v", headers)
	}
}

func TestBuildTarget_InvalidHost(t *testing.T) {
	if _, err := BuildTarget("localhost:4000", Default()); err == nil {
		t.Error("BuildTarget() expected error for host without scheme")
	}
}

func TestSyncOptions_BuildsSyncer(t *testing.T) {
	cfg, err := Parse([]byte("sync:\n  interval: 0s\n  size_check: strict\n  iterations: 1\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	target, err := BuildTarget("http://localhost:4000", cfg)
	if err != nil {
		t.Fatalf("BuildTarget() error = %v", err)
	}

	opts, err := SyncOptions(cfg, nil)
	if err != nil {
		t.Fatalf("SyncOptions() error = %v", err)
	}

	syncer, err := feedprobe.NewSyncer(target, opts...)
	if err != nil {
		t.Fatalf("NewSyncer() error = %v", err)
	}
	if syncer.Interval() != 0 {
		t.Errorf("Interval() = %v, want 0", syncer.Interval())
	}
	if syncer.SizeCheck() != feedprobe.SizeCheckStrict {
		t.Errorf("SizeCheck() = %v, want strict", syncer.SizeCheck())
	}
}

func TestLoadOptions_BuildsLoadGenerator(t *testing.T) {
	cfg, err := Parse([]byte("stress:\n  requests: 10\n  workers: 4\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	target, err := BuildTarget("http://localhost:4000", cfg)
	if err != nil {
		t.Fatalf("BuildTarget() error = %v", err)
	}

	gen, err := feedprobe.NewLoadGenerator(target, LoadOptions(cfg, nil)...)
	if err != nil {
		t.Fatalf("NewLoadGenerator() error = %v", err)
	}
	if gen.Requests() != 10 {
		t.Errorf("Requests() = %d, want 10", gen.Requests())
	}
	if gen.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", gen.Workers())
	}
}

func TestLoadOptions_RejectsInvalidCounts(t *testing.T) {
	target, err := BuildTarget("http://localhost:4000", Default())
	if err != nil {
		t.Fatalf("BuildTarget() error = %v", err)
	}

	tests := []struct {
		name     string
		requests int
		workers  int
	}{
		{"zero requests", 0, 10},
		{"negative workers", 10, -1},
		{"zero workers", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Stress.Requests = tt.requests
			cfg.Stress.Workers = tt.workers

			if _, err := feedprobe.NewLoadGenerator(target, LoadOptions(cfg, nil)...); err == nil {
				t.Error("NewLoadGenerator() expected error, got nil")
			}
		})
	}
}
