package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
settlement:
  provider: stacks-testnet
  endpoint: http://localhost:3000
  timeout: 45s
verifier:
  interval: 5s
redis:
  url: redis://localhost:6379/0
logging:
  level: debug
demo:
  simulator:
    failure_rate: 0.3
    claim_after: 3
    latency: 200ms
    seed: 7
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Settlement.Provider != "stacks-testnet" {
		t.Errorf("Settlement.Provider = %q", cfg.Settlement.Provider)
	}
	if cfg.Settlement.Timeout.Std() != 45*time.Second {
		t.Errorf("Settlement.Timeout = %v, want 45s", cfg.Settlement.Timeout.Std())
	}
	if cfg.Verifier.Interval.Std() != 5*time.Second {
		t.Errorf("Verifier.Interval = %v, want 5s", cfg.Verifier.Interval.Std())
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("Redis.URL = %q", cfg.Redis.URL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Demo.Simulator.FailureRate != 0.3 || cfg.Demo.Simulator.ClaimAfter != 3 {
		t.Errorf("Demo.Simulator = %+v", cfg.Demo.Simulator)
	}
	if cfg.Demo.Simulator.Latency.Std() != 200*time.Millisecond {
		t.Errorf("Demo.Simulator.Latency = %v, want 200ms", cfg.Demo.Simulator.Latency.Std())
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
settlement:
  endpoint: http://localhost:3000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Settlement.Provider != "stacks-mainnet" {
		t.Errorf("default Settlement.Provider = %q", cfg.Settlement.Provider)
	}
	if cfg.Settlement.Timeout.Std() != 30*time.Second {
		t.Errorf("default Settlement.Timeout = %v, want 30s", cfg.Settlement.Timeout.Std())
	}
	if cfg.Verifier.Interval.Std() != 10*time.Second {
		t.Errorf("default Verifier.Interval = %v, want 10s", cfg.Verifier.Interval.Std())
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_SETTLEMENT_ENDPOINT", "http://settle.internal:3000")
	t.Setenv("TEST_REDIS_URL", "redis://cache.internal:6379")

	path := writeConfig(t, `
settlement:
  endpoint: ${TEST_SETTLEMENT_ENDPOINT}
redis:
  url: ${TEST_REDIS_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Settlement.Endpoint != "http://settle.internal:3000" {
		t.Errorf("Settlement.Endpoint = %q", cfg.Settlement.Endpoint)
	}
	if cfg.Redis.URL != "redis://cache.internal:6379" {
		t.Errorf("Redis.URL = %q", cfg.Redis.URL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
verifier:
  interval: soon
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load should reject an unparseable duration")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load of a missing file should fail")
	}
}
