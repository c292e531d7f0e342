package config

import (
	"fmt"
	"time"

	"github.com/x402nexus/relay/internal/infra/archive"
	"github.com/x402nexus/relay/internal/infra/store"
)

// Duration is a time.Duration that unmarshals from YAML strings like "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Settlement SettlementConfig `yaml:"settlement"`
	Verifier   VerifierConfig   `yaml:"verifier"`
	Redis      store.Config     `yaml:"redis"`
	Database   archive.Config   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Demo       DemoConfig       `yaml:"demo"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// SettlementConfig holds settlement backend settings.
type SettlementConfig struct {
	// Provider names the settlement network for adaptive strategy
	// selection and metrics labels.
	Provider string   `yaml:"provider"`
	Endpoint string   `yaml:"endpoint"`
	Timeout  Duration `yaml:"timeout"`
}

// VerifierConfig holds reconciliation loop settings.
type VerifierConfig struct {
	Interval Duration `yaml:"interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DemoConfig holds the simulated-backend settings for demo mode.
type DemoConfig struct {
	Simulator SimulatorConfig `yaml:"simulator"`
}

// SimulatorConfig tunes the failure-injecting demo backend.
type SimulatorConfig struct {
	FailureRate float64  `yaml:"failure_rate"`
	ClaimAfter  int      `yaml:"claim_after"`
	Latency     Duration `yaml:"latency"`
	Seed        uint64   `yaml:"seed"`
}
