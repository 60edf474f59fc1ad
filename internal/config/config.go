// Package config loads the daemon's and orchestrator's settings from an
// optional TOML file, with an explicit immutable value threaded through
// constructors rather than a package-level mutable singleton.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/viper"

	"github.com/wilke/gowe-arbiter/pkg/model"
)

// DaemonConfig holds arbiterd's settings.
type DaemonConfig struct {
	Port      int    `mapstructure:"port"`
	MaxCores  int    `mapstructure:"max_cores"`
	InboxSize int    `mapstructure:"inbox_size"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	// HTTPAddr is the snapshotsrv bind address; empty disables the HTTP
	// surface entirely.
	HTTPAddr string `mapstructure:"http_addr"`
	DBPath   string `mapstructure:"db_path"`
}

// DefaultDaemonConfig returns sensible defaults: the whole host's cores,
// the shared default port, and no HTTP surface unless configured.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		Port:      model.DefaultPort,
		MaxCores:  runtime.NumCPU(),
		InboxSize: 64,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// OrchestratorConfig holds arbiterctl run's settings (the parameter
// list plus the prover descriptors it runs against).
type OrchestratorConfig struct {
	Port          int            `mapstructure:"port"`
	TimeoutS      int            `mapstructure:"timeout_s"`
	MemoryMB      int            `mapstructure:"memory_mb"`
	Concurrency   int            `mapstructure:"concurrency"`
	WithLock      bool           `mapstructure:"with_lock"`
	CacheTTL      time.Duration  `mapstructure:"cache_ttl"`
	DBPath        string         `mapstructure:"db_path"`
	DefaultExpect string         `mapstructure:"default_expect"`
	LogLevel      string         `mapstructure:"log_level"`
	LogFormat     string         `mapstructure:"log_format"`
	Provers       []model.Prover `mapstructure:"provers"`
}

// DefaultOrchestratorConfig returns sensible defaults: J=1, the shared
// default port, a two-day cache TTL.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		Port:        model.DefaultPort,
		TimeoutS:    60,
		MemoryMB:    2048,
		Concurrency: 1,
		CacheTTL:    48 * time.Hour,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// LoadDaemonConfig reads path (if non-empty) as TOML over top of the
// defaults. A missing path is not an error — the daemon runs on defaults
// and CLI flags alone.
func LoadDaemonConfig(path string) (DaemonConfig, error) {
	cfg := DefaultDaemonConfig()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read daemon config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse daemon config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrchestratorConfig reads path (if non-empty) as TOML over top of the
// defaults, including the `[[provers]]` table array (the prover list).
func LoadOrchestratorConfig(path string) (OrchestratorConfig, error) {
	cfg := DefaultOrchestratorConfig()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read orchestrator config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse orchestrator config %s: %w", path, err)
	}
	return cfg, nil
}
