package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDaemonConfig_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadDaemonConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultDaemonConfig(), cfg)
}

func TestLoadDaemonConfig_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arbiterd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = 13000
max_cores = 8
log_level = "debug"
http_addr = "127.0.0.1:9090"
`), 0o644))

	cfg, err := LoadDaemonConfig(path)
	require.NoError(t, err)
	require.Equal(t, 13000, cfg.Port)
	require.Equal(t, 8, cfg.MaxCores)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "127.0.0.1:9090", cfg.HTTPAddr)
	// untouched fields keep their defaults
	require.Equal(t, "text", cfg.LogFormat)
}

func TestLoadDaemonConfig_MissingFileErrors(t *testing.T) {
	_, err := LoadDaemonConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}

func TestLoadOrchestratorConfig_ParsesProverTableArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arbiterctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
timeout_s = 30
memory_mb = 4096
concurrency = 4
with_lock = true
cache_ttl = "24h"
default_expect = "unsat"

[[provers]]
name = "z3"
binary = "/usr/bin/z3"
command = "z3 -T:$timeout $file"
sat_regex = "^sat$"
unsat_regex = "^unsat$"

[[provers]]
name = "vampire"
binary = "/usr/bin/vampire"
command = "vampire --time_limit $timeout $file"
sat_regex = "Satisfiable"
unsat_regex = "Unsatisfiable"
`), 0o644))

	cfg, err := LoadOrchestratorConfig(path)
	require.NoError(t, err)
	require.Equal(t, 30, cfg.TimeoutS)
	require.Equal(t, 4096, cfg.MemoryMB)
	require.Equal(t, 4, cfg.Concurrency)
	require.True(t, cfg.WithLock)
	require.Equal(t, 24*time.Hour, cfg.CacheTTL)
	require.Equal(t, "unsat", cfg.DefaultExpect)
	require.Len(t, cfg.Provers, 2)
	require.Equal(t, "z3", cfg.Provers[0].Name)
	require.Equal(t, "vampire", cfg.Provers[1].Name)
}
