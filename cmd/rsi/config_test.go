package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nixpig/rsi/internal/logger"
	"github.com/nixpig/rsi/internal/shell"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTestFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("rsi", pflag.ContinueOnError)
	addFlags(flags)
	require.NoError(t, flags.Parse(args))

	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	v, err := newViper(parseTestFlags(t))
	require.NoError(t, err)

	cfg := loadConfig(v)
	assert.Equal(t, shell.DefaultPrompt, cfg.prompt)
	assert.Equal(t, shell.DefaultShutdownTimeout, cfg.shutdownTimeout)
	assert.Empty(t, cfg.metricsAddr)
	assert.Empty(t, cfg.log.File)
	assert.Empty(t, cfg.log.JobDir)
	assert.False(t, cfg.log.Debug)
	assert.Equal(t, logger.DefaultMaxSizeMB, cfg.log.MaxSizeMB)
	assert.Equal(t, logger.DefaultMaxBackups, cfg.log.MaxBackups)
	assert.Equal(t, logger.DefaultMaxAgeDays, cfg.log.MaxAgeDays)
	assert.NoError(t, cfg.validate())
}

func TestLoadConfig_Flags(t *testing.T) {
	v, err := newViper(parseTestFlags(
		t,
		"--debug",
		"--prompt", "$ ",
		"--metrics-addr", "localhost:9090",
		"--shutdown-timeout", "5s",
		"--log-file", "/tmp/rsi.log",
		"--job-log-dir", "/tmp",
	))
	require.NoError(t, err)

	cfg := loadConfig(v)
	assert.Equal(t, "$ ", cfg.prompt)
	assert.Equal(t, "localhost:9090", cfg.metricsAddr)
	assert.Equal(t, 5*time.Second, cfg.shutdownTimeout)
	assert.Equal(t, "/tmp/rsi.log", cfg.log.File)
	assert.Equal(t, "/tmp", cfg.log.JobDir)
	assert.True(t, cfg.log.Debug)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("RSI_LOG_FILE", "/var/log/rsi.log")
	t.Setenv("RSI_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("RSI_LOG_MAX_BACKUPS", "8")

	v, err := newViper(parseTestFlags(t))
	require.NoError(t, err)

	cfg := loadConfig(v)
	assert.Equal(t, "/var/log/rsi.log", cfg.log.File)
	assert.Equal(t, 3*time.Second, cfg.shutdownTimeout)
	assert.Equal(t, 8, cfg.log.MaxBackups)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rsi.toml")

	data := `prompt = "rsi> "
shutdown_timeout = "4s"

[log]
file = "/tmp/from-file.log"
max_backups = 9
compress = true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	// Flags that are set win over the file.
	v, err := newViper(parseTestFlags(
		t,
		"--config", path,
		"--log-file", "/tmp/from-flag.log",
	))
	require.NoError(t, err)

	cfg := loadConfig(v)
	assert.Equal(t, "rsi> ", cfg.prompt)
	assert.Equal(t, 4*time.Second, cfg.shutdownTimeout)
	assert.Equal(t, "/tmp/from-flag.log", cfg.log.File)
	assert.Equal(t, 9, cfg.log.MaxBackups)
	assert.True(t, cfg.log.Compress)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := newViper(parseTestFlags(
		t,
		"--config", filepath.Join(t.TempDir(), "missing.toml"),
	))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	valid := func() *config {
		return &config{
			prompt:          shell.DefaultPrompt,
			shutdownTimeout: time.Second,
		}
	}

	scenarios := map[string]struct {
		modify  func(c *config)
		wantErr bool
	}{
		"Defaults":          {modify: func(c *config) {}},
		"Empty prompt":      {modify: func(c *config) { c.prompt = "  " }, wantErr: true},
		"Zero timeout":      {modify: func(c *config) { c.shutdownTimeout = 0 }, wantErr: true},
		"Metrics address":   {modify: func(c *config) { c.metricsAddr = "127.0.0.1:0" }},
		"Bad metrics addr":  {modify: func(c *config) { c.metricsAddr = "9090" }, wantErr: true},
		"Negative rotation": {modify: func(c *config) { c.log.MaxBackups = -1 }, wantErr: true},
		"Job dir":           {modify: func(c *config) { c.log.JobDir = dir }},
		"Missing job dir":   {modify: func(c *config) { c.log.JobDir = filepath.Join(dir, "x") }, wantErr: true},
		"Job dir is a file": {modify: func(c *config) { c.log.JobDir = file }, wantErr: true},
	}

	for scenario, s := range scenarios {
		t.Run(scenario, func(t *testing.T) {
			cfg := valid()
			s.modify(cfg)

			err := cfg.validate()
			if s.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
