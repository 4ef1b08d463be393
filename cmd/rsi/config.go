package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/nixpig/rsi/internal/logger"
	"github.com/nixpig/rsi/internal/shell"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "RSI"

// Keys of the configuration. Nested keys map to tables in a config file and
// to RSI_LOG_FILE style environment variables.
const (
	keyDebug           = "debug"
	keyPrompt          = "prompt"
	keyMetricsAddr     = "metrics_addr"
	keyShutdownTimeout = "shutdown_timeout"
	keyLogFile         = "log.file"
	keyLogJobDir       = "log.job_dir"
	keyLogMaxSizeMB    = "log.max_size_mb"
	keyLogMaxBackups   = "log.max_backups"
	keyLogMaxAgeDays   = "log.max_age_days"
	keyLogCompress     = "log.compress"
)

// flagKeys maps command line flags to the keys they set.
var flagKeys = map[string]string{
	"debug":            keyDebug,
	"prompt":           keyPrompt,
	"metrics-addr":     keyMetricsAddr,
	"shutdown-timeout": keyShutdownTimeout,
	"log-file":         keyLogFile,
	"job-log-dir":      keyLogJobDir,
}

type config struct {
	prompt          string
	metricsAddr     string
	shutdownTimeout time.Duration

	log logger.Config
}

func addFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to config file (toml, yaml or json)")
	flags.Bool("debug", false, "Enable debug logs")
	flags.String("prompt", shell.DefaultPrompt, "Prompt shown before each command")

	flags.String(
		"metrics-addr",
		"",
		"Address to serve Prometheus metrics on, e.g. localhost:9090",
	)

	flags.Duration(
		"shutdown-timeout",
		shell.DefaultShutdownTimeout,
		"Time to wait for jobs to be collected on exit",
	)

	flags.String("log-file", "", "Path to log file; logs are discarded if empty")

	flags.String(
		"job-log-dir",
		"",
		"Directory for background job output; jobs write to the terminal if empty",
	)
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyLogMaxSizeMB, logger.DefaultMaxSizeMB)
	v.SetDefault(keyLogMaxBackups, logger.DefaultMaxBackups)
	v.SetDefault(keyLogMaxAgeDays, logger.DefaultMaxAgeDays)
	v.SetDefault(keyLogCompress, false)

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return v, nil
}

func loadConfig(v *viper.Viper) *config {
	return &config{
		prompt:          v.GetString(keyPrompt),
		metricsAddr:     v.GetString(keyMetricsAddr),
		shutdownTimeout: v.GetDuration(keyShutdownTimeout),
		log: logger.Config{
			File:       v.GetString(keyLogFile),
			JobDir:     v.GetString(keyLogJobDir),
			Debug:      v.GetBool(keyDebug),
			MaxSizeMB:  v.GetInt(keyLogMaxSizeMB),
			MaxBackups: v.GetInt(keyLogMaxBackups),
			MaxAgeDays: v.GetInt(keyLogMaxAgeDays),
			Compress:   v.GetBool(keyLogCompress),
		},
	}
}

func (c *config) validate() error {
	if strings.TrimSpace(c.prompt) == "" {
		return errors.New("prompt cannot be empty")
	}

	if c.shutdownTimeout <= 0 {
		return errors.New("shutdown-timeout must be positive")
	}

	if c.metricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.metricsAddr); err != nil {
			return fmt.Errorf("parse metrics-addr: %w", err)
		}
	}

	if c.log.MaxSizeMB < 0 || c.log.MaxBackups < 0 || c.log.MaxAgeDays < 0 {
		return errors.New("log rotation values cannot be negative")
	}

	if c.log.JobDir != "" {
		info, err := os.Stat(c.log.JobDir)
		if err != nil {
			return fmt.Errorf("failed to stat job-log-dir: %w", err)
		}

		if !info.IsDir() {
			return errors.New("job-log-dir must be a directory")
		}
	}

	return nil
}
