package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/google/uuid"
	"github.com/nixpig/rsi/internal/jobcontrol"
	"github.com/nixpig/rsi/internal/metrics"
	"github.com/nixpig/rsi/internal/shell"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const version = "0.0.1"

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newCLI() *cli {
	return &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rsi",
		Short: "Interactive command launcher with background job control",
		Long: `Reads commands from standard input and runs them.

Prefix a command with 'bg' to run it in the background, then manage it with
'bglist', 'pause <pid>', 'resume <pid>' and 'kill <pid>'. 'cd <dir>' changes
the working directory and 'quit' exits, killing any remaining jobs.`,
		Example:       "rsi --log-file /tmp/rsi.log --job-log-dir /tmp/jobs",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}

			cfg := loadConfig(v)

			if err := cfg.validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			return c.run(cmd.Context(), cfg)
		},
	}

	addFlags(cmd.Flags())

	cmd.SetIn(c.stdin)
	cmd.SetOut(c.stdout)
	cmd.SetErr(c.stderr)

	return cmd
}

func (c *cli) run(ctx context.Context, cfg *config) error {
	logger, closer := cfg.log.New(uuid.NewString())
	defer closer.Close()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	if cfg.metricsAddr != "" {
		listener, err := net.Listen("tcp", cfg.metricsAddr)
		if err != nil {
			return fmt.Errorf("listen on metrics-addr: %w", err)
		}

		server := newMetricsServer(prometheus.DefaultGatherer, logger)
		go server.start(listener)
		defer server.shutdown()
	}

	managerConfig := jobcontrol.Config{
		Stdin:  c.stdin,
		Stdout: c.stdout,
		Stderr: c.stderr,
		Logger: logger,
	}

	if cfg.log.JobDir != "" {
		managerConfig.JobOutput = cfg.log.JobWriters
	}

	home, err := os.UserHomeDir()
	if err != nil {
		logger.Warn("no home directory for ~ expansion", "err", err)
	}

	logger.Info("starting launcher", "version", version)

	sh := shell.New(
		jobcontrol.NewManager(managerConfig),
		c.stdin,
		c.stdout,
		c.stderr,
		shell.Config{
			Prompt:          cfg.prompt,
			ShutdownTimeout: cfg.shutdownTimeout,
			Home:            home,
		},
		logger,
	)

	return sh.Run(ctx)
}
