package jobcontrol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/nixpig/rsi/internal/metrics"
)

// Launch starts command with args and returns the pid of the process.
//
// When background is false, Launch blocks until that process exits and the
// process is not tracked. A non-zero exit status is not an error. The process
// is killed if ctx is done before it exits.
//
// When background is true, the process is tracked as a Running Job and Launch
// returns as soon as it has started. Its exit is reported through Pending and
// Reap.
func (m *Manager) Launch(
	ctx context.Context,
	command string,
	args []string,
	background bool,
) (int, error) {
	if command == "" {
		return 0, fmt.Errorf("command cannot be empty")
	}

	if background {
		return m.launchBackground(command, args)
	}

	return m.launchForeground(ctx, command, args)
}

func (m *Manager) launchForeground(
	ctx context.Context,
	command string,
	args []string,
) (int, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdin = m.stdin
	cmd.Stdout = m.stdout
	cmd.Stderr = m.stderr

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start process: %w", err)
	}

	metrics.IncLaunched("foreground")

	pid := cmd.Process.Pid

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return pid, fmt.Errorf("failed to wait for process: %w", err)
		}

		m.logger.Debug(
			"foreground process exited",
			"pid", pid,
			"command", command,
			"exit_code", exitErr.ExitCode(),
		)
	}

	return pid, nil
}

func (m *Manager) launchBackground(command string, args []string) (int, error) {
	var (
		cmd     *exec.Cmd
		closers []io.Closer
	)

	job, err := m.registry.Track(command, func(number int) (int, error) {
		cmd = exec.Command(command, args...)
		cmd.Stdout = m.stdout
		cmd.Stderr = m.stderr

		if m.jobOutput != nil {
			stdout, stderr, err := m.jobOutput(command, number)
			if err != nil {
				return 0, fmt.Errorf("failed to open job output: %w", err)
			}

			if stdout != nil {
				cmd.Stdout = stdout
				closers = append(closers, stdout)
			}

			if stderr != nil {
				cmd.Stderr = stderr
				closers = append(closers, stderr)
			}
		}

		if err := cmd.Start(); err != nil {
			closeAll(closers)
			return 0, fmt.Errorf("failed to start process: %w", err)
		}

		return cmd.Process.Pid, nil
	})
	if err != nil {
		return 0, err
	}

	metrics.IncLaunched("background")

	m.logger.Info(
		"started job",
		"pid", job.PID,
		"number", job.Number,
		"command", command,
	)

	// The waiter is the only thing that reports this process' exit, and it
	// doesn't exist until the Job is tracked.
	m.waiters.Go(func() {
		err := cmd.Wait()

		closeAll(closers)

		m.logger.Debug(
			"job process exited",
			"pid", job.PID,
			"number", job.Number,
			"err", err,
		)

		m.reaper.Notify(job.PID, job.Number)
	})

	return job.PID, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if c != nil {
			_ = c.Close()
		}
	}
}
