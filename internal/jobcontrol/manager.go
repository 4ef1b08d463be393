package jobcontrol

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// JobOutputFunc returns the writers for the stdout and stderr of a background
// Job with the given name and job number. Both are closed when the process
// exits.
type JobOutputFunc func(name string, number int) (io.WriteCloser, io.WriteCloser, error)

// Config configures a Manager. Zero values are replaced with defaults in
// NewManager.
type Config struct {
	// Stdin, Stdout and Stderr are connected to foreground processes.
	// Background processes share Stdout and Stderr unless JobOutput is set,
	// and never read Stdin.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	JobOutput JobOutputFunc

	// Signaler defaults to ProcessSignaler.
	Signaler Signaler

	// Logger defaults to discarding logs.
	Logger *slog.Logger
}

// Manager is responsible for launching processes and controlling the ones
// running in the background as Jobs.
type Manager struct {
	registry *Registry
	reaper   *Reaper

	signaler  Signaler
	logger    *slog.Logger
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	jobOutput JobOutputFunc

	// waiters tracks the goroutines waiting on background processes.
	waiters sync.WaitGroup
}

// NewManager creates a new Manager ready to launch processes.
func NewManager(cfg Config) *Manager {
	registry := NewRegistry()

	m := &Manager{
		registry:  registry,
		reaper:    NewReaper(registry),
		signaler:  cfg.Signaler,
		logger:    cfg.Logger,
		stdin:     cfg.Stdin,
		stdout:    cfg.Stdout,
		stderr:    cfg.Stderr,
		jobOutput: cfg.JobOutput,
	}

	if m.signaler == nil {
		m.signaler = ProcessSignaler
	}

	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}

	return m
}

// NewManagerWithDefaults creates a Manager connected to the standard streams
// of the current process.
func NewManagerWithDefaults() *Manager {
	return NewManager(Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
}

// Registry returns the Registry of Jobs managed by the Manager.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// List returns a snapshot of the background Jobs in job number order.
func (m *Manager) List() []Job {
	return m.registry.List()
}

// Pending returns a channel that receives when background processes have
// exited and Reap should be called.
func (m *Manager) Pending() <-chan struct{} {
	return m.reaper.Pending()
}

// Reap removes the Jobs of exited background processes and returns them.
func (m *Manager) Reap() []Job {
	jobs := m.reaper.Reap()

	for _, job := range jobs {
		m.logger.Debug("reaped job", "pid", job.PID, "number", job.Number)
	}

	return jobs
}

// Shutdown forcibly terminates every background Job, regardless of state,
// and returns the Jobs that were terminated.
func (m *Manager) Shutdown() []Job {
	jobs, err := m.registry.ClearAndTerminate(m.signaler)
	if err != nil {
		// NOTE: A failure here means the process exited on its own before it
		// could be killed, which is the outcome we wanted anyway.
		m.logger.Warn("terminate jobs", "err", err)
	}

	for _, job := range jobs {
		m.logger.Info("terminated job", "pid", job.PID, "number", job.Number)
	}

	return jobs
}

// Wait blocks until every background process has been waited on, or until ctx
// is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		m.waiters.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
