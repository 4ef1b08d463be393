package jobcontrol

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Pause sends SIGSTOP to the process of the Job with the given pid and marks
// it Paused. It returns ErrJobNotFound if no such Job is tracked, or an
// InvalidStateError if the Job isn't Running.
func (m *Manager) Pause(pid int) error {
	if _, err := m.registry.Transition(
		pid,
		JobStateRunning,
		JobStatePaused,
	); err != nil {
		return err
	}

	return m.signal(pid, unix.SIGSTOP)
}

// Resume sends SIGCONT to the process of the Job with the given pid and marks
// it Running. It returns ErrJobNotFound if no such Job is tracked, or an
// InvalidStateError if the Job isn't Paused.
func (m *Manager) Resume(pid int) error {
	if _, err := m.registry.Transition(
		pid,
		JobStatePaused,
		JobStateRunning,
	); err != nil {
		return err
	}

	return m.signal(pid, unix.SIGCONT)
}

// Kill stops tracking the Job with the given pid and sends SIGKILL to its
// process, whatever state it's in. It returns ErrJobNotFound if no such Job is
// tracked. The exit of the killed process is not reported by Reap.
func (m *Manager) Kill(pid int) error {
	if !m.registry.Remove(pid) {
		return ErrJobNotFound
	}

	return m.signal(pid, unix.SIGKILL)
}

// signal delivers sig to the process of a tracked Job. If delivery fails the
// process is assumed to be gone and the Job is removed.
func (m *Manager) signal(pid int, sig syscall.Signal) error {
	err := deliver(m.signaler, pid, sig)
	if err == nil {
		m.logger.Debug("signalled job", "pid", pid, "signal", unix.SignalName(sig))
		return nil
	}

	m.logger.Warn("signal job", "pid", pid, "err", err)

	m.registry.Remove(pid)

	return err
}
