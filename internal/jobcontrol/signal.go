package jobcontrol

import (
	"syscall"

	"github.com/nixpig/rsi/internal/metrics"
	"golang.org/x/sys/unix"
)

// Signaler delivers a signal to a process.
type Signaler interface {
	Signal(pid int, sig syscall.Signal) error
}

// SignalerFunc adapts a function to the Signaler interface.
type SignalerFunc func(pid int, sig syscall.Signal) error

func (f SignalerFunc) Signal(pid int, sig syscall.Signal) error {
	return f(pid, sig)
}

// ProcessSignaler delivers signals with kill(2).
var ProcessSignaler Signaler = SignalerFunc(unix.Kill)

// deliver sends sig to pid and records the outcome. A failure is returned as
// a *SignalError.
func deliver(s Signaler, pid int, sig syscall.Signal) error {
	name := unix.SignalName(sig)

	if err := s.Signal(pid, sig); err != nil {
		metrics.IncSignalFailure(name)
		return &SignalError{PID: pid, Signal: sig, Err: err}
	}

	metrics.IncSignal(name)

	return nil
}
