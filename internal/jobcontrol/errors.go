package jobcontrol

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

var (
	ErrJobNotFound = errors.New("job not found")
)

// InvalidStateError is returned when attempting an invalid Job state
// transition.
type InvalidStateError struct {
	from JobState
	to   JobState
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot go from %s to %s", e.from, e.to)
}

// From returns the state the Job was in when the transition was attempted.
func (e InvalidStateError) From() JobState {
	return e.from
}

// To returns the state the transition was attempting to reach.
func (e InvalidStateError) To() JobState {
	return e.to
}

func NewInvalidStateError(from, to JobState) InvalidStateError {
	return InvalidStateError{from, to}
}

// InvalidIdentifierError is returned when a textual process id can't be used
// to address a Job.
type InvalidIdentifierError struct {
	Value string
}

func (e InvalidIdentifierError) Error() string {
	return fmt.Sprintf("%q is not a process id", e.Value)
}

// SignalError is returned when a signal could not be delivered to the process
// of a Job. By the time it's returned the Job is no longer tracked.
type SignalError struct {
	PID    int
	Signal syscall.Signal
	Err    error
}

func (e *SignalError) Error() string {
	return fmt.Sprintf(
		"deliver %s to process %d: %v",
		unix.SignalName(e.Signal),
		e.PID,
		e.Err,
	)
}

func (e *SignalError) Unwrap() error {
	return e.Err
}

// Gone reports whether delivery failed because the process no longer exists.
func (e *SignalError) Gone() bool {
	return errors.Is(e.Err, unix.ESRCH)
}
