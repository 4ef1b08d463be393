package jobcontrol

import (
	"cmp"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/nixpig/rsi/internal/metrics"
	"golang.org/x/sys/unix"
)

// Registry is the authoritative collection of Jobs, keyed by process id and
// ordered by job number. Job numbers are assigned in creation order, so
// ordering by number is insertion order and removal never has to re-link
// neighbours. Safe for concurrent use.
type Registry struct {
	jobs map[int]*Job

	// lastNumber is the most recently assigned job number. It only grows, so
	// numbers are never reused even after the Job is removed.
	lastNumber int

	mu sync.Mutex
}

// NewRegistry creates an empty Registry. The first Job added is number 1.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[int]*Job)}
}

// Add tracks a new Running Job for pid and returns its job number.
//
// If a Job with the same pid is already tracked, its process has exited and
// the kernel has handed the pid to a new process before the exit was reaped.
// The stale Job is replaced, and its pending exit will no longer match.
func (r *Registry) Add(pid int, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.add(pid, name).Number
}

// Track creates a process with start and adds it to the Registry as a single
// step. start is passed the job number the process will get and returns the
// pid of the created process. The number is only consumed if start succeeds.
//
// The Registry is locked for the duration of start, so nothing else can
// observe or mutate it between the process being created and being tracked.
func (r *Registry) Track(
	name string,
	start func(number int) (int, error),
) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid, err := start(r.lastNumber + 1)
	if err != nil {
		return Job{}, err
	}

	return *r.add(pid, name), nil
}

func (r *Registry) add(pid int, name string) *Job {
	r.lastNumber++

	job := &Job{
		PID:    pid,
		Name:   strings.Clone(name),
		Number: r.lastNumber,
		State:  JobStateRunning,
	}

	r.jobs[pid] = job

	metrics.SetTracked(len(r.jobs))

	return job
}

// Find returns a copy of the Job with the given pid or ErrJobNotFound if it
// isn't tracked.
func (r *Registry) Find(pid int) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[pid]
	if !exists {
		return Job{}, ErrJobNotFound
	}

	return *job, nil
}

// Remove stops tracking the Job with the given pid. It returns whether a Job
// was tracked.
func (r *Registry) Remove(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, removed := r.remove(pid, 0)

	return removed
}

// remove deletes the Job for pid. When number is non-zero the Job is only
// removed if it still has that number. Callers must hold mu.
func (r *Registry) remove(pid, number int) (Job, bool) {
	job, exists := r.jobs[pid]
	if !exists || (number != 0 && job.Number != number) {
		return Job{}, false
	}

	delete(r.jobs, pid)

	metrics.SetTracked(len(r.jobs))

	return *job, true
}

// Transition moves the Job with the given pid from one state to another. It
// returns the updated Job, ErrJobNotFound if it isn't tracked, or an
// InvalidStateError if it isn't currently in the from state.
func (r *Registry) Transition(pid int, from, to JobState) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[pid]
	if !exists {
		return Job{}, ErrJobNotFound
	}

	if job.State != from {
		return *job, NewInvalidStateError(job.State, to)
	}

	job.State = to

	return *job, nil
}

// List returns a snapshot of the tracked Jobs in job number order. It returns
// an empty slice when nothing is tracked.
func (r *Registry) List() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.list()
}

func (r *Registry) list() []Job {
	jobs := make([]Job, 0, len(r.jobs))
	for job := range maps.Values(r.jobs) {
		jobs = append(jobs, *job)
	}

	slices.SortFunc(jobs, func(a, b Job) int {
		return cmp.Compare(a.Number, b.Number)
	})

	return jobs
}

// Len returns the number of tracked Jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.jobs)
}

// ClearAndTerminate removes every tracked Job and sends SIGKILL to its
// process. SIGKILL is used because it terminates a stopped process without it
// first being continued, so Paused Jobs don't need special handling.
//
// It returns the Jobs that were tracked, in job number order, and any
// delivery failures joined together. A failure doesn't stop the remaining
// Jobs being terminated.
func (r *Registry) ClearAndTerminate(s Signaler) ([]Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := r.list()

	var errs []error
	for _, job := range jobs {
		delete(r.jobs, job.PID)

		if err := deliver(s, job.PID, unix.SIGKILL); err != nil {
			errs = append(errs, err)
		}
	}

	metrics.SetTracked(len(r.jobs))

	return jobs, errors.Join(errs...)
}
