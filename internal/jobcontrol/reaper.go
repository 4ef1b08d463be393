package jobcontrol

import (
	"sync"

	"github.com/nixpig/rsi/internal/metrics"
)

// exit identifies a Job whose process has exited. The number guards against
// the pid having been reused by a newer Job before the exit was reaped.
type exit struct {
	pid    int
	number int
}

// Reaper applies child exits to a Registry.
//
// Exits are recorded by Notify from whichever goroutine observed them; that
// is all Notify does. The Registry is only changed when the owner of the main
// loop calls Reap after Pending fires.
type Reaper struct {
	registry *Registry

	pending []exit
	mu      sync.Mutex

	wake chan struct{}
}

// NewReaper creates a Reaper that removes exited Jobs from registry.
func NewReaper(registry *Registry) *Reaper {
	return &Reaper{
		registry: registry,
		wake:     make(chan struct{}, 1),
	}
}

// Notify records that the process of the Job with the given pid and number
// has exited. It never blocks.
func (r *Reaper) Notify(pid, number int) {
	r.mu.Lock()
	r.pending = append(r.pending, exit{pid, number})
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Pending returns a channel that receives when there are exits to reap.
// Multiple exits may be pending for a single receive.
func (r *Reaper) Pending() <-chan struct{} {
	return r.wake
}

// Reap removes the Job of every pending exit from the Registry and returns
// them in the order the exits were recorded. Exits that don't match a tracked
// Job (already killed, or the pid now belongs to a newer Job) are dropped
// silently.
func (r *Reaper) Reap() []Job {
	var completed []Job

	for {
		r.mu.Lock()
		exits := r.pending
		r.pending = nil
		r.mu.Unlock()

		if len(exits) == 0 {
			return completed
		}

		r.registry.mu.Lock()
		for _, e := range exits {
			if job, ok := r.registry.remove(e.pid, e.number); ok {
				metrics.IncReaped()
				completed = append(completed, job)
			}
		}
		r.registry.mu.Unlock()
	}
}
