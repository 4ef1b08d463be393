package jobcontrol

import "fmt"

// Job is a snapshot of a background process tracked by a Registry. Values
// handed out by the Registry are copies; changing one has no effect on the
// tracked Job.
type Job struct {
	PID    int
	Name   string
	Number int
	State  JobState
}

func (j Job) String() string {
	return fmt.Sprintf("[%d] %d %s (%s)", j.Number, j.PID, j.Name, j.State)
}
