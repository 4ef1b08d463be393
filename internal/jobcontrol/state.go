package jobcontrol

type JobState int

const (
	// JobStateUnknown indicates the state of the job is unknown. It's used as
	// the zero value for functions that return a (possibly absent) JobState.
	JobStateUnknown JobState = iota

	// JobStateRunning indicates the process of the job is executing. The job
	// can be paused or killed.
	JobStateRunning

	// JobStatePaused indicates the process of the job has been sent SIGSTOP.
	// The job can be resumed or killed.
	JobStatePaused
)

// NOTE: This slice needs to be kept in sync with any changes to the JobState
// values. The strings are what `bglist` prints, so changing them changes the
// CLI output.
var jobStates = []string{
	"Unknown",
	"Running",
	"Paused",
}

// String implements the Stringer interface for JobState and returns a string
// representation of the JobState by using the int value to index into a slice.
func (s JobState) String() string {
	if int(s) < 0 || int(s) >= len(jobStates) {
		return jobStates[0]
	}

	return jobStates[s]
}
