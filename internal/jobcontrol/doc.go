// Package jobcontrol provides functionality for launching Linux processes and
// tracking the ones sent to the background as Jobs.
//
// A Job is a background process that can be listed, paused, resumed, and
// killed by its process id until it exits.
//
// A Manager owns the Registry of Jobs, the Reaper that applies child exits to
// it, and the controller operations. All Registry mutations happen either on
// the caller's goroutine or inside Reap, which the caller invokes when Pending
// fires, so exits never interrupt a mutation half way through.
package jobcontrol
