package jobcontrol_test

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/nixpig/rsi/internal/jobcontrol"
)

type sentSignal struct {
	pid int
	sig syscall.Signal
}

// fakeSignaler records signals instead of delivering them. Deliveries to pids
// in fail return the mapped error.
type fakeSignaler struct {
	sent []sentSignal
	fail map[int]error
	mu   sync.Mutex
}

func newFakeSignaler() *fakeSignaler {
	return &fakeSignaler{fail: make(map[int]error)}
}

func (f *fakeSignaler) Signal(pid int, sig syscall.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.fail[pid]; ok {
		return err
	}

	f.sent = append(f.sent, sentSignal{pid, sig})

	return nil
}

func (f *fakeSignaler) signals() []sentSignal {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]sentSignal(nil), f.sent...)
}

func testJobs(t *testing.T, got []jobcontrol.Job, want []jobcontrol.Job) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("expected jobs: got '%v', want '%v'", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected job %d: got '%v', want '%v'", i, got[i], want[i])
		}
	}
}

func waitForReap(t *testing.T, m *jobcontrol.Manager) []jobcontrol.Job {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	select {
	case <-m.Pending():
		return m.Reap()
	case <-ctx.Done():
		t.Fatalf("expected pending exit before timeout")
	}

	return nil
}

// processState returns the state letter of pid from /proc, e.g. 'S' or 'T'.
func processState(t *testing.T, pid int) byte {
	t.Helper()

	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		t.Fatalf("expected to read process stat: got '%v'", err)
	}

	// The command name is wrapped in parens and may contain spaces, so the
	// state is the first field after the last ')'.
	fields := strings.Fields(string(data[strings.LastIndexByte(string(data), ')')+1:]))

	return fields[0][0]
}

func waitForProcessState(t *testing.T, pid int, want ...byte) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		got := processState(t, pid)
		for _, w := range want {
			if got == w {
				return
			}
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Errorf(
		"expected process state: got '%c', want one of '%s'",
		processState(t, pid),
		want,
	)
}
