// Package shell implements the interactive read loop of the launcher. It
// reads commands, runs the built-ins, and launches everything else through a
// jobcontrol.Manager.
//
// The loop is the only place Jobs are reaped: exits of background processes
// are applied while waiting for input, and before every prompt.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nixpig/rsi/internal/jobcontrol"
)

const (
	// DefaultPrompt is shown before reading each command. {cwd} is replaced
	// with the working directory.
	DefaultPrompt = "RSI: {cwd} >"

	// DefaultShutdownTimeout bounds how long exit waits for terminated jobs to
	// be collected.
	DefaultShutdownTimeout = 2 * time.Second
)

// Config configures a Shell.
type Config struct {
	Prompt          string
	ShutdownTimeout time.Duration

	// Home replaces a leading ~ in command arguments. Empty disables it.
	Home string
}

// Shell reads commands from an input and dispatches them.
type Shell struct {
	manager *jobcontrol.Manager
	logger  *slog.Logger
	cfg     Config

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// New creates a Shell reading commands from in. Prompts and listings are
// written to out; diagnostics and job notices are written to errOut.
func New(
	manager *jobcontrol.Manager,
	in io.Reader,
	out io.Writer,
	errOut io.Writer,
	cfg Config,
	logger *slog.Logger,
) *Shell {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Shell{
		manager: manager,
		logger:  logger,
		cfg:     cfg,
		in:      in,
		out:     out,
		errOut:  errOut,
	}
}

// Run reads and executes commands until quit, the end of input, or ctx is
// done. Before returning it terminates every remaining background Job.
func (s *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	next := make(chan struct{}, 1)
	lines := make(chan string)

	go s.readLines(ctx, next, lines)

	defer s.shutdown()

	for {
		s.reap()
		s.prompt()

		// Only read the next line once the previous command has finished, so a
		// foreground process gets the terminal's input to itself.
		next <- struct{}{}

		line, ok := s.waitForLine(ctx, lines)
		if !ok {
			return nil
		}

		if quit := s.execute(ctx, line); quit {
			return nil
		}
	}
}

func (s *Shell) waitForLine(ctx context.Context, lines <-chan string) (string, bool) {
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return "", false

		case <-s.manager.Pending():
			s.reap()

		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				return "", false
			}

			return line, true
		}
	}
}

func (s *Shell) readLines(
	ctx context.Context,
	next <-chan struct{},
	lines chan<- string,
) {
	defer close(lines)

	scanner := bufio.NewScanner(s.in)

	for {
		select {
		case <-ctx.Done():
			return
		case <-next:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				s.logger.Warn("read input", "err", err)
			}

			return
		}

		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

// execute runs a single line of input. It returns true when the shell should
// exit.
func (s *Shell) execute(ctx context.Context, line string) bool {
	args, background := tokenize(line, s.cfg.Home)

	if len(args) == 0 {
		if background {
			fmt.Fprintln(s.errOut, "No command given")
		}

		return false
	}

	if background {
		s.launch(ctx, args, true)
		return false
	}

	switch args[0] {
	case "quit", "exit":
		return true
	case "cd":
		s.changeDir(args)
	case "bglist":
		s.list()
	case "pause", "resume", "kill":
		s.control(args)
	default:
		s.launch(ctx, args, false)
	}

	return false
}

func (s *Shell) prompt() {
	cwd, err := os.Getwd()
	if err != nil {
		s.logger.Warn("get working directory", "err", err)
		cwd = "?"
	}

	fmt.Fprint(s.out, strings.ReplaceAll(s.cfg.Prompt, "{cwd}", cwd))
}

func (s *Shell) changeDir(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.errOut, "No Directory Given")
		return
	}

	if err := os.Chdir(args[1]); err != nil {
		s.logger.Debug("change directory", "dir", args[1], "err", err)
		fmt.Fprintln(s.errOut, "Failure")
	}
}

func (s *Shell) list() {
	jobs := s.manager.List()

	if len(jobs) == 0 {
		fmt.Fprintln(s.out, "No Processes Currently Running")
		return
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)

	for _, job := range jobs {
		fmt.Fprintf(
			w,
			"Processid: %d\tName: %s\tJobid: %d\tStatus: %s\n",
			job.PID,
			job.Name,
			job.Number,
			job.State,
		)
	}

	w.Flush()
}

func (s *Shell) control(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.errOut, "No Process id Given")
		return
	}

	pid, err := jobcontrol.ParsePID(args[1])
	if err != nil {
		fmt.Fprintf(s.errOut, "%s is not a processid\n", args[1])
		return
	}

	var operation func(int) error

	switch args[0] {
	case "pause":
		operation = s.manager.Pause
	case "resume":
		operation = s.manager.Resume
	case "kill":
		operation = s.manager.Kill
	}

	s.report(args[0], pid, operation(pid))
}

// report writes the outcome of a job control command to errOut.
func (s *Shell) report(command string, pid int, err error) {
	var (
		stateErr  jobcontrol.InvalidStateError
		signalErr *jobcontrol.SignalError
	)

	switch {
	case err == nil:
		switch command {
		case "pause":
			fmt.Fprintf(s.errOut, "Process %d has been paused\n", pid)
		case "resume":
			fmt.Fprintf(s.errOut, "Process %d has been resumed\n", pid)
		}

	case errors.Is(err, jobcontrol.ErrJobNotFound):
		if command == "kill" {
			fmt.Fprintf(s.errOut, "No Process with id %d\n", pid)
		} else {
			fmt.Fprintf(s.errOut, "Process %d not found\n", pid)
		}

	case errors.As(err, &stateErr):
		if command == "pause" {
			fmt.Fprintf(s.errOut, "Process %d is not currently running\n", pid)
		} else {
			fmt.Fprintf(s.errOut, "Process %d is currently running\n", pid)
		}

	case errors.As(err, &signalErr) && signalErr.Gone():
		fmt.Fprintf(s.errOut, "Process %d has already exited\n", pid)

	default:
		fmt.Fprintf(s.errOut, "%s %d: %v\n", command, pid, err)
	}
}

func (s *Shell) launch(ctx context.Context, args []string, background bool) {
	pid, err := s.manager.Launch(ctx, args[0], args[1:], background)
	if err != nil {
		s.logger.Warn(
			"launch process",
			"command", args[0],
			"background", background,
			"err", err,
		)
		fmt.Fprintf(s.errOut, "Problem creating process: %v\n", err)

		return
	}

	if background {
		fmt.Fprintf(s.errOut, "Process with id %d started\n", pid)
	}
}

// reap reports every background Job whose process has exited.
func (s *Shell) reap() {
	for _, job := range s.manager.Reap() {
		fmt.Fprintf(s.errOut, "Process with id %d completed\n", job.PID)
	}
}

func (s *Shell) shutdown() {
	s.reap()

	for _, job := range s.manager.Shutdown() {
		fmt.Fprintf(s.errOut, "Process with id %d forcibly closed\n", job.PID)
	}

	ctx, cancel := context.WithTimeout(
		context.Background(),
		s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.manager.Wait(ctx); err != nil {
		s.logger.Warn("wait for terminated jobs", "err", err)
	}

	fmt.Fprintln(s.errOut, "Goodbye!")
}
