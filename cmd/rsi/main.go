// Command rsi is an interactive command launcher with background job
// control.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGHUP,
	)
	defer cancel()

	// NOTE: Ctrl-C is meant for the foreground process, which shares the
	// terminal's process group. Handling SIGINT here keeps the launcher alive
	// while still leaving the default disposition for the processes it execs.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	go func() {
		for range interrupts {
		}
	}()

	return newCLI().rootCmd().ExecuteContext(ctx)
}
