package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phiroict/yt-parallel/internal/domain"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	exitOK         = 0
	exitInput      = 1
	exitToolAbsent = 2
	exitProcessing = 3
)

// exitError carries the process exit code for a failed command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode maps a command error onto the documented exit codes
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	switch {
	case errors.Is(err, domain.ErrToolUnavailable):
		return exitToolAbsent
	case errors.Is(err, domain.ErrConfiguration):
		return exitInput
	default:
		return exitProcessing
	}
}

func main() {
	// Cancelled on Ctrl+C so running downloads are stopped
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}

	stop()
	os.Exit(exitCode(err))
}
