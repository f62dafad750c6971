package cli

import (
	"errors"
	"fmt"
)

// Exit statuses.
const (
	ExitOK       = 0
	ExitFailures = 1
	ExitError    = 2
)

// ExitCodeError carries the process exit status out of a command. A nil
// Err means nothing is left to print.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// Failed ends a run that completed but found problems.
func Failed() error {
	return &ExitCodeError{Code: ExitFailures}
}

// ExitCode maps a command error to a process exit status. Anything that
// kept the run from completing, including bad flags, is ExitError.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exit *ExitCodeError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return ExitError
}

// Message returns the text to print for err, or "" when there is none.
func Message(err error) string {
	var exit *ExitCodeError
	if errors.As(err, &exit) && exit.Err == nil {
		return ""
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
