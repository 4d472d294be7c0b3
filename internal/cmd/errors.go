package cmd

import (
	"errors"

	"github.com/coldog/jspack/pkg/config"
)

// Exit codes.
const (
	ExitSuccess     = 0
	ExitBuildError  = 1
	ExitConfigError = 2
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeFromError determines the exit code for an error returned by a
// command.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, config.ErrInvalid) {
		return ExitConfigError
	}
	return ExitBuildError
}
