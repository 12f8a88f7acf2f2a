package cmd

import (
	"errors"
	"fmt"
)

// ExitError carries a process exit code alongside the underlying error.
// Usage mistakes exit 2; runtime failures exit 1.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error to errors.Is/As.
func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error to the process exit code main should use.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}

	return 1
}

// newUsageError wraps an error so main maps it to exit code 2.
func newUsageError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: 2, Err: err}
}

// usagef builds a usage error from a format string.
func usagef(format string, args ...any) error {
	return &ExitError{Code: 2, Err: fmt.Errorf(format, args...)}
}
