package cli

import (
	"errors"
)

const (
	ExitCodeSuccess = 0
	ExitCodeFailure = 1
)

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ExitError) ExitCode() int {
	if e == nil {
		return ExitCodeFailure
	}
	return e.Code
}

// mapCommandError gives every bootstrap failure an exit code. There is only
// one failure status: open, provisioning, seeding and close errors all exit 1.
func mapCommandError(err error) error {
	if err == nil {
		return nil
	}
	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return err
	}
	return &ExitError{Code: ExitCodeFailure, Err: err}
}
