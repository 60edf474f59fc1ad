package cli

import "fmt"

// ExitError is an error that also carries the process exit code a command
// wants on failure, "CLI exit codes" (0 success, 1 disagreements,
// 2 argument/parse error). main translates it; cobra's own error path
// (a bare error with no ExitError) exits 1.
type ExitError struct {
	code int
	err  error
}

func (e *ExitError) Error() string { return e.err.Error() }
func (e *ExitError) Unwrap() error { return e.err }

// Code returns the process exit code this error requests.
func (e *ExitError) Code() int { return e.code }

func argError(err error) error {
	return &ExitError{code: 2, err: err}
}

func disagreementError(n int) error {
	return &ExitError{code: 1, err: fmt.Errorf("%d result(s) disagree with their expected outcome", n)}
}
