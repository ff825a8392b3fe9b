// Package errors defines the error taxonomy shared by the index builder and
// the query runner, and maps failures to process exit codes.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrMissingIndex      = errors.New("index not found")
	ErrMalformedPostings = errors.New("malformed postings line")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
)

const (
	ExitOK      = 0
	ExitFailure = 1
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: ExitFailure,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: ExitFailure,
	}
}

// ExitCode returns the process exit code for err. A nil error exits 0; every
// failure class aborts the run with 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.ExitCode != 0 {
		return appErr.ExitCode
	}
	return ExitFailure
}

// Hint returns a remediation hint for known failure classes, or "".
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrMissingIndex):
		return "build the index first with the indexer command, or point -index-dir at an existing index"
	case errors.Is(err, ErrResourceExhausted):
		return "free host memory, lower indexer.safetyFactor headroom or set indexer.memoryBudget explicitly"
	case errors.Is(err, ErrMalformedPostings):
		return "the postings file is corrupt; rebuild the index"
	default:
		return ""
	}
}

// Is and As re-export the standard helpers so callers need one errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
