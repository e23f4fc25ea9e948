// SPDX-License-Identifier: MPL-2.0

package regression

import (
	"errors"
	"fmt"

	"github.com/crosscheck/crosscheck/pkg/types"
)

var (
	// ErrJobFailed is the sentinel wrapped by JobFailureError.
	ErrJobFailed = errors.New("regression job failed")
	// ErrInvalidJobCount is returned when fewer than one job is requested.
	ErrInvalidJobCount = errors.New("invalid job count")
	// ErrSupportDirNotFound is returned when the support directory is missing.
	ErrSupportDirNotFound = errors.New("support directory not found")
	// ErrEmptyCommand is returned when the regression command has no words.
	ErrEmptyCommand = errors.New("empty regression command")
	// ErrPoolHalted is the default halt cause.
	ErrPoolHalted = errors.New("pool halted")
)

type (
	// JobFailureError reports the first job that exited non-zero or could not
	// be started.
	JobFailureError struct {
		Job      Job
		ExitCode types.ExitCode
		// Err is set when the job could not be started.
		Err error
	}

	// InvalidJobCountError is returned for a job count below one.
	InvalidJobCountError struct {
		Value int
	}

	// SupportDirError is returned when the support directory cannot be used.
	SupportDirError struct {
		Path types.FilesystemPath
		Err  error
	}
)

// Error implements the error interface.
func (e *JobFailureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("regression job %d could not run: %v", e.Job, e.Err)
	}
	return fmt.Sprintf("regression job %d exited with status %d", e.Job, e.ExitCode)
}

// Unwrap returns ErrJobFailed and the launch error, if any.
func (e *JobFailureError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrJobFailed, e.Err}
	}
	return []error{ErrJobFailed}
}

// Error implements the error interface.
func (e *InvalidJobCountError) Error() string {
	return fmt.Sprintf("invalid job count %d (must be >= 1)", e.Value)
}

// Unwrap returns ErrInvalidJobCount.
func (e *InvalidJobCountError) Unwrap() error { return ErrInvalidJobCount }

// Error implements the error interface.
func (e *SupportDirError) Error() string {
	return fmt.Sprintf("support directory %q: %v", e.Path, e.Err)
}

// Unwrap returns ErrSupportDirNotFound and the underlying cause.
func (e *SupportDirError) Unwrap() []error {
	return []error{ErrSupportDirNotFound, e.Err}
}
