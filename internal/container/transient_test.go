// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"
)

func TestIsTransientError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "wrapped context deadline", err: fmt.Errorf("pull failed: %w", context.DeadlineExceeded), want: false},
		{name: "manifest unknown", err: errors.New("manifest for python:3.99.0 not found: manifest unknown"), want: false},
		{name: "exit code 1", err: newExitError(t, 1), want: false},

		{name: "exit code 125", err: newExitError(t, 125), want: true},
		{name: "wrapped exit code 125", err: fmt.Errorf("pull failed: %w", newExitError(t, 125)), want: true},
		{name: "tls handshake", err: errors.New("Get https://registry-1.docker.io/v2/: net/http: TLS handshake timeout"), want: true},
		{name: "rate limited", err: errors.New("toomanyrequests: You have reached your pull rate limit"), want: true},
		{name: "could not resolve host", err: errors.New("Could not resolve host: registry-1.docker.io"), want: true},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTransientError(tt.err); got != tt.want {
				t.Errorf("IsTransientError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// newExitError creates an *exec.ExitError with the given exit code by running
// the helper process.
func newExitError(t *testing.T, code int) error {
	t.Helper()
	recorder := NewMockCommandRecorder()
	recorder.ExitCode = code
	err := recorder.CommandFunc(t)(t.Context(), "engine").Run()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("helper process with exit %d returned %v", code, err)
	}
	return exitErr
}
