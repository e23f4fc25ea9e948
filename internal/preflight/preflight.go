// SPDX-License-Identifier: MPL-2.0

// Package preflight gates test runs on host prerequisites.
package preflight

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultShell is the shell the integration suite expects.
const DefaultShell = "/bin/bash"

// ErrMissingShell is the sentinel error wrapped by MissingShellError.
var ErrMissingShell = errors.New("required shell not found")

type (
	// LookPathFunc resolves an executable name to a path, like exec.LookPath.
	LookPathFunc func(file string) (string, error)

	// MissingShellError reports that the configured shell is not on this host.
	MissingShellError struct {
		Shell string
		Err   error
	}
)

// Error implements the error interface.
func (e *MissingShellError) Error() string {
	return fmt.Sprintf("No %s on this system - cannot run integration tests! Try a container?", e.Shell)
}

// Unwrap returns ErrMissingShell for errors.Is() compatibility.
func (e *MissingShellError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingShell}
	}
	return []error{ErrMissingShell, e.Err}
}

// CheckShell verifies that shell resolves to an executable. An empty name
// means DefaultShell. lookPath defaults to exec.LookPath.
func CheckShell(shell string, lookPath LookPathFunc) (string, error) {
	if strings.TrimSpace(shell) == "" {
		shell = DefaultShell
	}
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(shell)
	if err != nil {
		return "", &MissingShellError{Shell: shell, Err: err}
	}
	return path, nil
}
