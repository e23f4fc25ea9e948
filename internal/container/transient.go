// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// transientMarkers are engine error fragments that usually clear on retry.
var transientMarkers = []string{
	"TLS handshake timeout",
	"i/o timeout",
	"connection reset by peer",
	"connection refused",
	"Temporary failure resolving",
	"Could not resolve host",
	"toomanyrequests",
	"503 Service Unavailable",
	"error creating overlay mount",
}

// IsTransientError reports whether err is a container engine failure that
// may succeed on retry, such as a registry timeout during an image pull.
// Context cancellation is never transient.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// 125 is the engines' generic "daemon error" exit status.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 125 {
		return true
	}

	msg := err.Error()
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
