// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"time"

	"github.com/crosscheck/crosscheck/internal/version"
	"github.com/crosscheck/crosscheck/pkg/types"
)

const (
	// StatusPassed means the container exited 0.
	StatusPassed Status = "passed"
	// StatusFailed means the container exited non-zero or could not be started.
	StatusFailed Status = "failed"
	// StatusSkipped means the target never ran (fail-fast or interrupt).
	StatusSkipped Status = "skipped"
)

type (
	// Status is the outcome of one target.
	Status string

	// TargetResult records how one target went.
	TargetResult struct {
		Target   version.Target
		Image    string
		Status   Status
		ExitCode types.ExitCode
		// Err is set when the container could not be launched.
		Err      error
		Duration time.Duration
	}

	// Report is the ordered list of target results of one dispatch.
	Report struct {
		Results []TargetResult
	}
)

// String returns the status name.
func (s Status) String() string { return string(s) }

// ExitCode is the aggregate status: 0 if every target passed, otherwise the
// exit code of the first failing target. A report with skipped targets but
// no failures (an interrupted run) reports ExitFailure.
func (r *Report) ExitCode() types.ExitCode {
	codes := make([]types.ExitCode, 0, len(r.Results))
	skipped := false
	for _, res := range r.Results {
		switch res.Status {
		case StatusFailed:
			codes = append(codes, res.ExitCode)
		case StatusSkipped:
			skipped = true
		}
	}
	if code := types.FirstFailure(codes...); !code.IsSuccess() {
		return code
	}
	if skipped {
		return types.ExitFailure
	}
	return types.ExitSuccess
}

// Counts returns the number of passed, failed and skipped targets.
func (r *Report) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// FirstFailure returns the first failed result, if any.
func (r *Report) FirstFailure() (TargetResult, bool) {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return res, true
		}
	}
	return TargetResult{}, false
}
