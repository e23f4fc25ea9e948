// SPDX-License-Identifier: MPL-2.0

package pytest

import (
	"context"

	"github.com/crosscheck/crosscheck/internal/procexec"
	"github.com/crosscheck/crosscheck/pkg/types"
)

// DefaultSuite is the integration suite path handed to the runner.
const DefaultSuite = "integration/"

// Integration is a Tester that runs a prerequisite check and then the
// wrapped tester with the suite path appended to Opts. A failed check runs
// no tests.
type Integration struct {
	Tester Tester
	// Suite defaults to DefaultSuite.
	Suite string
	// Preflight, when set, must succeed before any test runs.
	Preflight func() error
}

// Test implements Tester.
func (i Integration) Test(ctx context.Context, opts TestOptions) (types.ExitCode, error) {
	if i.Preflight != nil {
		if err := i.Preflight(); err != nil {
			return types.ExitFailure, err
		}
	}
	suite := i.Suite
	if suite == "" {
		suite = DefaultSuite
	}
	return i.Tester.Test(ctx, opts.WithOpts(procexec.FormatCommandLine([]string{suite})))
}
