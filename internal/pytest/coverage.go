// SPDX-License-Identifier: MPL-2.0

package pytest

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/crosscheck/crosscheck/internal/procexec"
	"github.com/crosscheck/crosscheck/pkg/types"
)

const (
	// DefaultCodecovCommand uploads the coverage data.
	DefaultCodecovCommand = "codecov"
	// HTMLReportPath is where the html report lands.
	HTMLReportPath = "htmlcov/index.html"

	coverageFlags = "--cov --no-cov-on-fail --cov-report="
	appendFlag    = "--cov-append"
)

type (
	// CoverageOptions parameterizes one coverage run.
	CoverageOptions struct {
		Report ReportFormat
		// Opts is appended to the coverage flags of every tester.
		Opts string
		// Codecov uploads the data after all testers passed.
		Codecov bool
	}

	// Coverage runs the main tester with coverage enabled, then each
	// additional tester appending to the same data, then the optional upload.
	Coverage struct {
		Tester     Tester
		Additional []Tester
		// CodecovCommand defaults to DefaultCodecovCommand.
		CodecovCommand string
		Dir            string
		IO             IO
		Logger         *log.Logger
		// Exec defaults to procexec.Command.
		Exec procexec.CommandFunc
	}
)

// DefaultCoverageOptions returns a terminal report without upload.
func DefaultCoverageOptions() CoverageOptions {
	return CoverageOptions{Report: ReportTerm}
}

// Validate returns nil when the options are usable.
func (o CoverageOptions) Validate() error {
	if valid, errs := o.Report.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// TesterOpts returns the extra runner arguments of the main tester and of
// the additional testers.
func (o CoverageOptions) TesterOpts() (main, additional string) {
	main = coverageFlags + o.Report.String()
	if o.Opts != "" {
		main += " " + o.Opts
	}
	return main, main + " " + appendFlag
}

// Run executes the sequence. The first non-zero status stops it and is
// returned unchanged. base supplies every TestOptions field but Opts.
func (c *Coverage) Run(ctx context.Context, base TestOptions, opts CoverageOptions) (types.ExitCode, error) {
	if err := opts.Validate(); err != nil {
		return types.ExitFailure, err
	}
	logger := c.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	mainOpts, additionalOpts := opts.TesterOpts()
	testers := append([]Tester{c.Tester}, c.Additional...)
	for i, tester := range testers {
		run := base
		run.Opts = mainOpts
		if i > 0 {
			run.Opts = additionalOpts
		}
		code, err := tester.Test(ctx, run)
		if err != nil || !code.IsSuccess() {
			logger.Debug("coverage run stopped", "tester", i, "exit", int(code))
			return code, err
		}
	}

	if opts.Report == ReportHTML {
		logger.Info("coverage report written", "path", HTMLReportPath)
	}
	if !opts.Codecov {
		return types.ExitSuccess, nil
	}
	return c.upload(ctx)
}

func (c *Coverage) upload(ctx context.Context) (types.ExitCode, error) {
	command := c.CodecovCommand
	if command == "" {
		command = DefaultCodecovCommand
	}
	argv, err := procexec.SplitArgs(command)
	if err != nil {
		return types.ExitFailure, err
	}
	if len(argv) == 0 {
		return types.ExitFailure, ErrEmptyCommand
	}
	newCmd := c.Exec
	if newCmd == nil {
		newCmd = procexec.Command
	}
	return procexec.Run(newCmd(ctx, argv[0], argv[1:]...), procexec.Options{
		Dir:        c.Dir,
		Stdout:     c.IO.Stdout,
		Stderr:     c.IO.Stderr,
		Echo:       c.IO.Echo,
		EchoFormat: c.IO.EchoFormat,
	})
}
