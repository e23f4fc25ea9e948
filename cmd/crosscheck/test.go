// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/crosscheck/crosscheck/internal/pytest"
)

// testFlags mirrors pytest.TestOptions; values only apply when the flag was
// given, so configured defaults stay in effect otherwise.
type testFlags struct {
	verbose bool
	color   bool
	capture string
	module  string
	k       string
	x       bool
	opts    string
	pty     bool
}

func newTestCommand(app *App) *cobra.Command {
	var flags testFlags

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the unit test suite",
		Long: `Run the unit test suite with project defaults.

Output capturing is off by default (the suite does heavy subprocess IO that
capturing interferes with) and runner output is quiet. The runner's exit
status is returned unchanged.`,
		Example: `  crosscheck test
  crosscheck test --module runners -k "not slow" -x
  crosscheck test --capture sys --opts "--tb=short"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := flags.apply(cmd.Flags(), app.cfg.Test.TestOptions())
			if err := opts.Validate(); err != nil {
				return invalidOptionsError("validate test options", err)
			}
			return runTester(cmd, app, app.tester(), opts)
		},
	}

	defaults := pytest.DefaultTestOptions()
	f := cmd.Flags()
	f.BoolVar(&flags.verbose, "verbose", defaults.Verbose, "verbose runner output")
	f.BoolVar(&flags.color, "color", defaults.Color, "colored runner output")
	f.StringVar(&flags.capture, "capture", defaults.Capture.String(), "output capture mode: no, sys, fd or tee-sys")
	f.StringVar(&flags.module, "module", "", "run only tests/<module>.py")
	f.StringVarP(&flags.k, "k", "k", "", "only run tests matching the expression")
	f.BoolVarP(&flags.x, "x", "x", false, "stop at the first failing test")
	addPassThroughFlags(f, &flags)
	return cmd
}

func newIntegrationCommand(app *App) *cobra.Command {
	var flags testFlags

	cmd := &cobra.Command{
		Use:   "integration",
		Short: "Run the integration test suite (may be slow)",
		Long: `Run the integration test suite. May be slow!

The configured shell (run.shell, default /bin/bash) must exist on this
host; without it no test runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := flags.apply(cmd.Flags(), app.cfg.Test.TestOptions())
			return runTester(cmd, app, app.integrationTester(app.tester()), opts)
		},
	}
	addPassThroughFlags(cmd.Flags(), &flags)
	return cmd
}

func addPassThroughFlags(f *pflag.FlagSet, flags *testFlags) {
	f.StringVar(&flags.opts, "opts", "", "extra runner arguments (shell quoting applies)")
	f.BoolVar(&flags.pty, "pty", pytest.DefaultTestOptions().PTY, "attach the runner to a pseudo-terminal")
}

// apply overlays the explicitly given flags on base.
func (f testFlags) apply(fs *pflag.FlagSet, base pytest.TestOptions) pytest.TestOptions {
	opts := base
	set := func(name string, apply func()) {
		if flag := fs.Lookup(name); flag != nil && flag.Changed {
			apply()
		}
	}
	set("verbose", func() { opts.Verbose = f.verbose })
	set("color", func() { opts.Color = f.color })
	set("capture", func() { opts.Capture = pytest.CaptureMode(f.capture) })
	set("module", func() { opts.Module = f.module })
	set("k", func() { opts.K = f.k })
	set("x", func() { opts.X = f.x })
	set("opts", func() { opts.Opts = f.opts })
	set("pty", func() { opts.PTY = f.pty })
	return opts
}

// runTester runs tester and maps its result onto the command's exit.
func runTester(cmd *cobra.Command, app *App, tester pytest.Tester, opts pytest.TestOptions) error {
	code, err := tester.Test(cmd.Context(), opts)
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			return svcErr
		}
		return testRunError(err)
	}
	if !code.IsSuccess() {
		app.logger.Debug("test runner exited non-zero", "exit", int(code))
	}
	return exitStatus(code)
}
