// SPDX-License-Identifier: MPL-2.0

package pytest

import (
	"context"
	"errors"
	"io"
	"path"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/crosscheck/crosscheck/internal/procexec"
	"github.com/crosscheck/crosscheck/pkg/types"
)

const (
	// DefaultCommand is the test runner entry point.
	DefaultCommand = "pytest"
	// DefaultTestsDir holds the unit test modules.
	DefaultTestsDir = "tests"
)

// ErrEmptyCommand is returned when a configured command has no words.
var ErrEmptyCommand = errors.New("empty command")

type (
	// Tester runs the test suite once and reports the runner's exit status.
	// A non-nil error means the runner could not be started or the options
	// were rejected; a failing suite is a non-zero code with a nil error.
	Tester interface {
		Test(ctx context.Context, opts TestOptions) (types.ExitCode, error)
	}

	// TesterFunc adapts a function to the Tester interface.
	TesterFunc func(ctx context.Context, opts TestOptions) (types.ExitCode, error)

	// IO is where child processes read and write, and where command lines
	// are echoed.
	IO struct {
		Stdin      io.Reader
		Stdout     io.Writer
		Stderr     io.Writer
		Echo       io.Writer
		EchoFormat func(string) string
	}

	// CommandTesterOption configures a CommandTester.
	CommandTesterOption func(*CommandTester)

	// CommandTester runs the external test runner as a child process.
	CommandTester struct {
		command  string
		testsDir string
		dir      string
		io       IO
		logger   *log.Logger
		exec     procexec.CommandFunc
	}
)

// Test calls f.
func (f TesterFunc) Test(ctx context.Context, opts TestOptions) (types.ExitCode, error) {
	return f(ctx, opts)
}

// WithRunnerCommand sets the runner command line (e.g. "python -m pytest").
func WithRunnerCommand(command string) CommandTesterOption {
	return func(t *CommandTester) {
		if command != "" {
			t.command = command
		}
	}
}

// WithTestsDir sets the directory Module names resolve in.
func WithTestsDir(dir string) CommandTesterOption {
	return func(t *CommandTester) {
		if dir != "" {
			t.testsDir = dir
		}
	}
}

// WithDir sets the runner's working directory.
func WithDir(dir string) CommandTesterOption {
	return func(t *CommandTester) { t.dir = dir }
}

// WithIO attaches the runner's standard streams.
func WithIO(streams IO) CommandTesterOption {
	return func(t *CommandTester) { t.io = streams }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) CommandTesterOption {
	return func(t *CommandTester) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithCommandFunc overrides how runner processes are created.
func WithCommandFunc(fn procexec.CommandFunc) CommandTesterOption {
	return func(t *CommandTester) { t.exec = fn }
}

// NewCommandTester creates a CommandTester running "pytest" against "tests".
func NewCommandTester(opts ...CommandTesterOption) *CommandTester {
	t := &CommandTester{
		command:  DefaultCommand,
		testsDir: DefaultTestsDir,
		logger:   log.New(io.Discard),
		exec:     procexec.Command,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Argv builds the runner command line for opts:
//
//	pytest [--verbose] --color=yes|no --capture=<mode> [-k <expr>] [-x] <opts...> [tests/<module>.py]
//
// -k and -x are left out when opts already carries them.
func (t *CommandTester) Argv(opts TestOptions) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	argv, err := procexec.SplitArgs(t.command)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	extra, err := procexec.SplitArgs(opts.Opts)
	if err != nil {
		return nil, err
	}

	if opts.Verbose {
		argv = append(argv, "--verbose")
	}
	if opts.Color {
		argv = append(argv, "--color=yes")
	} else {
		argv = append(argv, "--color=no")
	}
	argv = append(argv, "--capture="+opts.Capture.String())
	if opts.K != "" && !slices.Contains(extra, "-k") {
		argv = append(argv, "-k", opts.K)
	}
	if opts.X && !slices.Contains(extra, "-x") {
		argv = append(argv, "-x")
	}
	argv = append(argv, extra...)
	if opts.Module != "" {
		argv = append(argv, path.Join(t.testsDir, opts.Module+".py"))
	}
	return argv, nil
}

// Test runs the runner and returns its exit status unchanged.
func (t *CommandTester) Test(ctx context.Context, opts TestOptions) (types.ExitCode, error) {
	argv, err := t.Argv(opts)
	if err != nil {
		return types.ExitFailure, err
	}
	t.logger.Debug("running tests", "argv", argv, "pty", opts.PTY)

	cmd := t.exec(ctx, argv[0], argv[1:]...)
	code, err := procexec.Run(cmd, procexec.Options{
		Dir:        t.dir,
		Stdin:      t.io.Stdin,
		Stdout:     t.io.Stdout,
		Stderr:     t.io.Stderr,
		PTY:        opts.PTY,
		Echo:       t.io.Echo,
		EchoFormat: t.io.EchoFormat,
	})
	if err != nil {
		return code, err
	}
	if !code.IsSuccess() {
		t.logger.Debug("test runner failed", "exit", int(code))
	}
	return code, nil
}
