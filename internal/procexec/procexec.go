// SPDX-License-Identifier: MPL-2.0

package procexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/crosscheck/crosscheck/pkg/types"

	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"
)

// killGrace is how long Wait keeps copying output after the process group
// has been killed.
const killGrace = 2 * time.Second

type (
	// CommandFunc creates exec.Cmd values. Tests substitute a helper-process
	// implementation.
	CommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Options controls how a process is attached and reported.
	Options struct {
		// Dir is the working directory of the process. Empty means the
		// caller's working directory.
		Dir string
		// Env is appended to the inherited environment.
		Env []string
		// Stdin, Stdout and Stderr default to nothing attached.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// PTY attaches the process to a pseudo-terminal when Stdin is a
		// terminal. Otherwise it falls back to plain pipes.
		PTY bool
		// Echo receives the quoted command line before the process starts.
		Echo io.Writer
		// EchoFormat decorates the echoed line (e.g. with a style).
		EchoFormat func(line string) string
	}
)

// Command creates a context-bound command whose whole process group is
// killed on cancellation.
func Command(ctx context.Context, name string, arg ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, arg...)
	prepare(cmd)
	return cmd
}

// Run starts cmd, waits for it and maps its exit status.
func Run(cmd *exec.Cmd, opts Options) (types.ExitCode, error) {
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	if opts.Echo != nil {
		line := FormatCommandLine(cmd.Args)
		if opts.EchoFormat != nil {
			line = opts.EchoFormat(line)
		}
		fmt.Fprintln(opts.Echo, line)
	}

	var err error
	if opts.PTY && stdinIsTerminal(opts.Stdin) {
		err = runWithPTY(cmd, opts)
	} else {
		cmd.Stdin = opts.Stdin
		cmd.Stdout = opts.Stdout
		cmd.Stderr = opts.Stderr
		err = cmd.Run()
	}
	return ExitCodeOf(err)
}

// ExitCodeOf maps the error returned by exec.Cmd.Run/Wait to an exit code.
// Non-zero exits yield their code and a nil error; a process killed by a
// signal reports ExitFailure. Any other error is returned as-is with
// ExitFailure.
func ExitCodeOf(err error) (types.ExitCode, error) {
	if err == nil {
		return types.ExitSuccess, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return types.ExitCode(code), nil
		}
		return types.ExitFailure, nil
	}
	return types.ExitFailure, err
}

// SplitArgs splits s into words using POSIX shell rules, so quoted
// arguments such as `-k "not slow"` survive as one word. Variables are
// expanded from the process environment.
func SplitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields, err := shell.Fields(s, nil)
	if err != nil {
		return nil, fmt.Errorf("split arguments %q: %w", s, err)
	}
	return fields, nil
}

// FormatCommandLine renders argv as a copy-pasteable shell command line.
func FormatCommandLine(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, a := range argv {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", a)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}

func prepare(cmd *exec.Cmd) {
	configureProcessGroup(cmd)
	cmd.Cancel = func() error {
		terminateProcessGroup(cmd)
		return nil
	}
	cmd.WaitDelay = killGrace
}
