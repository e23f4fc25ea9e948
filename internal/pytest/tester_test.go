// SPDX-License-Identifier: MPL-2.0

package pytest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/crosscheck/crosscheck/internal/procexec"
	"github.com/crosscheck/crosscheck/pkg/types"
)

// helperExec re-executes the test binary in place of the runner.
func helperExec(ctx context.Context, name string, arg ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--", name}, arg...)
	cmd := procexec.Command(ctx, os.Args[0], cs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd
}

// TestHelperProcess prints its argv one per line and exits with the code
// given by a --fake-exit=<n> argument.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	code := 0
	for _, a := range args[1:] {
		fmt.Fprintln(os.Stdout, a)
		if v, ok := strings.CutPrefix(a, "--fake-exit="); ok {
			code, _ = strconv.Atoi(v)
		}
	}
	os.Exit(code)
}

func TestArgv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*TestOptions)
		want   []string
	}{
		{
			name:   "defaults",
			modify: func(*TestOptions) {},
			want:   []string{"pytest", "--color=yes", "--capture=no"},
		},
		{
			name: "everything",
			modify: func(o *TestOptions) {
				o.Verbose = true
				o.Color = false
				o.Capture = CaptureSys
				o.K = "not slow"
				o.X = true
				o.Opts = `--tb=short -p "no:cacheprovider"`
				o.Module = "runners"
			},
			want: []string{
				"pytest", "--verbose", "--color=no", "--capture=sys",
				"-k", "not slow", "-x", "--tb=short", "-p", "no:cacheprovider", "tests/runners.py",
			},
		},
		{
			name: "k and x already in opts",
			modify: func(o *TestOptions) {
				o.K = "ignored"
				o.X = true
				o.Opts = "-k context -x"
			},
			want: []string{"pytest", "--color=yes", "--capture=no", "-k", "context", "-x"},
		},
		{
			name:   "suite path",
			modify: func(o *TestOptions) { o.Opts = "integration/" },
			want:   []string{"pytest", "--color=yes", "--capture=no", "integration/"},
		},
	}

	tester := NewCommandTester()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := DefaultTestOptions()
			tt.modify(&opts)
			got, err := tester.Argv(opts)
			if err != nil {
				t.Fatalf("Argv() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Argv() =\n  %q\nwant\n  %q", got, tt.want)
			}
		})
	}
}

func TestArgvCustomRunner(t *testing.T) {
	t.Parallel()

	tester := NewCommandTester(WithRunnerCommand("python -m pytest"), WithTestsDir("unit"))
	opts := DefaultTestOptions()
	opts.Module = "parser"
	got, err := tester.Argv(opts)
	if err != nil {
		t.Fatalf("Argv() error = %v", err)
	}
	want := []string{"python", "-m", "pytest", "--color=yes", "--capture=no", "unit/parser.py"}
	if !slices.Equal(got, want) {
		t.Errorf("Argv() = %q, want %q", got, want)
	}
}

func TestArgvErrors(t *testing.T) {
	t.Parallel()

	bad := DefaultTestOptions()
	bad.Capture = "bogus"
	if _, err := NewCommandTester().Argv(bad); !errors.Is(err, ErrInvalidCaptureMode) {
		t.Errorf("Argv() error = %v, want ErrInvalidCaptureMode", err)
	}

	unbalanced := DefaultTestOptions()
	unbalanced.Opts = `-k "oops`
	if _, err := NewCommandTester().Argv(unbalanced); err == nil {
		t.Error("Argv() accepted unbalanced quotes")
	}

	if _, err := NewCommandTester(WithRunnerCommand("  ")).Argv(DefaultTestOptions()); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("Argv() error = %v, want ErrEmptyCommand", err)
	}
}

func TestCommandTesterPassesExitCodeThrough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opts string
		want types.ExitCode
	}{
		{"", types.ExitSuccess},
		{"--fake-exit=1", 1},
		{"--fake-exit=5", 5},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(int(tt.want)), func(t *testing.T) {
			t.Parallel()
			var stdout bytes.Buffer
			tester := NewCommandTester(WithCommandFunc(helperExec), WithIO(IO{Stdout: &stdout}))
			opts := DefaultTestOptions()
			opts.PTY = false
			opts.Opts = tt.opts

			code, err := tester.Test(t.Context(), opts)
			if err != nil {
				t.Fatalf("Test() error = %v", err)
			}
			if code != tt.want {
				t.Errorf("Test() = %d, want %d", code, tt.want)
			}
			if !strings.Contains(stdout.String(), "--capture=no") {
				t.Errorf("runner did not receive its flags:\n%s", stdout.String())
			}
		})
	}
}

func TestCommandTesterEchoes(t *testing.T) {
	t.Parallel()

	var echo bytes.Buffer
	tester := NewCommandTester(WithCommandFunc(helperExec), WithIO(IO{
		Stdout:     &bytes.Buffer{},
		Echo:       &echo,
		EchoFormat: func(s string) string { return "$ " + s },
	}))
	opts := DefaultTestOptions()
	opts.PTY = false
	opts.K = "not slow"

	if _, err := tester.Test(t.Context(), opts); err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if got := echo.String(); !strings.HasPrefix(got, "$ ") || !strings.Contains(got, "-k 'not slow'") {
		t.Errorf("echo = %q", got)
	}
}

func TestCommandTesterInvalidOptionsRunNothing(t *testing.T) {
	t.Parallel()

	called := false
	tester := NewCommandTester(WithCommandFunc(func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		called = true
		return helperExec(ctx, name, arg...)
	}))
	opts := DefaultTestOptions()
	opts.Capture = "bogus"

	code, err := tester.Test(t.Context(), opts)
	if err == nil || code != types.ExitFailure {
		t.Errorf("Test() = %d, %v", code, err)
	}
	if called {
		t.Error("runner started despite invalid options")
	}
}
