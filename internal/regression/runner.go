// SPDX-License-Identifier: MPL-2.0

package regression

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/crosscheck/crosscheck/internal/procexec"
	"github.com/crosscheck/crosscheck/pkg/types"
)

const (
	// DefaultJobs is the default batch size.
	DefaultJobs = 8
	// DefaultSupportDir is the default working directory of every check,
	// relative to the project root.
	DefaultSupportDir = "integration/_support"
	// DefaultCommand is the default regression entry point.
	DefaultCommand = "invoke -c regression check"

	// JobEnvVar carries the job position into every check process.
	JobEnvVar = "CROSSCHECK_REGRESSION_JOB"
)

type (
	// Options configures a Runner. Zero values take the defaults above.
	Options struct {
		Jobs int
		// SupportDir is resolved against ProjectDir unless absolute.
		SupportDir types.FilesystemPath
		ProjectDir types.FilesystemPath
		// Command is split with POSIX shell rules.
		Command string

		Stdout     io.Writer
		Stderr     io.Writer
		Echo       io.Writer
		EchoFormat func(string) string
	}

	// RunnerOption configures a Runner.
	RunnerOption func(*Runner)

	// Runner runs the regression entry point once per job on a Pool.
	Runner struct {
		opts    Options
		logger  *log.Logger
		command procexec.CommandFunc
	}

	// Summary is the per-job outcome of one batch, ordered by job.
	Summary struct {
		Results  []Result
		Duration time.Duration
	}
)

// WithCommandFunc overrides how check processes are created.
func WithCommandFunc(fn procexec.CommandFunc) RunnerOption {
	return func(r *Runner) { r.command = fn }
}

// NewRunner creates a Runner. A nil logger discards log output.
func NewRunner(logger *log.Logger, opts Options, options ...RunnerOption) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Jobs == 0 {
		opts.Jobs = DefaultJobs
	}
	if opts.SupportDir == "" {
		opts.SupportDir = DefaultSupportDir
	}
	if opts.Command == "" {
		opts.Command = DefaultCommand
	}
	r := &Runner{opts: opts, logger: logger, command: procexec.Command}
	for _, o := range options {
		o(r)
	}
	return r
}

// SupportDir returns the absolute-or-project-relative directory the checks run in.
func (r *Runner) SupportDir() types.FilesystemPath {
	return r.opts.SupportDir.Under(string(r.opts.ProjectDir))
}

// Run starts Jobs copies of the regression command, all at once, each in
// the support directory. The first non-zero exit kills the others. The
// returned error is a *JobFailureError in that case; the summary is always
// returned once jobs were dispatched.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if r.opts.Jobs < 1 {
		return nil, &InvalidJobCountError{Value: r.opts.Jobs}
	}
	argv, err := procexec.SplitArgs(r.opts.Command)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	dir := r.SupportDir()
	if err := checkDir(dir); err != nil {
		return nil, err
	}

	r.logger.Info("starting regression batch", "jobs", r.opts.Jobs, "dir", dir)
	start := time.Now()

	pool := NewPool(ctx, r.opts.Jobs, func(ctx context.Context, job Job) (types.ExitCode, error) {
		cmd := r.command(ctx, argv[0], argv[1:]...)
		return procexec.Run(cmd, procexec.Options{
			Dir:        string(dir),
			Env:        []string{fmt.Sprintf("%s=%d", JobEnvVar, job)},
			Stdout:     r.opts.Stdout,
			Stderr:     r.opts.Stderr,
			Echo:       r.opts.Echo,
			EchoFormat: r.opts.EchoFormat,
		})
	})

	handles := make([]*Handle, 0, r.opts.Jobs)
	for i := range r.opts.Jobs {
		handles = append(handles, pool.Submit(Job(i)))
	}
	waitErr := pool.Wait()

	summary := &Summary{Results: make([]Result, 0, len(handles))}
	for _, h := range handles {
		summary.Results = append(summary.Results, h.Wait())
	}
	summary.Duration = time.Since(start)

	succeeded, failed, halted := summary.Counts()
	if waitErr != nil {
		var jobErr *JobFailureError
		if errors.As(waitErr, &jobErr) {
			r.logger.Error("regression job failed, batch halted",
				"job", int(jobErr.Job), "exit", int(jobErr.ExitCode),
				"succeeded", succeeded, "failed", failed, "halted", halted)
		} else {
			r.logger.Warn("regression batch interrupted",
				"cause", waitErr, "succeeded", succeeded, "halted", halted)
		}
		return summary, waitErr
	}
	r.logger.Info("regression batch passed", "succeeded", succeeded,
		"duration", summary.Duration.Round(time.Millisecond))
	return summary, nil
}

// Counts returns the number of succeeded, failed and halted jobs.
func (s *Summary) Counts() (succeeded, failed, halted int) {
	for _, res := range s.Results {
		switch res.Outcome {
		case OutcomeSucceeded:
			succeeded++
		case OutcomeFailed:
			failed++
		case OutcomeHalted:
			halted++
		}
	}
	return succeeded, failed, halted
}

// ExitCode returns 0 when every job succeeded, the first failing job's code
// when one failed, and ExitFailure otherwise.
func (s *Summary) ExitCode() types.ExitCode {
	allOK := true
	for _, res := range s.Results {
		if res.Outcome == OutcomeFailed {
			return res.ExitCode
		}
		if res.Outcome != OutcomeSucceeded {
			allOK = false
		}
	}
	if allOK {
		return types.ExitSuccess
	}
	return types.ExitFailure
}

func checkDir(dir types.FilesystemPath) error {
	info, err := os.Stat(string(dir))
	if err != nil {
		return &SupportDirError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return &SupportDirError{Path: dir, Err: errors.New("not a directory")}
	}
	return nil
}
