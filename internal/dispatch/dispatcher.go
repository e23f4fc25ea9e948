// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/crosscheck/crosscheck/internal/container"
	"github.com/crosscheck/crosscheck/internal/version"
	"github.com/crosscheck/crosscheck/pkg/types"
)

const (
	// DefaultImageTemplate is the image each target runs in; {version} is
	// replaced by the target release.
	DefaultImageTemplate = "python:{version}"
	// DefaultMount is where the project directory is mounted in the container.
	DefaultMount = "/opt/var/invoke/"
	// DefaultBootstrap is the script that installs and tests the project
	// inside the container.
	DefaultBootstrap = "/opt/var/invoke/docker-test.sh"

	versionPlaceholder = "{version}"
	pullBackoff        = 2 * time.Second
)

type (
	// Options configures a Dispatcher. Zero values take the defaults above.
	Options struct {
		// ImageTemplate names the image per target.
		ImageTemplate string
		// Mount is the container path of the project directory.
		Mount string
		// Bootstrap is the command run in every container.
		Bootstrap string
		// ProjectDir is the host directory mounted into every container.
		ProjectDir types.FilesystemPath
		// FailFast stops after the first failing target.
		FailFast bool
		// PullRetries, when positive, pulls missing images up front and
		// retries transient pull failures.
		PullRetries int

		Stdin      io.Reader
		Stdout     io.Writer
		Stderr     io.Writer
		Echo       io.Writer
		EchoFormat func(string) string
		// HostPTY attaches the engine client to a pseudo-terminal when
		// Stdin is a terminal.
		HostPTY bool
	}

	// Dispatcher runs one container per target, sequentially.
	Dispatcher struct {
		engine container.Engine
		logger *log.Logger
		opts   Options
	}
)

// New creates a Dispatcher. A nil logger discards log output.
func New(engine container.Engine, logger *log.Logger, opts Options) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.ImageTemplate == "" {
		opts.ImageTemplate = DefaultImageTemplate
	}
	if opts.Mount == "" {
		opts.Mount = DefaultMount
	}
	if opts.Bootstrap == "" {
		opts.Bootstrap = DefaultBootstrap
	}
	return &Dispatcher{engine: engine, logger: logger, opts: opts}
}

// Image returns the image a target runs in.
func (d *Dispatcher) Image(target version.Target) string {
	return strings.ReplaceAll(d.opts.ImageTemplate, versionPlaceholder, target.String())
}

// RunOptions returns the container options for one target:
// an interactive TTY container with the project mounted, running the bootstrap.
func (d *Dispatcher) RunOptions(target version.Target) container.RunOptions {
	return container.RunOptions{
		Image:       d.Image(target),
		Command:     []string{d.opts.Bootstrap},
		Volumes:     []container.VolumeMount{{HostPath: d.opts.ProjectDir, ContainerPath: d.opts.Mount}},
		Interactive: true,
		TTY:         true,
		HostPTY:     d.opts.HostPTY,
		Stdin:       d.opts.Stdin,
		Stdout:      d.opts.Stdout,
		Stderr:      d.opts.Stderr,
		Echo:        d.opts.Echo,
		EchoFormat:  d.opts.EchoFormat,
	}
}

// Run dispatches every target in order and reports each outcome. It never
// returns early on a failing target unless FailFast is set; a canceled ctx
// marks the remaining targets skipped.
func (d *Dispatcher) Run(ctx context.Context, targets []version.Target) *Report {
	report := &Report{Results: make([]TargetResult, 0, len(targets))}

	stop := false
	for i, target := range targets {
		if stop || ctx.Err() != nil {
			report.Results = append(report.Results, TargetResult{
				Target: target,
				Image:  d.Image(target),
				Status: StatusSkipped,
			})
			continue
		}

		d.logger.Info("dispatching target", "target", target, "progress", progress(i, len(targets)))
		res := d.runTarget(ctx, target)
		report.Results = append(report.Results, res)

		if res.Status == StatusFailed {
			if res.Err != nil {
				d.logger.Error("target could not run", "target", target, "err", res.Err)
			} else {
				d.logger.Error("target failed", "target", target, "exit", int(res.ExitCode))
			}
			if d.opts.FailFast {
				d.logger.Warn("fail-fast: skipping remaining targets", "remaining", len(targets)-i-1)
				stop = true
			}
			continue
		}
		d.logger.Info("target passed", "target", target, "duration", res.Duration.Round(time.Millisecond))
	}

	passed, failed, skipped := report.Counts()
	d.logger.Debug("dispatch finished", "passed", passed, "failed", failed, "skipped", skipped)
	return report
}

func (d *Dispatcher) runTarget(ctx context.Context, target version.Target) TargetResult {
	start := time.Now()
	opts := d.RunOptions(target)
	res := TargetResult{Target: target, Image: opts.Image}

	fail := func(err error) TargetResult {
		res.Status = StatusFailed
		res.ExitCode = types.ExitFailure
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	if d.opts.PullRetries > 0 {
		if err := container.EnsureImage(ctx, d.engine, opts.Image, d.opts.PullRetries, pullBackoff, d.logger); err != nil {
			return fail(err)
		}
	}

	result, err := d.engine.Run(ctx, opts)
	if err != nil {
		return fail(err)
	}

	res.ExitCode = result.ExitCode
	res.Duration = time.Since(start)
	if result.ExitCode.IsSuccess() {
		res.Status = StatusPassed
	} else {
		res.Status = StatusFailed
	}
	return res
}

func progress(i, n int) string {
	return fmt.Sprintf("%d/%d", i+1, n)
}
