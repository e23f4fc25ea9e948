// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/crosscheck/crosscheck/internal/container"
	"github.com/crosscheck/crosscheck/internal/version"
	"github.com/crosscheck/crosscheck/pkg/types"
)

// scriptedEngine returns a preset exit code per image and records every call.
type scriptedEngine struct {
	codes     map[string]types.ExitCode
	launchErr map[string]error
	present   bool
	runs      []container.RunOptions
	pulls     []string
}

func (e *scriptedEngine) Name() string                            { return "scripted" }
func (e *scriptedEngine) Available() bool                         { return true }
func (e *scriptedEngine) Version(context.Context) (string, error) { return "0", nil }

func (e *scriptedEngine) ImageExists(context.Context, string) (bool, error) {
	return e.present, nil
}

func (e *scriptedEngine) Pull(_ context.Context, image string) error {
	e.pulls = append(e.pulls, image)
	return nil
}

func (e *scriptedEngine) RunArgs(opts container.RunOptions) []string {
	return container.NewBaseCLIEngine("docker").RunArgs(opts)
}

func (e *scriptedEngine) Run(_ context.Context, opts container.RunOptions) (*container.RunResult, error) {
	e.runs = append(e.runs, opts)
	if err := e.launchErr[opts.Image]; err != nil {
		return nil, err
	}
	return &container.RunResult{ExitCode: e.codes[opts.Image]}, nil
}

func (e *scriptedEngine) ranImages() []string {
	out := make([]string, 0, len(e.runs))
	for _, r := range e.runs {
		out = append(out, r.Image)
	}
	return out
}

func targets(ts ...string) []version.Target {
	out := make([]version.Target, 0, len(ts))
	for _, t := range ts {
		out = append(out, version.Target(t))
	}
	return out
}

func statuses(r *Report) []Status {
	out := make([]Status, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Status)
	}
	return out
}

func TestRunArgsForTarget(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{}
	d := New(engine, nil, Options{ProjectDir: "/home/dev/project"})

	got := engine.RunArgs(d.RunOptions("3.9.10"))
	want := []string{
		"run", "-i", "-t", "-v", "/home/dev/project:/opt/var/invoke/",
		"python:3.9.10", "/opt/var/invoke/docker-test.sh",
	}
	if !slices.Equal(got, want) {
		t.Errorf("RunArgs() =\n  %q\nwant\n  %q", got, want)
	}
}

func TestImageTemplate(t *testing.T) {
	t.Parallel()

	d := New(&scriptedEngine{}, nil, Options{ImageTemplate: "registry.local/py:{version}-slim"})
	if got := d.Image("3.8.12"); got != "registry.local/py:3.8.12-slim" {
		t.Errorf("Image() = %q", got)
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{codes: map[string]types.ExitCode{
		"python:3.5.10": 2,
		"python:3.8.12": 5,
	}}
	d := New(engine, nil, Options{ProjectDir: "/p"})

	report := d.Run(t.Context(), targets("3.4.10", "3.5.10", "3.7.13", "3.8.12"))

	wantImages := []string{"python:3.4.10", "python:3.5.10", "python:3.7.13", "python:3.8.12"}
	if got := engine.ranImages(); !slices.Equal(got, wantImages) {
		t.Errorf("ran %v, want %v", got, wantImages)
	}
	wantStatuses := []Status{StatusPassed, StatusFailed, StatusPassed, StatusFailed}
	if got := statuses(report); !slices.Equal(got, wantStatuses) {
		t.Errorf("statuses = %v, want %v", got, wantStatuses)
	}
	if code := report.ExitCode(); code != 2 {
		t.Errorf("ExitCode() = %d, want 2 (first failing target)", code)
	}
	if p, f, s := report.Counts(); p != 2 || f != 2 || s != 0 {
		t.Errorf("Counts() = %d/%d/%d, want 2/2/0", p, f, s)
	}
}

func TestRunFailFast(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{codes: map[string]types.ExitCode{"python:3.5.10": 3}}
	d := New(engine, nil, Options{ProjectDir: "/p", FailFast: true})

	report := d.Run(t.Context(), targets("3.4.10", "3.5.10", "3.6.15", "3.7.13"))

	if got := len(engine.runs); got != 2 {
		t.Errorf("engine ran %d containers, want 2", got)
	}
	want := []Status{StatusPassed, StatusFailed, StatusSkipped, StatusSkipped}
	if got := statuses(report); !slices.Equal(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	if code := report.ExitCode(); code != 3 {
		t.Errorf("ExitCode() = %d, want 3", code)
	}
}

func TestRunAllPass(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{}
	report := New(engine, nil, Options{ProjectDir: "/p"}).Run(t.Context(), targets("2.7.18", "3.9.10"))

	if code := report.ExitCode(); code != types.ExitSuccess {
		t.Errorf("ExitCode() = %d, want 0", code)
	}
	if _, ok := report.FirstFailure(); ok {
		t.Error("FirstFailure() reported a failure")
	}
}

func TestRunLaunchFailureIsPerTarget(t *testing.T) {
	t.Parallel()

	launchErr := errors.New("exec: docker: not found")
	engine := &scriptedEngine{launchErr: map[string]error{"python:2.7.18": launchErr}}
	report := New(engine, nil, Options{ProjectDir: "/p"}).Run(t.Context(), targets("2.7.18", "3.9.10"))

	first, ok := report.FirstFailure()
	if !ok {
		t.Fatal("no failure recorded")
	}
	if first.Target != "2.7.18" || first.ExitCode != types.ExitFailure || !errors.Is(first.Err, launchErr) {
		t.Errorf("first failure = %+v", first)
	}
	if report.Results[1].Status != StatusPassed {
		t.Errorf("second target status = %s, want passed", report.Results[1].Status)
	}
}

func TestRunCanceledSkipsEverything(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	engine := &scriptedEngine{}
	report := New(engine, nil, Options{ProjectDir: "/p"}).Run(ctx, targets("3.8.12", "3.9.10"))

	if len(engine.runs) != 0 {
		t.Errorf("engine ran %d containers after cancellation", len(engine.runs))
	}
	if got := statuses(report); !slices.Equal(got, []Status{StatusSkipped, StatusSkipped}) {
		t.Errorf("statuses = %v", got)
	}
	if code := report.ExitCode(); code != types.ExitFailure {
		t.Errorf("ExitCode() = %d, want 1 for an interrupted dispatch", code)
	}
}

func TestRunPullsMissingImages(t *testing.T) {
	t.Parallel()

	engine := &scriptedEngine{present: false}
	New(engine, nil, Options{ProjectDir: "/p", PullRetries: 2}).Run(t.Context(), targets("3.6.15"))

	if !slices.Equal(engine.pulls, []string{"python:3.6.15"}) {
		t.Errorf("pulls = %v", engine.pulls)
	}
}

func TestRunLogsOutcomes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	engine := &scriptedEngine{codes: map[string]types.ExitCode{"python:3.5.10": 4}}

	New(engine, logger, Options{ProjectDir: "/p"}).Run(t.Context(), targets("3.4.10", "3.5.10"))

	out := buf.String()
	for _, want := range []string{"target passed", "target failed", "3.5.10", "dispatch finished"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestReportEmpty(t *testing.T) {
	t.Parallel()

	if code := (&Report{}).ExitCode(); code != types.ExitSuccess {
		t.Errorf("empty report ExitCode() = %d", code)
	}
}
