// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"

	"github.com/crosscheck/crosscheck/internal/container"
	"github.com/crosscheck/crosscheck/internal/issue"
	"github.com/crosscheck/crosscheck/internal/regression"
	"github.com/crosscheck/crosscheck/internal/version"
)

// ErrNoTargets is returned when a version spec selects no catalog entry.
var ErrNoTargets = errors.New("no matching releases in the catalog")

func configLoadError(err error) error {
	return newServiceError(issue.NewErrorContext().
		WithOperation("load configuration").
		WithSuggestion("Run 'crosscheck config dump' to see the effective configuration").
		Wrap(err).
		BuildError(), issue.ConfigLoadFailedId)
}

func invalidSpecError(spec string, err error) error {
	return newServiceError(issue.NewErrorContext().
		WithOperation("parse version spec").
		WithResource(spec).
		WithSuggestion("Use comma-separated <major>.<minor> or <major>.<minor>.<patch> elements, e.g. 3.4,3.5").
		Wrap(err).
		BuildError(), issue.InvalidVersionSpecId)
}

func noTargetsError(spec string, catalog *version.Catalog) error {
	releases := make([]string, 0, catalog.Len())
	for _, t := range catalog.Entries() {
		releases = append(releases, t.String())
	}
	return newServiceError(issue.NewErrorContext().
		WithOperation("resolve docker-test targets").
		WithResource(spec).
		WithSuggestion("Supported releases: "+strings.Join(releases, ", ")).
		WithSuggestion("Run 'crosscheck versions' to list the catalog").
		Wrap(ErrNoTargets).
		BuildError(), issue.NoMatchingVersionsId)
}

func engineError(engineType container.EngineType, err error) error {
	return newServiceError(issue.NewErrorContext().
		WithOperation("find a container engine").
		WithResource(engineType.String()).
		WithSuggestion("Install Docker or Podman and make sure it is on PATH").
		WithSuggestion("Select the engine with --engine or container_engine in the config file").
		Wrap(err).
		BuildError(), issue.ContainerEngineNotFoundId)
}

func shellNotFoundError(shell string, err error) error {
	return issue.NewErrorContext().
		WithOperation("run integration tests").
		WithResource(shell).
		WithSuggestion("Install " + shell + " or point run.shell at an available shell").
		WithSuggestion("Run the suite in a container with 'crosscheck docker-test'").
		Wrap(err).
		BuildError()
}

func testRunError(err error) error {
	return issue.NewErrorContext().
		WithOperation("run the test suite").
		WithSuggestion("Check that the test runner is installed (test.command in the config file)").
		Wrap(err).
		BuildError()
}

func invalidOptionsError(operation string, err error) error {
	return issue.NewErrorContext().
		WithOperation(operation).
		WithSuggestion("Capture modes: no, sys, fd, tee-sys").
		WithSuggestion("Report formats: term, term-missing, html, xml, annotate").
		Wrap(err).
		BuildError()
}

// regressionError maps runner errors onto exit codes and issue cards.
func regressionError(err error) error {
	var jobErr *regression.JobFailureError
	if errors.As(err, &jobErr) {
		code := jobErr.ExitCode
		if code.IsSuccess() {
			code = 1
		}
		return &ExitError{Code: code, Err: newServiceError(issue.NewErrorContext().
			WithOperation("run regression checks").
			Wrap(err).
			BuildError(), issue.RegressionJobFailedId)}
	}
	if errors.Is(err, regression.ErrSupportDirNotFound) {
		return newServiceError(issue.NewErrorContext().
			WithOperation("run regression checks").
			WithSuggestion("Run crosscheck from the project root or set regression.support_dir").
			Wrap(err).
			BuildError(), issue.SupportDirNotFoundId)
	}
	return issue.WrapWithOperation(err, "run regression checks")
}
