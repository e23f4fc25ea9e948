// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/crosscheck/crosscheck/internal/container"
	"github.com/crosscheck/crosscheck/internal/dispatch"
	"github.com/crosscheck/crosscheck/internal/version"
)

type dockerTestFlags struct {
	spec     string
	failFast bool
	engine   string
}

func newDockerTestCommand(app *App) *cobra.Command {
	var flags dockerTestFlags

	cmd := &cobra.Command{
		Use:   "docker-test",
		Short: "Run the test suite in one container per supported release",
		Long: `Run the test suite in one container per supported release.

The project directory is mounted into each container and the bootstrap
script installs and tests it. Without --version every release in the
catalog is tested. A version spec is a comma-separated list of
<major>.<minor> (every matching release) or <major>.<minor>.<patch>
(exactly that release) elements.

A failing release does not stop the matrix unless --fail-fast is given.
The exit status is that of the first failing release.`,
		Example: `  crosscheck docker-test
  crosscheck docker-test -V 3.4
  crosscheck docker-test -V 3.4,3.5
  crosscheck docker-test -V 2.7,3.9.10 --fail-fast`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDockerTest(cmd, app, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.spec, "version", "V", "", "comma-separated releases to test (default: the whole catalog)")
	cmd.Flags().BoolVar(&flags.failFast, "fail-fast", false, "stop after the first failing release")
	cmd.Flags().StringVar(&flags.engine, "engine", "", "container engine: docker or podman (default from config)")
	return cmd
}

func runDockerTest(cmd *cobra.Command, app *App, flags dockerTestFlags) error {
	cfg := app.cfg
	catalog, err := cfg.Catalog()
	if err != nil {
		return configLoadError(err)
	}

	targets, err := version.ResolveSpec(catalog, flags.spec)
	if err != nil {
		return invalidSpecError(flags.spec, err)
	}
	if len(targets) == 0 {
		return noTargetsError(flags.spec, catalog)
	}

	engineType := container.EngineType(cfg.ContainerEngine)
	if flags.engine != "" {
		engineType = container.EngineType(flags.engine)
		if err := engineType.Validate(); err != nil {
			return engineError(engineType, err)
		}
	}
	engine, err := app.Engines(engineType)
	if err != nil {
		return engineError(engineType, err)
	}
	if engine.Name() != engineType.String() {
		app.logger.Warn("preferred container engine unavailable, falling back", "preferred", engineType, "engine", engine.Name())
	}
	engineVersion, err := engine.Version(cmd.Context())
	if err != nil {
		engineVersion = "unknown"
		app.logger.Debug("container engine version unavailable", "engine", engine.Name(), "err", err)
	}
	app.logger.Debug("container engine selected", "engine", engine.Name(), "version", engineVersion, "targets", len(targets))

	dispatcher := dispatch.New(engine, app.logger, dispatch.Options{
		ImageTemplate: cfg.DockerTest.Image,
		Mount:         cfg.DockerTest.Mount,
		Bootstrap:     cfg.DockerTest.Bootstrap,
		ProjectDir:    app.projectDir,
		FailFast:      flags.failFast || cfg.DockerTest.FailFast,
		PullRetries:   cfg.DockerTest.PullRetries,
		Stdin:         app.stdin,
		Stdout:        app.stdout,
		Stderr:        app.stderr,
		Echo:          app.stderr,
		EchoFormat:    echoLine,
		HostPTY:       true,
	})

	report := dispatcher.Run(cmd.Context(), targets)
	renderReport(app.stdout, report)
	return exitStatus(report.ExitCode())
}

// renderReport prints the per-release summary table and totals.
func renderReport(w io.Writer, report *dispatch.Report) {
	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		exit := "-"
		if res.Status != dispatch.StatusSkipped {
			exit = strconv.Itoa(int(res.ExitCode))
		}
		rows = append(rows, []string{
			res.Target.String(),
			res.Image,
			res.Status.String(),
			exit,
			res.Duration.Round(time.Second).String(),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtitleStyle).
		Headers("RELEASE", "IMAGE", "STATUS", "EXIT", "DURATION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 2 && row >= 0 && row < len(report.Results) {
				return tableCellStyle.Inherit(statusStyle(report.Results[row].Status))
			}
			return tableCellStyle
		})

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("docker-test summary"))
	fmt.Fprintln(w, t.String())

	passed, failed, skipped := report.Counts()
	fmt.Fprintf(w, "%s  %s  %s\n",
		SuccessStyle.Render(fmt.Sprintf("%d passed", passed)),
		ErrorStyle.Render(fmt.Sprintf("%d failed", failed)),
		WarningStyle.Render(fmt.Sprintf("%d skipped", skipped)))
}

func statusStyle(s dispatch.Status) lipgloss.Style {
	switch s {
	case dispatch.StatusPassed:
		return SuccessStyle
	case dispatch.StatusFailed:
		return ErrorStyle
	default:
		return WarningStyle
	}
}
