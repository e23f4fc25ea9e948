// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

// annotationSkipConfig marks commands that must work with a broken config file.
const annotationSkipConfig = "crosscheck/skip-config"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crosscheck",
		Short: "Cross-release test orchestration",
		Long: TitleStyle.Render("crosscheck") + SubtitleStyle.Render(" - Cross-release test orchestration") + `

crosscheck runs a project's test suite against every supported runtime
release in throwaway containers, wraps the local test runner with project
defaults, and fans out regression checks in parallel with fail-fast halting.

` + SubtitleStyle.Render("Examples:") + `
  crosscheck docker-test              Test against every release in the catalog
  crosscheck docker-test -V 3.4,3.5   Test against the 3.4 and 3.5 releases
  crosscheck test -k parser -x        Run matching unit tests, stop at the first failure
  crosscheck integration              Run the integration suite
  crosscheck regression -j 16         Run 16 regression checks in parallel
  crosscheck versions                 List the release catalog`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationSkipConfig] == "true" {
				return nil
			}
			if err := app.loadConfig(cmd.Context()); err != nil {
				return configLoadError(err)
			}
			if !app.cfg.UI.Color {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output (debug logging, full error chains)")
	rootCmd.PersistentFlags().StringVar(&app.flags.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/crosscheck/config.cue, then ./crosscheck.cue)")
	rootCmd.PersistentFlags().StringVar(&app.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.AddCommand(
		newDockerTestCommand(app),
		newTestCommand(app),
		newIntegrationCommand(app),
		newCoverageCommand(app),
		newRegressionCommand(app),
		newVersionsCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the App and runs the command tree. This is called by
// main.main(). Exit codes of delegated processes are passed through.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, app.flags.verbose, app.logger)
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}
