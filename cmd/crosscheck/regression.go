// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crosscheck/crosscheck/internal/regression"
	"github.com/crosscheck/crosscheck/pkg/types"
)

func newRegressionCommand(app *App) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "regression",
		Short: "Run the expensive regression checker in parallel",
		Long: `Run the regression checker, which is hard to test from the unit suite,
N times in parallel from the integration support directory.

The first check that fails halts the batch: running checks are killed and
queued ones never start. Ideally N is the number of CPUs.`,
		Example: `  crosscheck regression
  crosscheck regression -j 16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.cfg.Regression
			if cmd.Flags().Changed("jobs") {
				cfg.Jobs = jobs
			}
			if cfg.Jobs < 1 {
				return regressionError(&regression.InvalidJobCountError{Value: cfg.Jobs})
			}

			runner := regression.NewRunner(app.logger, regression.Options{
				Jobs:       cfg.Jobs,
				SupportDir: types.FilesystemPath(cfg.SupportDir),
				ProjectDir: app.projectDir,
				Command:    cfg.Command,
				Stdout:     app.stdout,
				Stderr:     app.stderr,
				Echo:       app.stderr,
				EchoFormat: echoLine,
			}, regression.WithCommandFunc(app.Exec))

			summary, err := runner.Run(cmd.Context())
			if summary != nil {
				renderSummary(app, summary)
			}
			if err != nil {
				return regressionError(err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", regression.DefaultJobs, "number of checks to run, all in parallel")
	return cmd
}

func renderSummary(app *App, summary *regression.Summary) {
	succeeded, failed, halted := summary.Counts()
	fmt.Fprintf(app.stdout, "%s %s  %s  %s  %s\n",
		TitleStyle.Render("regression:"),
		SuccessStyle.Render(fmt.Sprintf("%d succeeded", succeeded)),
		ErrorStyle.Render(fmt.Sprintf("%d failed", failed)),
		WarningStyle.Render(fmt.Sprintf("%d halted", halted)),
		SubtitleStyle.Render(summary.Duration.Round(time.Millisecond).String()))
}
