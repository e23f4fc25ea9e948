// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/crosscheck/crosscheck/internal/pytest"
)

func newCoverageCommand(app *App) *cobra.Command {
	var (
		report  string
		opts    string
		codecov bool
	)

	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Run the unit and integration suites with coverage",
		Long: `Run the unit suite with coverage, then the integration suite appending
to the same data, then optionally upload the result.

The regression checks are not included: they add no coverage points.`,
		Example: `  crosscheck coverage
  crosscheck coverage --report html
  crosscheck coverage --report xml --codecov`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			covOpts := pytest.CoverageOptions{
				Report:  pytest.ReportFormat(app.cfg.Coverage.Report),
				Opts:    opts,
				Codecov: codecov,
			}
			if cmd.Flags().Changed("report") {
				covOpts.Report = pytest.ReportFormat(report)
			}
			if err := covOpts.Validate(); err != nil {
				return invalidOptionsError("validate coverage options", err)
			}

			tester := app.tester()
			coverage := &pytest.Coverage{
				Tester:         tester,
				Additional:     []pytest.Tester{app.integrationTester(tester)},
				CodecovCommand: app.cfg.Coverage.CodecovCommand,
				Dir:            string(app.projectDir),
				IO:             app.streams(),
				Logger:         app.logger,
				Exec:           app.Exec,
			}
			code, err := coverage.Run(cmd.Context(), app.cfg.Test.TestOptions(), covOpts)
			if err != nil {
				var svcErr *ServiceError
				if errors.As(err, &svcErr) {
					return svcErr
				}
				return testRunError(err)
			}
			return exitStatus(code)
		},
	}

	cmd.Flags().StringVar(&report, "report", pytest.ReportTerm.String(), "coverage report format: term, term-missing, html, xml or annotate")
	cmd.Flags().StringVar(&opts, "opts", "", "extra runner arguments (shell quoting applies)")
	cmd.Flags().BoolVar(&codecov, "codecov", false, "upload the coverage data after the run")
	return cmd
}
