// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crosscheck/crosscheck/internal/version"
)

func newVersionsCommand(app *App) *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the release catalog used by docker-test",
		Long: `List the release catalog used by docker-test, in dispatch order.

With --spec, list only the releases that spec selects.`,
		Example: `  crosscheck versions
  crosscheck versions --spec 2.7,3.9.10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := app.cfg.Catalog()
			if err != nil {
				return configLoadError(err)
			}
			targets, err := version.ResolveSpec(catalog, spec)
			if err != nil {
				return invalidSpecError(spec, err)
			}

			w := cmd.OutOrStdout()
			if spec != "" {
				fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Releases selected by"), CmdStyle.Render(spec))
			} else {
				fmt.Fprintln(w, TitleStyle.Render("Release catalog"))
			}
			if len(targets) == 0 {
				fmt.Fprintln(w, SubtitleStyle.Render("  (none)"))
				return nil
			}
			for _, t := range targets {
				fmt.Fprintf(w, "  %s  %s\n", t, SubtitleStyle.Render(app.cfg.DockerTest.ImageFor(t.String())))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "spec", "", "show the releases a docker-test version spec selects")
	return cmd
}
