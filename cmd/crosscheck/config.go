// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crosscheck/crosscheck/internal/config"
)

// newConfigCommand creates the `crosscheck config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect crosscheck configuration",
		Long: `Inspect crosscheck configuration.

Configuration is read from the --config file, else from:
  - Linux: ~/.config/crosscheck/config.cue
  - macOS: ~/Library/Application Support/crosscheck/config.cue
  - Windows: %APPDATA%\crosscheck\config.cue
and finally from ./crosscheck.cue in the project directory.
CROSSCHECK_<SECTION>_<KEY> environment variables override file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			showConfig(cmd.OutOrStdout(), app.cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Create default configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig("")
			if err != nil {
				return configLoadError(err)
			}
			w := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(w, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(w, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Show configuration file paths",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := config.UserConfigPath("")
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Config directory: %s\n", filepath.Dir(cfgPath))
			fmt.Fprintf(w, "Config file: %s\n", cfgPath)
			fmt.Fprintf(w, "Project file: %s\n", filepath.Join(string(app.projectDir), config.ProjectFileName))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(app.cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	kv := func(indent, key string, value any) {
		fmt.Fprintf(w, "%s%s: %s\n", indent, keyStyle.Render(key), valueStyle.Render(fmt.Sprint(value)))
	}
	section := func(name string) {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", keyStyle.Render(name))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)
	kv("", "container_engine", cfg.ContainerEngine)

	section("ui")
	kv("  ", "verbose", cfg.UI.Verbose)
	kv("  ", "log_level", cfg.UI.LogLevel)
	kv("  ", "color", cfg.UI.Color)

	section("run")
	kv("  ", "shell", cfg.Run.Shell)

	section("docker_test")
	kv("  ", "versions", strings.Join(cfg.DockerTest.Versions, ", "))
	kv("  ", "image", cfg.DockerTest.Image)
	kv("  ", "mount", cfg.DockerTest.Mount)
	kv("  ", "bootstrap", cfg.DockerTest.Bootstrap)
	kv("  ", "fail_fast", cfg.DockerTest.FailFast)
	kv("  ", "pull_retries", cfg.DockerTest.PullRetries)

	section("test")
	kv("  ", "command", cfg.Test.Command)
	kv("  ", "capture", cfg.Test.Capture)
	kv("  ", "verbose", cfg.Test.Verbose)
	kv("  ", "color", cfg.Test.Color)
	kv("  ", "pty", cfg.Test.PTY)
	kv("  ", "tests_dir", cfg.Test.TestsDir)

	section("integration")
	kv("  ", "suite", cfg.Integration.Suite)

	section("coverage")
	kv("  ", "report", cfg.Coverage.Report)
	kv("  ", "codecov_command", cfg.Coverage.CodecovCommand)

	section("regression")
	kv("  ", "jobs", cfg.Regression.Jobs)
	kv("  ", "support_dir", cfg.Regression.SupportDir)
	kv("  ", "command", cfg.Regression.Command)
}
