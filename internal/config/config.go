// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/crosscheck/crosscheck/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "crosscheck"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// ProjectFileName is the per-project config file looked up in the project directory.
	ProjectFileName = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "CROSSCHECK"

	// maxConfigFileSize bounds config files read from disk.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the crosscheck configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// UserConfigPath returns the path of the per-user config file.
func UserConfigPath(configDirPath string) (string, error) {
	cfgDir, err := configDirWithOverride(configDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// newViper returns a viper instance carrying every default and the
// CROSSCHECK_ environment binding.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("container_engine", defaults.ContainerEngine)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.log_level", defaults.UI.LogLevel)
	v.SetDefault("ui.color", defaults.UI.Color)
	v.SetDefault("run.shell", defaults.Run.Shell)
	v.SetDefault("docker_test.versions", defaults.DockerTest.Versions)
	v.SetDefault("docker_test.image", defaults.DockerTest.Image)
	v.SetDefault("docker_test.mount", defaults.DockerTest.Mount)
	v.SetDefault("docker_test.bootstrap", defaults.DockerTest.Bootstrap)
	v.SetDefault("docker_test.fail_fast", defaults.DockerTest.FailFast)
	v.SetDefault("docker_test.pull_retries", defaults.DockerTest.PullRetries)
	v.SetDefault("test.command", defaults.Test.Command)
	v.SetDefault("test.capture", defaults.Test.Capture)
	v.SetDefault("test.verbose", defaults.Test.Verbose)
	v.SetDefault("test.color", defaults.Test.Color)
	v.SetDefault("test.pty", defaults.Test.PTY)
	v.SetDefault("test.tests_dir", defaults.Test.TestsDir)
	v.SetDefault("integration.suite", defaults.Integration.Suite)
	v.SetDefault("coverage.report", defaults.Coverage.Report)
	v.SetDefault("coverage.codecov_command", defaults.Coverage.CodecovCommand)
	v.SetDefault("regression.jobs", defaults.Regression.Jobs)
	v.SetDefault("regression.support_dir", defaults.Regression.SupportDir)
	v.SetDefault("regression.command", defaults.Regression.Command)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	v := newViper()

	resolvedPath, err := resolveConfigPath(opts)
	if err != nil {
		return nil, err
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'crosscheck config dump' to see a complete valid configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = resolvedPath

	// Environment overrides bypass the CUE schema, so the typed checks run on
	// the merged result.
	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for stray values").
			WithSuggestion("Run 'crosscheck versions' to see the release catalog in use").
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

// resolveConfigPath picks the first existing config file. An explicit file
// that does not exist is an error; missing implicit files are not.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(string(opts.ConfigFilePath)) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(string(opts.ConfigFilePath)).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'crosscheck config show' to see the effective configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return string(opts.ConfigFilePath), nil
	}

	userPath, err := UserConfigPath(string(opts.ConfigDirPath))
	if err != nil {
		return "", err
	}
	if fileExists(userPath) {
		return userPath, nil
	}

	projectPath := ProjectFileName
	if opts.ProjectDir != "" {
		projectPath = filepath.Join(string(opts.ProjectDir), ProjectFileName)
	}
	if fileExists(projectPath) {
		return projectPath, nil
	}

	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Config decodes to map[string]any rather than a struct so that Viper keeps
// its defaults and environment overrides; Concrete(false) allows every field
// to be omitted.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := checkFileSize(data, maxConfigFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config file unless one exists.
// It returns the file path and whether it was created.
func CreateDefaultConfig(configDirPath string) (string, bool, error) {
	cfgPath, err := UserConfigPath(configDirPath)
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, true, nil
}

// GenerateCUE renders cfg as a CUE config file accepted by #Config.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// crosscheck configuration file\n\n")

	fmt.Fprintf(&sb, "container_engine: %q\n", cfg.ContainerEngine)

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:   %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tlog_level: %q\n", cfg.UI.LogLevel)
	fmt.Fprintf(&sb, "\tcolor:     %v\n", cfg.UI.Color)
	sb.WriteString("}\n")

	sb.WriteString("\nrun: {\n")
	fmt.Fprintf(&sb, "\tshell: %q\n", cfg.Run.Shell)
	sb.WriteString("}\n")

	sb.WriteString("\ndocker_test: {\n")
	sb.WriteString("\tversions: [")
	for i, r := range cfg.DockerTest.Versions {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", r)
	}
	sb.WriteString("]\n")
	fmt.Fprintf(&sb, "\timage:        %q\n", cfg.DockerTest.Image)
	fmt.Fprintf(&sb, "\tmount:        %q\n", cfg.DockerTest.Mount)
	fmt.Fprintf(&sb, "\tbootstrap:    %q\n", cfg.DockerTest.Bootstrap)
	fmt.Fprintf(&sb, "\tfail_fast:    %v\n", cfg.DockerTest.FailFast)
	fmt.Fprintf(&sb, "\tpull_retries: %d\n", cfg.DockerTest.PullRetries)
	sb.WriteString("}\n")

	sb.WriteString("\ntest: {\n")
	fmt.Fprintf(&sb, "\tcommand:   %q\n", cfg.Test.Command)
	fmt.Fprintf(&sb, "\tcapture:   %q\n", cfg.Test.Capture)
	fmt.Fprintf(&sb, "\tverbose:   %v\n", cfg.Test.Verbose)
	fmt.Fprintf(&sb, "\tcolor:     %v\n", cfg.Test.Color)
	fmt.Fprintf(&sb, "\tpty:       %v\n", cfg.Test.PTY)
	fmt.Fprintf(&sb, "\ttests_dir: %q\n", cfg.Test.TestsDir)
	sb.WriteString("}\n")

	sb.WriteString("\nintegration: {\n")
	fmt.Fprintf(&sb, "\tsuite: %q\n", cfg.Integration.Suite)
	sb.WriteString("}\n")

	sb.WriteString("\ncoverage: {\n")
	fmt.Fprintf(&sb, "\treport:          %q\n", cfg.Coverage.Report)
	fmt.Fprintf(&sb, "\tcodecov_command: %q\n", cfg.Coverage.CodecovCommand)
	sb.WriteString("}\n")

	sb.WriteString("\nregression: {\n")
	fmt.Fprintf(&sb, "\tjobs:        %d\n", cfg.Regression.Jobs)
	fmt.Fprintf(&sb, "\tsupport_dir: %q\n", cfg.Regression.SupportDir)
	fmt.Fprintf(&sb, "\tcommand:     %q\n", cfg.Regression.Command)
	sb.WriteString("}\n")

	return sb.String()
}
