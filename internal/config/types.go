// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/crosscheck/crosscheck/internal/pytest"
	"github.com/crosscheck/crosscheck/internal/version"
)

const (
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"

	// LogLevelDebug logs everything.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default log level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"

	// VersionPlaceholder is replaced by the target release in DockerTestConfig.Image.
	VersionPlaceholder = "{version}"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidDockerTestConfig is the sentinel error wrapped by InvalidDockerTestConfigError.
	ErrInvalidDockerTestConfig = errors.New("invalid docker_test config")
	// ErrInvalidRegressionConfig is the sentinel error wrapped by InvalidRegressionConfigError.
	ErrInvalidRegressionConfig = errors.New("invalid regression config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// LogLevel is the minimum level of log records written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidDockerTestConfigError collects docker_test field errors.
	InvalidDockerTestConfigError struct {
		FieldErrors []error
	}

	// InvalidRegressionConfigError collects regression field errors.
	InvalidRegressionConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It collects field-level validation errors from all sections.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ContainerEngine specifies whether to use "docker" or "podman".
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		// UI configures output and logging.
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Run configures host prerequisites.
		Run RunConfig `json:"run" mapstructure:"run"`
		// DockerTest configures the per-release container dispatch.
		DockerTest DockerTestConfig `json:"docker_test" mapstructure:"docker_test"`
		// Test configures the test runner pass-through.
		Test TestConfig `json:"test" mapstructure:"test"`
		// Integration configures the integration suite.
		Integration IntegrationConfig `json:"integration" mapstructure:"integration"`
		// Coverage configures the coverage pass-through.
		Coverage CoverageConfig `json:"coverage" mapstructure:"coverage"`
		// Regression configures the parallel regression runner.
		Regression RegressionConfig `json:"regression" mapstructure:"regression"`

		// Source is the file the configuration was read from; empty for defaults only.
		Source string `json:"-" mapstructure:"-"`
	}

	// UIConfig configures output and logging.
	UIConfig struct {
		Verbose  bool     `json:"verbose" mapstructure:"verbose"`
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
		Color    bool     `json:"color" mapstructure:"color"`
	}

	// RunConfig configures host prerequisites.
	RunConfig struct {
		// Shell must exist on the host before the integration suite runs.
		Shell string `json:"shell" mapstructure:"shell"`
	}

	// DockerTestConfig configures the per-release container dispatch.
	DockerTestConfig struct {
		// Versions is the release catalog, in dispatch order.
		Versions []string `json:"versions" mapstructure:"versions"`
		// Image is the image template; {version} is replaced by the release.
		Image string `json:"image" mapstructure:"image"`
		// Mount is where the project directory appears inside the container.
		Mount string `json:"mount" mapstructure:"mount"`
		// Bootstrap is the script run inside each container.
		Bootstrap string `json:"bootstrap" mapstructure:"bootstrap"`
		// FailFast stops the dispatch after the first failing release.
		FailFast bool `json:"fail_fast" mapstructure:"fail_fast"`
		// PullRetries bounds attempts to pull a missing image.
		PullRetries int `json:"pull_retries" mapstructure:"pull_retries"`
	}

	// TestConfig configures the test runner pass-through.
	TestConfig struct {
		Command  string `json:"command" mapstructure:"command"`
		Capture  string `json:"capture" mapstructure:"capture"`
		Verbose  bool   `json:"verbose" mapstructure:"verbose"`
		Color    bool   `json:"color" mapstructure:"color"`
		PTY      bool   `json:"pty" mapstructure:"pty"`
		TestsDir string `json:"tests_dir" mapstructure:"tests_dir"`
	}

	// IntegrationConfig configures the integration suite.
	IntegrationConfig struct {
		// Suite is the path handed to the test runner.
		Suite string `json:"suite" mapstructure:"suite"`
	}

	// CoverageConfig configures the coverage pass-through.
	CoverageConfig struct {
		Report         string `json:"report" mapstructure:"report"`
		CodecovCommand string `json:"codecov_command" mapstructure:"codecov_command"`
	}

	// RegressionConfig configures the parallel regression runner.
	RegressionConfig struct {
		// Jobs is how many concurrent regression checks run.
		Jobs int `json:"jobs" mapstructure:"jobs"`
		// SupportDir is the working directory of every check, relative to the project.
		SupportDir string `json:"support_dir" mapstructure:"support_dir"`
		// Command is the shell-word command line of one check.
		Command string `json:"command" mapstructure:"command"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineDocker,
		UI: UIConfig{
			LogLevel: LogLevelInfo,
			Color:    true,
		},
		Run: RunConfig{
			Shell: "/bin/bash",
		},
		DockerTest: DockerTestConfig{
			Versions:    version.DefaultReleaseStrings(),
			Image:       "python:" + VersionPlaceholder,
			Mount:       "/opt/var/invoke/",
			Bootstrap:   "/opt/var/invoke/docker-test.sh",
			PullRetries: 3,
		},
		Test: TestConfig{
			Command:  "pytest",
			Capture:  "no",
			Color:    true,
			PTY:      true,
			TestsDir: "tests",
		},
		Integration: IntegrationConfig{
			Suite: "integration/",
		},
		Coverage: CoverageConfig{
			Report:         "term",
			CodecovCommand: "codecov",
		},
		Regression: RegressionConfig{
			Jobs:       8,
			SupportDir: "integration/_support",
			Command:    "invoke -c regression check",
		},
	}
}

// Catalog builds the release catalog from DockerTest.Versions.
func (c *Config) Catalog() (*version.Catalog, error) {
	return version.ParseCatalog(c.DockerTest.Versions)
}

// ImageFor renders the image template for one release.
func (c DockerTestConfig) ImageFor(release string) string {
	return strings.ReplaceAll(c.Image, VersionPlaceholder, release)
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ContainerEngine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.DockerTest.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Regression.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := pytest.CaptureMode(c.Test.Capture).IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := pytest.ReportFormat(c.Coverage.Report).IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate returns nil when the configuration is usable.
func (c Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns the sentinel and the field errors for errors.Is()/As().
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid returns whether the docker_test section has valid fields.
func (c DockerTestConfig) IsValid() (bool, []error) {
	var errs []error
	if len(c.Versions) == 0 {
		errs = append(errs, errors.New("versions must list at least one release"))
	} else if _, err := version.ParseCatalog(c.Versions); err != nil {
		errs = append(errs, fmt.Errorf("versions: %w", err))
	}
	if !strings.Contains(c.Image, VersionPlaceholder) {
		errs = append(errs, fmt.Errorf("image %q must contain %s", c.Image, VersionPlaceholder))
	}
	if !strings.HasPrefix(c.Mount, "/") {
		errs = append(errs, fmt.Errorf("mount %q must be an absolute container path", c.Mount))
	}
	if strings.TrimSpace(c.Bootstrap) == "" {
		errs = append(errs, errors.New("bootstrap must not be empty"))
	}
	if c.PullRetries < 0 {
		errs = append(errs, fmt.Errorf("pull_retries %d must not be negative", c.PullRetries))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidDockerTestConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidDockerTestConfigError) Error() string {
	return fmt.Sprintf("docker_test: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidDockerTestConfig for errors.Is() compatibility.
func (e *InvalidDockerTestConfigError) Unwrap() error { return ErrInvalidDockerTestConfig }

// TestOptions returns the configured defaults of the test command.
func (c TestConfig) TestOptions() pytest.TestOptions {
	return pytest.TestOptions{
		Verbose: c.Verbose,
		Color:   c.Color,
		Capture: pytest.CaptureMode(c.Capture),
		PTY:     c.PTY,
	}
}

// IsValid returns whether the regression section has valid fields.
func (c RegressionConfig) IsValid() (bool, []error) {
	var errs []error
	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs %d must be at least 1", c.Jobs))
	}
	if strings.TrimSpace(c.SupportDir) == "" {
		errs = append(errs, errors.New("support_dir must not be empty"))
	}
	if strings.TrimSpace(c.Command) == "" {
		errs = append(errs, errors.New("command must not be empty"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidRegressionConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidRegressionConfigError) Error() string {
	return fmt.Sprintf("regression: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidRegressionConfig for errors.Is() compatibility.
func (e *InvalidRegressionConfigError) Unwrap() error { return ErrInvalidRegressionConfig }

// String returns the engine name.
func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is docker or podman.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEngineDocker, ContainerEnginePodman:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

// Error implements the error interface.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

// Unwrap returns ErrInvalidContainerEngine for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// String returns the level name.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of debug, info, warn, error.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }
