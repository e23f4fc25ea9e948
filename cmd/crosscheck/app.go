// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"

	"github.com/crosscheck/crosscheck/internal/config"
	"github.com/crosscheck/crosscheck/internal/container"
	"github.com/crosscheck/crosscheck/internal/issue"
	"github.com/crosscheck/crosscheck/internal/preflight"
	"github.com/crosscheck/crosscheck/internal/procexec"
	"github.com/crosscheck/crosscheck/internal/pytest"
	"github.com/crosscheck/crosscheck/pkg/types"
)

type (
	// EngineFactory returns a usable container engine of the requested type,
	// falling back to the other type when allowed.
	EngineFactory func(engineType container.EngineType) (container.Engine, error)

	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: every command handler receives an App reference.
	App struct {
		Config   config.Provider
		Engines  EngineFactory
		LookPath preflight.LookPathFunc
		// Tester, when set, replaces the configured test runner.
		Tester pytest.Tester
		Exec   procexec.CommandFunc

		projectDir types.FilesystemPath
		stdin      io.Reader
		stdout     io.Writer
		stderr     io.Writer

		flags  globalFlags
		cfg    *config.Config
		logger *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   config.Provider
		Engines  EngineFactory
		LookPath preflight.LookPathFunc
		Tester   pytest.Tester
		Exec     procexec.CommandFunc
		// ProjectDir defaults to the working directory.
		ProjectDir types.FilesystemPath
		Stdin      io.Reader
		Stdout     io.Writer
		Stderr     io.Writer
	}

	globalFlags struct {
		verbose  bool
		cfgFile  string
		logLevel string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Engines == nil {
		deps.Engines = defaultEngineFactory
	}
	if deps.LookPath == nil {
		deps.LookPath = exec.LookPath
	}
	if deps.Exec == nil {
		deps.Exec = procexec.Command
	}
	if deps.ProjectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine project directory: %w", err)
		}
		deps.ProjectDir = types.FilesystemPath(wd)
	}
	if err := deps.ProjectDir.Validate(); err != nil {
		return nil, err
	}

	return &App{
		Config:     deps.Config,
		Engines:    deps.Engines,
		LookPath:   deps.LookPath,
		Tester:     deps.Tester,
		Exec:       deps.Exec,
		projectDir: deps.ProjectDir,
		stdin:      deps.Stdin,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		cfg:        config.DefaultConfig(),
		logger:     newLogger(deps.Stderr, config.LogLevelInfo),
	}, nil
}

func defaultEngineFactory(engineType container.EngineType) (container.Engine, error) {
	return container.NewEngine(engineType)
}

// loadConfig loads the configuration for this invocation and sets up the
// logger from it. Flags win over configured values.
func (a *App) loadConfig(ctx context.Context) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: types.FilesystemPath(a.flags.cfgFile),
		ProjectDir:     a.projectDir,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.UI.LogLevel
	if a.flags.logLevel != "" {
		level = config.LogLevel(a.flags.logLevel)
		if valid, errs := level.IsValid(); !valid {
			return errs[0]
		}
	}
	if a.flags.verbose || cfg.UI.Verbose {
		a.flags.verbose = true
		level = config.LogLevelDebug
	}
	a.logger = newLogger(a.stderr, level)
	if cfg.Source != "" {
		a.logger.Debug("configuration loaded", "file", cfg.Source)
	}
	return nil
}

// streams returns the IO every child process is attached to.
func (a *App) streams() pytest.IO {
	return pytest.IO{
		Stdin:      a.stdin,
		Stdout:     a.stdout,
		Stderr:     a.stderr,
		Echo:       a.stderr,
		EchoFormat: echoLine,
	}
}

// tester returns the test runner collaborator.
func (a *App) tester() pytest.Tester {
	if a.Tester != nil {
		return a.Tester
	}
	return pytest.NewCommandTester(
		pytest.WithRunnerCommand(a.cfg.Test.Command),
		pytest.WithTestsDir(a.cfg.Test.TestsDir),
		pytest.WithDir(string(a.projectDir)),
		pytest.WithIO(a.streams()),
		pytest.WithLogger(a.logger),
		pytest.WithCommandFunc(a.Exec),
	)
}

// integrationTester wraps tester with the shell preflight and the suite path.
func (a *App) integrationTester(tester pytest.Tester) pytest.Tester {
	return pytest.Integration{
		Tester:    tester,
		Suite:     a.cfg.Integration.Suite,
		Preflight: a.checkShell,
	}
}

func (a *App) checkShell() error {
	path, err := preflight.CheckShell(a.cfg.Run.Shell, a.LookPath)
	if err != nil {
		return newServiceError(shellNotFoundError(a.cfg.Run.Shell, err), issue.ShellNotFoundId)
	}
	a.logger.Debug("shell found", "shell", a.cfg.Run.Shell, "path", path)
	return nil
}

func newLogger(w io.Writer, level config.LogLevel) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "crosscheck"})
	if parsed, err := log.ParseLevel(level.String()); err == nil {
		logger.SetLevel(parsed)
	}
	return logger
}
