// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/crosscheck/crosscheck/internal/issue"
	"github.com/crosscheck/crosscheck/internal/testutil"
	"github.com/crosscheck/crosscheck/pkg/types"
)

// isolatedOptions points every lookup at fresh temporary directories.
func isolatedOptions(t *testing.T) (LoadOptions, string, string) {
	t.Helper()
	userDir := t.TempDir()
	projectDir := t.TempDir()
	return LoadOptions{
		ConfigDirPath: types.FilesystemPath(userDir),
		ProjectDir:    types.FilesystemPath(projectDir),
	}, userDir, projectDir
}

func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	opts, _, _ := isolatedOptions(t)

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
	want := DefaultConfig()
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("Load() = %+v\nwant %+v", cfg, want)
	}
}

func TestLoad_CustomPath(t *testing.T) {
	opts, _, _ := isolatedOptions(t)
	path := filepath.Join(t.TempDir(), "custom.cue")
	testutil.MustWriteFile(t, path, `
container_engine: "podman"
docker_test: {
	versions: ["3.8.12", "3.9.10"]
	fail_fast: true
}
regression: jobs: 4
`)
	opts.ConfigFilePath = types.FilesystemPath(path)

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
	if cfg.ContainerEngine != ContainerEnginePodman {
		t.Errorf("ContainerEngine = %q, want podman", cfg.ContainerEngine)
	}
	if !reflect.DeepEqual(cfg.DockerTest.Versions, []string{"3.8.12", "3.9.10"}) {
		t.Errorf("Versions = %v", cfg.DockerTest.Versions)
	}
	if !cfg.DockerTest.FailFast {
		t.Error("FailFast = false, want true")
	}
	if cfg.Regression.Jobs != 4 {
		t.Errorf("Jobs = %d, want 4", cfg.Regression.Jobs)
	}
	// Untouched fields keep their defaults.
	if cfg.Regression.SupportDir != "integration/_support" {
		t.Errorf("SupportDir = %q, want default", cfg.Regression.SupportDir)
	}
	if cfg.DockerTest.Image != "python:{version}" {
		t.Errorf("Image = %q, want default", cfg.DockerTest.Image)
	}
}

func TestLoad_CustomPathNotFound(t *testing.T) {
	opts, _, _ := isolatedOptions(t)
	missing := filepath.Join(t.TempDir(), "nope.cue")
	opts.ConfigFilePath = types.FilesystemPath(missing)

	_, err := NewProvider().Load(t.Context(), opts)
	if err == nil {
		t.Fatal("Load() with a missing explicit file returned nil error")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error %T is not an ActionableError", err)
	}
	if ae.Resource != missing {
		t.Errorf("Resource = %q, want %q", ae.Resource, missing)
	}
	if len(ae.Suggestions) == 0 {
		t.Error("no suggestions attached")
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"zero jobs", "regression: jobs: 0\n", "regression.jobs"},
		{"unknown engine", `container_engine: "lxc"` + "\n", "container_engine"},
		{"unknown field", "unknown_section: {}\n", "unknown_section"},
		{"two-part release", `docker_test: versions: ["3.8"]` + "\n", "docker_test.versions[0]"},
		{"image without placeholder", `docker_test: image: "python:latest"` + "\n", "docker_test.image"},
		{"bad capture", `test: capture: "all"` + "\n", "test.capture"},
		{"syntax error", "regression: {jobs: \n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _, _ := isolatedOptions(t)
			path := filepath.Join(t.TempDir(), "config.cue")
			testutil.MustWriteFile(t, path, tt.content)
			opts.ConfigFilePath = types.FilesystemPath(path)

			_, err := NewProvider().Load(t.Context(), opts)
			if err == nil {
				t.Fatal("Load() returned nil error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error %T is not an ActionableError", err)
			}
			if !strings.Contains(err.Error(), path) {
				t.Errorf("error %q does not name the file", err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_SearchOrder(t *testing.T) {
	opts, userDir, projectDir := isolatedOptions(t)

	projectFile := filepath.Join(projectDir, ProjectFileName)
	testutil.MustWriteFile(t, projectFile, "regression: jobs: 2\n")

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != projectFile || cfg.Regression.Jobs != 2 {
		t.Errorf("project file not used: source=%q jobs=%d", cfg.Source, cfg.Regression.Jobs)
	}

	userFile := filepath.Join(userDir, "config.cue")
	testutil.MustWriteFile(t, userFile, "regression: jobs: 3\n")

	cfg, err = NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != userFile || cfg.Regression.Jobs != 3 {
		t.Errorf("user file does not take precedence: source=%q jobs=%d", cfg.Source, cfg.Regression.Jobs)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	opts, _, _ := isolatedOptions(t)
	defer testutil.MustSetenv(t, "CROSSCHECK_REGRESSION_JOBS", "3")()
	defer testutil.MustSetenv(t, "CROSSCHECK_RUN_SHELL", "/bin/zsh")()

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Regression.Jobs != 3 {
		t.Errorf("Jobs = %d, want 3", cfg.Regression.Jobs)
	}
	if cfg.Run.Shell != "/bin/zsh" {
		t.Errorf("Shell = %q, want /bin/zsh", cfg.Run.Shell)
	}
}

func TestLoad_EnvironmentOverrideIsValidated(t *testing.T) {
	opts, _, _ := isolatedOptions(t)
	defer testutil.MustSetenv(t, "CROSSCHECK_REGRESSION_JOBS", "0")()

	_, err := NewProvider().Load(t.Context(), opts)
	if !errors.Is(err, ErrInvalidRegressionConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidRegressionConfig", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	opts, _, _ := isolatedOptions(t)

	custom := DefaultConfig()
	custom.ContainerEngine = ContainerEnginePodman
	custom.DockerTest.Versions = []string{"3.10.4", "3.11.2"}
	custom.Regression.Jobs = 16
	custom.Test.PTY = false

	path := filepath.Join(t.TempDir(), "config.cue")
	testutil.MustWriteFile(t, path, GenerateCUE(custom))
	opts.ConfigFilePath = types.FilesystemPath(path)

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("Load(GenerateCUE()) error = %v", err)
	}
	cfg.Source = ""
	if !reflect.DeepEqual(cfg, custom) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", cfg, custom)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", AppName)

	path, created, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if !created {
		t.Error("created = false on first call")
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}

	testutil.MustWriteFile(t, path, "regression: jobs: 2\n")
	_, created, err = CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("second CreateDefaultConfig() error = %v", err)
	}
	if created {
		t.Error("existing config was overwritten")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "regression: jobs: 2\n" {
		t.Errorf("config content changed to %q", data)
	}
}

func TestConfigDir(t *testing.T) {
	t.Cleanup(Reset)

	SetConfigDirOverride("/tmp/override")
	if dir, _ := ConfigDir(); dir != "/tmp/override" {
		t.Errorf("ConfigDir() with override = %q", dir)
	}
	Reset()

	if runtime.GOOS != "linux" {
		return
	}
	defer testutil.MustSetenv(t, "XDG_CONFIG_HOME", "/tmp/xdg")()
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != filepath.Join("/tmp/xdg", AppName) {
		t.Errorf("ConfigDir() = %q, want /tmp/xdg/%s", dir, AppName)
	}
}

func TestFieldPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"regression", "jobs"}, "regression.jobs"},
		{[]string{"docker_test", "versions", "2"}, "docker_test.versions[2]"},
	}
	for _, tt := range tests {
		if got := fieldPath(tt.in); got != tt.want {
			t.Errorf("fieldPath(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
