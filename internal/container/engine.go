// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/crosscheck/crosscheck/pkg/types"
)

const (
	// EngineTypeDocker selects the Docker CLI.
	EngineTypeDocker EngineType = "docker"
	// EngineTypePodman selects the Podman CLI.
	EngineTypePodman EngineType = "podman"
)

var (
	// ErrEngineNotAvailable is returned when no usable container engine is found.
	ErrEngineNotAvailable = errors.New("container engine not available")

	// ErrInvalidEngineType is the sentinel error wrapped by InvalidEngineTypeError.
	ErrInvalidEngineType = errors.New("invalid container engine type")

	// ErrInvalidVolumeMount is the sentinel error wrapped by InvalidVolumeMountError.
	ErrInvalidVolumeMount = errors.New("invalid volume mount")

	// ErrInvalidRunOptions is the sentinel error wrapped by InvalidRunOptionsError.
	ErrInvalidRunOptions = errors.New("invalid run options")
)

type (
	// Engine defines the container operations used by crosscheck.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// Available reports whether the engine CLI is installed and answering.
		Available() bool
		// Version returns the engine version.
		Version(ctx context.Context) (string, error)
		// ImageExists reports whether image is present locally.
		ImageExists(ctx context.Context, image string) (bool, error)
		// Pull fetches image from its registry.
		Pull(ctx context.Context, image string) error
		// RunArgs returns the argument list Run would pass to the engine CLI.
		RunArgs(opts RunOptions) []string
		// Run runs a command in a new container. A non-zero exit is reported
		// in RunResult; errors mean the container could not be launched.
		Run(ctx context.Context, opts RunOptions) (*RunResult, error)
	}

	// EngineType identifies the container engine type.
	EngineType string

	// InvalidEngineTypeError is returned when an EngineType is not recognized.
	InvalidEngineTypeError struct {
		Value EngineType
	}

	// EngineNotAvailableError describes why no engine could be selected.
	EngineNotAvailableError struct {
		Engine string
		Reason string
	}

	// VolumeMount binds a host directory into the container.
	VolumeMount struct {
		HostPath      types.FilesystemPath
		ContainerPath string
	}

	// InvalidVolumeMountError is returned when a VolumeMount is incomplete.
	InvalidVolumeMountError struct {
		Value  VolumeMount
		Reason string
	}

	// RunOptions contains options for running a container.
	RunOptions struct {
		// Image is the image to run.
		Image string
		// Command is the command to run inside the container.
		Command []string
		// WorkDir is the working directory inside the container.
		WorkDir string
		// Env contains environment variables for the container.
		Env map[string]string
		// Volumes are bind mounts.
		Volumes []VolumeMount
		// Remove automatically removes the container after exit.
		Remove bool
		// Name is the container name.
		Name string
		// Interactive keeps stdin open (-i).
		Interactive bool
		// TTY allocates a pseudo-TTY inside the container (-t).
		TTY bool
		// HostPTY attaches the engine client to a host pseudo-terminal when
		// Stdin is a terminal.
		HostPTY bool
		// Stdin is the standard input.
		Stdin io.Reader
		// Stdout is where to write standard output.
		Stdout io.Writer
		// Stderr is where to write standard error.
		Stderr io.Writer
		// Echo receives the full command line before the container starts.
		Echo io.Writer
		// EchoFormat decorates the echoed command line.
		EchoFormat func(string) string
	}

	// InvalidRunOptionsError is returned when RunOptions cannot produce a
	// valid run command.
	InvalidRunOptionsError struct {
		Reason string
	}

	// RunResult contains the result of running a container.
	RunResult struct {
		// ExitCode is the exit code of the engine client, which mirrors the
		// exit code of the container's command.
		ExitCode types.ExitCode
	}
)

// String returns the engine type name.
func (t EngineType) String() string { return string(t) }

// Validate returns nil if the engine type is docker or podman.
func (t EngineType) Validate() error {
	switch t {
	case EngineTypeDocker, EngineTypePodman:
		return nil
	default:
		return &InvalidEngineTypeError{Value: t}
	}
}

// Error implements the error interface.
func (e *InvalidEngineTypeError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

// Unwrap returns ErrInvalidEngineType for errors.Is() compatibility.
func (e *InvalidEngineTypeError) Unwrap() error { return ErrInvalidEngineType }

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrEngineNotAvailable for errors.Is() compatibility.
func (e *EngineNotAvailableError) Unwrap() error { return ErrEngineNotAvailable }

// String renders the mount in host:container form.
func (v VolumeMount) String() string {
	return string(v.HostPath) + ":" + v.ContainerPath
}

// Validate requires both sides of the mount, with an absolute container path.
func (v VolumeMount) Validate() error {
	if err := v.HostPath.Validate(); err != nil {
		return &InvalidVolumeMountError{Value: v, Reason: err.Error()}
	}
	if !strings.HasPrefix(v.ContainerPath, "/") {
		return &InvalidVolumeMountError{Value: v, Reason: "container path must be absolute"}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidVolumeMountError) Error() string {
	return fmt.Sprintf("invalid volume mount %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidVolumeMount for errors.Is() compatibility.
func (e *InvalidVolumeMountError) Unwrap() error { return ErrInvalidVolumeMount }

// Validate checks that the options name an image and carry valid mounts.
func (o RunOptions) Validate() error {
	if strings.TrimSpace(o.Image) == "" {
		return &InvalidRunOptionsError{Reason: "image must not be empty"}
	}
	for _, v := range o.Volumes {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidRunOptionsError) Error() string {
	return "invalid run options: " + e.Reason
}

// Unwrap returns ErrInvalidRunOptions for errors.Is() compatibility.
func (e *InvalidRunOptionsError) Unwrap() error { return ErrInvalidRunOptions }

// NewEngine creates a container engine based on preference, falling back to
// the other engine when the preferred one is unavailable.
func NewEngine(preferredType EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	if err := preferredType.Validate(); err != nil {
		return nil, err
	}

	docker := NewDockerEngine(opts...)
	podman := NewPodmanEngine(opts...)

	primary, fallback := Engine(docker), Engine(podman)
	if preferredType == EngineTypePodman {
		primary, fallback = podman, docker
	}

	if primary.Available() {
		return primary, nil
	}
	if fallback.Available() {
		return fallback, nil
	}
	return nil, &EngineNotAvailableError{
		Engine: preferredType.String(),
		Reason: fmt.Sprintf("%s is not installed or not accessible, and %s fallback is also not available",
			primary.Name(), fallback.Name()),
	}
}
