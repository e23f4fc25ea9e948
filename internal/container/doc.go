// SPDX-License-Identifier: MPL-2.0

// Package container drives the Docker and Podman command-line clients.
//
// The Engine interface covers what the test dispatcher needs: detecting an
// engine, making sure an image is present and running one interactive,
// throwaway container per target. DockerEngine and PodmanEngine both embed
// BaseCLIEngine, which builds the CLI arguments and executes them through
// procexec so the command line is echoed and a pseudo-terminal is attached
// when requested.
//
// Engine selection uses NewEngine(EngineType) with fallback to the other
// engine when the preferred one is unavailable.
package container
