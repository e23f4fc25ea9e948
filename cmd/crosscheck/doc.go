// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for crosscheck.
//
// This package implements the Cobra command hierarchy: the root command with
// its global flags, the docker-test matrix dispatcher, the test, integration
// and coverage pass-throughs, the parallel regression runner, and the
// versions and config inspection commands.
package cmd
