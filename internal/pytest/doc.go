// SPDX-License-Identifier: MPL-2.0

// Package pytest adapts the external test runner and coverage uploader to
// the command surface: it turns an explicit TestOptions value into a runner
// command line, sequences coverage runs, and gates the integration suite.
package pytest
