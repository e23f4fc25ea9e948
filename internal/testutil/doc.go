// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that fail fast on
// setup errors instead of repeating error checks.
//
// Helpers cover environment variables (MustSetenv, MustUnsetenv), the
// working directory (MustChdir, AssertWorkdirUnchanged) and fixture files
// (MustWriteFile, MustMkdirAll).
package testutil
