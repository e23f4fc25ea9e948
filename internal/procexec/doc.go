// SPDX-License-Identifier: MPL-2.0

// Package procexec runs external processes the way crosscheck's commands
// need them: the command line echoed for the operator, optionally attached
// to a pseudo-terminal, and killed as a whole process group when its context
// is canceled.
//
// A non-zero exit is a normal outcome and is reported as a types.ExitCode
// with a nil error. Errors are reserved for processes that could not be
// started or waited on.
package procexec
