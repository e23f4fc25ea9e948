// SPDX-License-Identifier: MPL-2.0

// Package dispatch runs the project's test bootstrap once per target release,
// each in its own throwaway container.
//
// Targets run strictly one after another. A target that exits non-zero is
// recorded and, unless FailFast is set, the remaining targets still run. The
// Report carries every per-target outcome and an explicit aggregate exit
// code: zero when all targets passed, otherwise the code of the first
// failing target.
package dispatch
