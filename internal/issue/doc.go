// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries what was attempted, what it was attempted on, and
// what the operator can do about it. The issue catalog holds longer
// Markdown help cards, rendered with glamour, for the failures operators hit
// most often: a missing shell, a missing container engine, a bad version spec.
package issue
