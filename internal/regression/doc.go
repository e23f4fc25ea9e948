// SPDX-License-Identifier: MPL-2.0

// Package regression runs a batch of identical regression-check processes in
// parallel and halts the whole batch on the first failure.
//
// [Pool] is the generic part: a fixed number of workers drain a queue of
// submitted jobs, each job yields a [Handle], and the first failing job (or
// an explicit [Pool.Halt]) cancels running jobs and drops queued ones.
// [Runner] binds the pool to the regression entry point, which is started
// once per job in the support directory.
package regression
