// SPDX-License-Identifier: MPL-2.0

// Package version resolves compact version specs into dispatch targets.
//
// A Catalog is the fixed, ordered list of runtime releases the project is
// tested against. ParseSpec turns a string such as "3.4,3.5" or "2.7,3.9.10"
// into Identifiers, and Catalog.Resolve filters the catalog with them:
//
//	targets, err := version.ResolveSpec(version.DefaultCatalog(), "3.4,3.9.10")
//	// targets == []Target{"3.4.10", "3.9.10"}
//
// A two-component identifier selects every catalog entry with that
// major.minor; a three-component identifier selects the exact release.
// Resolution never reorders: output follows catalog order, whatever the
// order of the spec.
package version
