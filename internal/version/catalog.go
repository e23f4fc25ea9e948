// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"slices"
)

// ErrDuplicateCatalogEntry is returned by NewCatalog when a release is listed twice.
var ErrDuplicateCatalogEntry = errors.New("duplicate catalog entry")

// defaultReleases is the release list the project is cross-checked against.
var defaultReleases = []Triple{
	{2, 7, 18},
	{3, 4, 10},
	{3, 5, 10},
	{3, 6, 15},
	{3, 7, 13},
	{3, 8, 12},
	{3, 9, 10},
}

// Catalog is an ordered, immutable list of supported releases.
// Order defines resolution output order.
type Catalog struct {
	entries []Triple
}

// NewCatalog builds a catalog from releases, keeping their order.
// Duplicate releases are rejected.
func NewCatalog(releases ...Triple) (*Catalog, error) {
	seen := make(map[Triple]struct{}, len(releases))
	for _, r := range releases {
		if _, dup := seen[r]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCatalogEntry, r)
		}
		seen[r] = struct{}{}
	}
	return &Catalog{entries: slices.Clone(releases)}, nil
}

// ParseCatalog builds a catalog from "major.minor.patch" strings.
func ParseCatalog(releases []string) (*Catalog, error) {
	triples := make([]Triple, 0, len(releases))
	for _, s := range releases {
		tr, err := ParseTriple(s)
		if err != nil {
			return nil, err
		}
		triples = append(triples, tr)
	}
	return NewCatalog(triples...)
}

// DefaultCatalog returns the built-in release catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{entries: slices.Clone(defaultReleases)}
}

// DefaultReleaseStrings returns the built-in catalog rendered as strings.
func DefaultReleaseStrings() []string {
	out := make([]string, 0, len(defaultReleases))
	for _, r := range defaultReleases {
		out = append(out, r.String())
	}
	return out
}

// Entries returns a copy of the catalog releases in order.
func (c *Catalog) Entries() []Triple { return slices.Clone(c.entries) }

// Len returns the number of releases.
func (c *Catalog) Len() int { return len(c.entries) }

// Resolve selects the catalog releases matched by ids, in catalog order.
// No identifiers selects the whole catalog. No match yields an empty,
// non-nil slice and no error.
func (c *Catalog) Resolve(ids []Identifier) []Target {
	if len(ids) == 0 {
		return Targets(c.entries)
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id.key()] = struct{}{}
	}

	out := make([]Target, 0, len(c.entries))
	for _, entry := range c.entries {
		_, full := wanted[entry.Full().key()]
		_, prefix := wanted[entry.Prefix().key()]
		if full || prefix {
			out = append(out, entry.Target())
		}
	}
	return out
}

// ResolveSpec parses spec and resolves it against the catalog.
func ResolveSpec(c *Catalog, spec string) ([]Target, error) {
	ids, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	return c.Resolve(ids), nil
}
