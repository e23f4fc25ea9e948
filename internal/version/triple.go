// SPDX-License-Identifier: MPL-2.0

package version

import (
	"fmt"
	"strconv"
	"strings"
)

type (
	// Triple is a concrete major.minor.patch runtime release.
	Triple struct {
		Major uint
		Minor uint
		Patch uint
	}

	// Target is the dot-joined rendering of a catalog Triple selected for a run.
	Target string
)

// String renders the triple as "major.minor.patch".
func (t Triple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Patch)
}

// Target returns the triple as a dispatch target.
func (t Triple) Target() Target { return Target(t.String()) }

// Prefix returns the major.minor identifier of the triple.
func (t Triple) Prefix() Identifier { return Identifier{t.Major, t.Minor} }

// Full returns the three-component identifier of the triple.
func (t Triple) Full() Identifier { return Identifier{t.Major, t.Minor, t.Patch} }

// ParseTriple parses an exact "major.minor.patch" string.
func ParseTriple(s string) (Triple, error) {
	id, err := parseIdentifier(strings.TrimSpace(s))
	if err != nil {
		return Triple{}, err
	}
	if id.Len() != 3 {
		return Triple{}, &SpecParseError{Element: s, Reason: "catalog entries need major.minor.patch"}
	}
	return Triple{Major: id[0], Minor: id[1], Patch: id[2]}, nil
}

// String returns the target string.
func (t Target) String() string { return string(t) }

// Targets renders triples as targets, preserving order.
func Targets(triples []Triple) []Target {
	out := make([]Target, 0, len(triples))
	for _, tr := range triples {
		out = append(out, tr.Target())
	}
	return out
}

// key is the comparable form of an Identifier used for set membership.
func (id Identifier) key() string {
	parts := make([]string, len(id))
	for i, n := range id {
		parts[i] = strconv.FormatUint(uint64(n), 10)
	}
	return strings.Join(parts, ".")
}
