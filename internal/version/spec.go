// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	specSeparator      = ","
	componentSeparator = "."

	minComponents = 2
	maxComponents = 3
)

// ErrInvalidSpec is the sentinel error wrapped by SpecParseError.
var ErrInvalidSpec = errors.New("invalid version spec")

type (
	// Identifier is a parsed spec element: major.minor or major.minor.patch.
	Identifier []uint

	// SpecParseError is returned when a version spec element cannot be parsed.
	// It wraps ErrInvalidSpec for errors.Is() compatibility.
	SpecParseError struct {
		// Spec is the full input string, when known.
		Spec string
		// Position is the zero-based index of the offending element.
		Position int
		// Element is the offending comma-separated element.
		Element string
		// Reason describes what is wrong with the element.
		Reason string
	}
)

// Error implements the error interface.
func (e *SpecParseError) Error() string {
	if e.Spec != "" {
		return fmt.Sprintf("invalid version spec %q: element %d (%q): %s", e.Spec, e.Position+1, e.Element, e.Reason)
	}
	return fmt.Sprintf("invalid version %q: %s", e.Element, e.Reason)
}

// Unwrap returns ErrInvalidSpec for errors.Is() compatibility.
func (e *SpecParseError) Unwrap() error { return ErrInvalidSpec }

// Len returns the number of components (2 or 3 for parsed identifiers).
func (id Identifier) Len() int { return len(id) }

// String renders the identifier dot-joined.
func (id Identifier) String() string { return id.key() }

// ParseSpec parses a comma-separated list of dot-separated version identifiers.
// An empty or whitespace-only spec yields no identifiers and no error, which
// Resolve treats as "every catalog entry". Input order is preserved.
func ParseSpec(spec string) ([]Identifier, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}

	elements := strings.Split(spec, specSeparator)
	ids := make([]Identifier, 0, len(elements))
	for i, element := range elements {
		id, err := parseIdentifier(strings.TrimSpace(element))
		if err != nil {
			var perr *SpecParseError
			if errors.As(err, &perr) {
				perr.Spec = spec
				perr.Position = i
				perr.Element = element
			}
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseIdentifier(element string) (Identifier, error) {
	if element == "" {
		return nil, &SpecParseError{Element: element, Reason: "empty element"}
	}

	parts := strings.Split(element, componentSeparator)
	if len(parts) < minComponents || len(parts) > maxComponents {
		return nil, &SpecParseError{
			Element: element,
			Reason:  fmt.Sprintf("expected major.minor or major.minor.patch, got %d component(s)", len(parts)),
		}
	}

	id := make(Identifier, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 0)
		if err != nil {
			return nil, &SpecParseError{
				Element: element,
				Reason:  fmt.Sprintf("component %q is not a non-negative integer", part),
			}
		}
		id = append(id, uint(n))
	}
	return id, nil
}
