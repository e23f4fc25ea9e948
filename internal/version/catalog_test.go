// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"slices"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	want := []Target{"2.7.18", "3.4.10", "3.5.10", "3.6.15", "3.7.13", "3.8.12", "3.9.10"}
	if got := Targets(c.Entries()); !slices.Equal(got, want) {
		t.Errorf("DefaultCatalog() = %v, want %v", got, want)
	}
	if c.Len() != 7 {
		t.Errorf("Len() = %d, want 7", c.Len())
	}
	if got := DefaultReleaseStrings(); len(got) != 7 || got[0] != "2.7.18" {
		t.Errorf("DefaultReleaseStrings() = %v", got)
	}
}

func TestCatalog_EntriesIsCopy(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	entries := c.Entries()
	entries[0] = Triple{9, 9, 9}
	if c.Entries()[0] != (Triple{2, 7, 18}) {
		t.Error("mutating Entries() result changed the catalog")
	}
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog(Triple{3, 4, 10}, Triple{3, 5, 10}, Triple{3, 4, 10})
	if !errors.Is(err, ErrDuplicateCatalogEntry) {
		t.Fatalf("NewCatalog() error = %v, want ErrDuplicateCatalogEntry", err)
	}
}

func TestParseCatalog(t *testing.T) {
	t.Parallel()

	c, err := ParseCatalog([]string{"3.11.9", "3.12.4"})
	if err != nil {
		t.Fatalf("ParseCatalog() error: %v", err)
	}
	if got := Targets(c.Entries()); !slices.Equal(got, []Target{"3.11.9", "3.12.4"}) {
		t.Errorf("ParseCatalog() = %v", got)
	}

	if _, err := ParseCatalog([]string{"3.11"}); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("ParseCatalog with partial version: error = %v, want ErrInvalidSpec", err)
	}
	if _, err := ParseCatalog([]string{"3.11.9", "3.11.9"}); !errors.Is(err, ErrDuplicateCatalogEntry) {
		t.Errorf("ParseCatalog with duplicate: error = %v, want ErrDuplicateCatalogEntry", err)
	}
}

func TestResolveSpec(t *testing.T) {
	t.Parallel()

	all := []Target{"2.7.18", "3.4.10", "3.5.10", "3.6.15", "3.7.13", "3.8.12", "3.9.10"}

	tests := []struct {
		name string
		spec string
		want []Target
	}{
		{"minor prefixes", "3.4,3.5", []Target{"3.4.10", "3.5.10"}},
		{"exact triples", "2.7.18,3.9.10", []Target{"2.7.18", "3.9.10"}},
		{"mixed", "2.7,3.9.10", []Target{"2.7.18", "3.9.10"}},
		{"catalog order wins over input order", "3.9,2.7", []Target{"2.7.18", "3.9.10"}},
		{"empty selects all", "", all},
		{"no match", "4.0", []Target{}},
		{"wrong patch does not match", "3.9.11", []Target{}},
		{"repeated identifiers do not duplicate", "3.4,3.4.10,3.4", []Target{"3.4.10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveSpec(DefaultCatalog(), tt.spec)
			if err != nil {
				t.Fatalf("ResolveSpec(%q) error: %v", tt.spec, err)
			}
			if got == nil {
				t.Fatalf("ResolveSpec(%q) returned nil, want non-nil slice", tt.spec)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ResolveSpec(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestResolveSpec_ParseError(t *testing.T) {
	t.Parallel()

	if _, err := ResolveSpec(DefaultCatalog(), "abc.def"); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("ResolveSpec error = %v, want ErrInvalidSpec", err)
	}
}

// TestResolve_SubsequenceOfCatalog checks every combination of identifiers
// drawn from a pool resolves to an ordered, duplicate-free catalog subsequence.
func TestResolve_SubsequenceOfCatalog(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	pool := []Identifier{{2, 7}, {3, 4}, {3, 9, 10}, {3, 6, 15}, {4, 0}, {3, 8, 1}, {3, 5}}
	catalog := Targets(c.Entries())

	for mask := range 1 << len(pool) {
		var ids []Identifier
		for i, id := range pool {
			if mask&(1<<i) != 0 {
				ids = append(ids, id)
			}
		}

		got := c.Resolve(ids)
		next := 0
		for _, target := range got {
			idx := slices.Index(catalog[next:], target)
			if idx < 0 {
				t.Fatalf("Resolve(%v) = %v is not an ordered subsequence of the catalog", ids, got)
			}
			next += idx + 1
		}
	}
}
