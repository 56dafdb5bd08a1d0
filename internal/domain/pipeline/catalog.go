package pipeline

import (
	"fmt"
	"time"
)

// Kind is the label attached to a work item, e.g. "latte".
type Kind string

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// CatalogEntry pairs a kind with the time a consumer spends processing it.
type CatalogEntry struct {
	Kind     Kind
	Duration time.Duration
}

// Catalog is the fixed menu producers pick from.
type Catalog struct {
	entries []CatalogEntry
}

// Intn is the subset of math/rand used to pick catalog entries.
type Intn interface {
	IntN(n int) int
}

// NewCatalog validates entries and returns a Catalog. Kinds must be unique and
// non-empty and every duration must be positive.
func NewCatalog(entries []CatalogEntry) (Catalog, error) {
	if len(entries) == 0 {
		return Catalog{}, NewConfigurationError("catalog", 0, "at least one entry is required")
	}

	seen := make(map[Kind]struct{}, len(entries))
	for i, e := range entries {
		field := fmt.Sprintf("catalog[%d]", i)
		if e.Kind == "" {
			return Catalog{}, NewConfigurationError(field+".kind", e.Kind, "must not be empty")
		}
		if e.Duration <= 0 {
			return Catalog{}, NewConfigurationError(field+".duration", e.Duration, "must be positive")
		}
		if _, ok := seen[e.Kind]; ok {
			return Catalog{}, NewConfigurationError(field+".kind", e.Kind, "duplicate kind")
		}
		seen[e.Kind] = struct{}{}
	}

	cp := make([]CatalogEntry, len(entries))
	copy(cp, entries)
	return Catalog{entries: cp}, nil
}

// Len returns the number of entries.
func (c Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of the catalog entries in declaration order.
func (c Catalog) Entries() []CatalogEntry {
	cp := make([]CatalogEntry, len(c.entries))
	copy(cp, c.entries)
	return cp
}

// Pick returns an entry chosen uniformly by rng.
func (c Catalog) Pick(rng Intn) CatalogEntry {
	return c.entries[rng.IntN(len(c.entries))]
}

// Lookup returns the entry for kind.
func (c Catalog) Lookup(kind Kind) (CatalogEntry, bool) {
	for _, e := range c.entries {
		if e.Kind == kind {
			return e, true
		}
	}
	return CatalogEntry{}, false
}
