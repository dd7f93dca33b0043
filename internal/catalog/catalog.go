package catalog

import (
	"errors"
	"strings"
	"sync/atomic"

	"coinwatch/internal/domain"
)

// ErrNotFound is returned when a user token matches no catalog entry.
var ErrNotFound = errors.New("coin not found")

// Catalog is the in-memory index of all known coins. Refreshes replace the
// whole entry slice through a single atomic pointer store, so a concurrent
// reader always observes a complete catalog, old or new, never a mix.
type Catalog struct {
	entries atomic.Pointer[[]domain.CoinEntry]
}

func New() *Catalog {
	c := &Catalog{}
	empty := make([]domain.CoinEntry, 0)
	c.entries.Store(&empty)
	return c
}

// Replace swaps in a new complete entry list. The slice must not be mutated
// by the caller afterwards.
func (c *Catalog) Replace(entries []domain.CoinEntry) {
	c.entries.Store(&entries)
}

// Snapshot returns the current entry list. The returned slice is shared and
// read-only.
func (c *Catalog) Snapshot() []domain.CoinEntry {
	return *c.entries.Load()
}

// Len reports how many coins the catalog currently indexes.
func (c *Catalog) Len() int {
	return len(c.Snapshot())
}

// Resolve maps a free-form user token to a canonical coin id. Matching is
// exact after lowercasing and stripping spaces, symbols take precedence over
// ids, and the first matching entry in catalog order wins.
func (c *Catalog) Resolve(token string) (string, error) {
	needle := normalize(token)
	if needle == "" {
		return "", ErrNotFound
	}

	entries := c.Snapshot()

	for _, e := range entries {
		if normalize(e.Symbol) == needle {
			return e.ID, nil
		}
	}
	for _, e := range entries {
		if normalize(e.ID) == needle {
			return e.ID, nil
		}
	}

	return "", ErrNotFound
}

func normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}
