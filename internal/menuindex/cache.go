// Package menuindex maintains the shared, lazily rebuilt, sorted projection of
// every cafeteria catalog on campus.
package menuindex

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mensahq/mensa/errs"
	"github.com/mensahq/mensa/internal/menu"
	"github.com/mensahq/mensa/internal/observability"
)

// Entry is a denormalized projection of one catalog item. Entries are ordered
// by (item name, cafeteria) ascending whenever the cache is valid.
type Entry struct {
	Item        string
	Description string
	Price       decimal.Decimal
	Quantity    int64
	Cafeteria   string
}

// Source supplies the full entry set for a rebuild: the concatenation of
// every cafeteria's current catalog, in any order.
type Source interface {
	CatalogEntries() []Entry
}

// Cache is the shared index over all catalogs. It starts invalid; reads go
// through Read or Search, which rebuild before serving, so callers never
// observe a stale-and-uncorrected sequence.
type Cache struct {
	source Source

	mu      sync.Mutex
	entries []Entry
	valid   bool
}

// NewCache creates an invalid cache backed by the given source.
func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// ItemChanged applies an in-place update for a single item. It is a no-op
// while the cache is invalid; the eventual rebuild picks the change up.
//
// Matching is by item name only, not cafeteria: when two cafeterias stock the
// same item name, an update from one can displace the other's entry until the
// next rebuild. The behavior is retained deliberately; see DESIGN.md.
func (c *Cache) ItemChanged(change menu.Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return
	}

	at := -1
	for i := range c.entries {
		if c.entries[i].Item == change.Item {
			at = i
			break
		}
	}

	if at < 0 {
		// An unknown name with full details is a fresh add; insert it so
		// reads keep matching the catalogs. A bare quantity change for an
		// unknown name means the cache has drifted: force a rebuild.
		if change.Description == nil || change.Price == nil {
			c.valid = false
			return
		}
		c.insert(Entry{
			Item:        change.Item,
			Description: *change.Description,
			Price:       *change.Price,
			Quantity:    change.Quantity,
			Cafeteria:   change.Cafeteria,
		})
		return
	}

	prev := c.entries[at]
	c.entries = append(c.entries[:at], c.entries[at+1:]...)

	next := Entry{
		Item:        change.Item,
		Description: prev.Description,
		Price:       prev.Price,
		Quantity:    change.Quantity,
		Cafeteria:   change.Cafeteria,
	}
	if change.Description != nil {
		next.Description = *change.Description
	}
	if change.Price != nil {
		next.Price = *change.Price
	}
	c.insert(next)
}

// insert places the entry after any run of equal item names. Incremental
// inserts order by item name only; the cafeteria tiebreak is restored by the
// next full rebuild.
func (c *Cache) insert(entry Entry) {
	at := len(c.entries)
	for i := range c.entries {
		if c.entries[i].Item > entry.Item {
			at = i
			break
		}
	}
	c.entries = append(c.entries, Entry{})
	copy(c.entries[at+1:], c.entries[at:])
	c.entries[at] = entry
}

// ItemRemoved drops the entry matching both item name and cafeteria. No-op
// while invalid.
func (c *Cache) ItemRemoved(item, cafeteria string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return
	}
	for i := range c.entries {
		if c.entries[i].Item == item && c.entries[i].Cafeteria == cafeteria {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// Invalidate marks the cache stale unconditionally.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// Valid reports whether the cache currently claims consistency.
func (c *Cache) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}

// Read returns the full ordered sequence, rebuilding first when invalid.
func (c *Cache) Read() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureValidLocked()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Search returns every entry whose item name matches, one per stocking
// cafeteria, via binary search plus neighbor expansion over the ordered
// sequence.
func (c *Cache) Search(item string) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureValidLocked()

	lo, hi := 0, len(c.entries)-1
	hit := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case c.entries[mid].Item == item:
			hit = mid
			lo = hi + 1
		case c.entries[mid].Item < item:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	if hit < 0 {
		return nil, errs.New("menuindex/search", errs.CodeNotFound,
			errs.WithMessage(item+" not found in any cafeteria"),
			errs.WithField("item", item))
	}

	first, last := hit, hit
	for first > 0 && c.entries[first-1].Item == item {
		first--
	}
	for last < len(c.entries)-1 && c.entries[last+1].Item == item {
		last++
	}
	out := make([]Entry, last-first+1)
	copy(out, c.entries[first:last+1])
	return out, nil
}

// ensureValidLocked rebuilds the sequence from the source when needed. The
// rebuild is a stable insertion sort keyed on (item, cafeteria); it runs
// lazily and at most once per invalidation window, so the quadratic cost is
// acceptable.
func (c *Cache) ensureValidLocked() {
	if c.valid {
		return
	}
	var rebuilt []Entry
	if c.source != nil {
		for _, entry := range c.source.CatalogEntries() {
			at := len(rebuilt)
			for i := range rebuilt {
				if rebuilt[i].Item > entry.Item ||
					(rebuilt[i].Item == entry.Item && rebuilt[i].Cafeteria > entry.Cafeteria) {
					at = i
					break
				}
			}
			rebuilt = append(rebuilt, Entry{})
			copy(rebuilt[at+1:], rebuilt[at:])
			rebuilt[at] = entry
		}
	}
	c.entries = rebuilt
	c.valid = true
	observability.Telemetry().IncCounter("menuindex.rebuilds", 1, nil)
}
