// Package collection holds an ordered, id-keyed set of records with an
// optional active selection, mirrored to storage through a save hook.
package collection

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

// Record is what a collection can hold.
type Record interface {
	RecordID() string
	// Matches reports whether a search term occurs in the record's text.
	Matches(term string) bool
	HasLabel(label string) bool
	// Pinned records sort ahead of the rest.
	Pinned() bool
	// Recency orders records within the pinned and unpinned groups, newest first.
	Recency() int64
}

// SaveFunc receives the full collection after every mutation.
type SaveFunc[T Record] func(items []T)

// ImportResult counts what an import did.
type ImportResult struct {
	Added    int `json:"added"`
	Replaced int `json:"replaced"`
}

// Query filters and orders a View.
type Query struct {
	Search string
	Label  string
}

// Collection is safe for concurrent use.
type Collection[T Record] struct {
	mu     sync.RWMutex
	items  []T
	active string
	save   SaveFunc[T]
}

// New returns a collection seeded with items (not saved). save may be nil.
func New[T Record](items []T, save SaveFunc[T]) *Collection[T] {
	return &Collection[T]{items: slices.Clone(items), save: save}
}

// Create prepends v and makes it active.
func (c *Collection[T]) Create(v T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.Insert(c.items, 0, v)
	c.active = v.RecordID()
	c.saveLocked()
	return v
}

// Update applies fn to the record with id. Unknown ids are a no-op. fn
// reports whether it changed the record; nothing is saved when it did not.
// fn must not change the record's id.
func (c *Collection[T]) Update(id string, fn func(*T) bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	if fn(&c.items[i]) {
		c.saveLocked()
	}
	return c.items[i], true
}

// Delete removes the record with id. When it was active, the first remaining
// record becomes active (or none).
func (c *Collection[T]) Delete(id string) (wasActive, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return false, false
	}
	c.items = slices.Delete(c.items, i, i+1)
	if c.active == id {
		wasActive = true
		c.active = ""
		if len(c.items) > 0 {
			c.active = c.items[0].RecordID()
		}
	}
	c.saveLocked()
	return wasActive, true
}

// Import merges items by id: known ids are overwritten in place, new ones
// are appended in input order. Importing the same items twice changes nothing.
func (c *Collection[T]) Import(items []T) ImportResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	var res ImportResult
	for _, v := range items {
		if i := c.indexLocked(v.RecordID()); i >= 0 {
			c.items[i] = v
			res.Replaced++
			continue
		}
		c.items = append(c.items, v)
		res.Added++
	}
	if len(items) > 0 {
		c.saveLocked()
	}
	return res
}

// Get returns the record with id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// All returns a copy of every record in stored order.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Active returns the active record, if one is set and still present.
func (c *Collection[T]) Active() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active != "" {
		if i := c.indexLocked(c.active); i >= 0 {
			return c.items[i], true
		}
	}
	var zero T
	return zero, false
}

// SetActive selects the record with id. An empty id clears the selection.
func (c *Collection[T]) SetActive(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == "" {
		c.active = ""
		return true
	}
	if c.indexLocked(id) < 0 {
		return false
	}
	c.active = id
	return true
}

// View returns the records matching q, pinned first, then newest first.
// Ties keep stored order.
func (c *Collection[T]) View(q Query) []T {
	search := strings.TrimSpace(q.Search)
	label := strings.TrimSpace(q.Label)

	c.mu.RLock()
	out := make([]T, 0, len(c.items))
	for _, v := range c.items {
		if search != "" && !v.Matches(search) {
			continue
		}
		if label != "" && !v.HasLabel(label) {
			continue
		}
		out = append(out, v)
	}
	c.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b T) int {
		if a.Pinned() != b.Pinned() {
			if a.Pinned() {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.Recency(), a.Recency())
	})
	return out
}

func (c *Collection[T]) indexLocked(id string) int {
	return slices.IndexFunc(c.items, func(v T) bool { return v.RecordID() == id })
}

func (c *Collection[T]) saveLocked() {
	if c.save != nil {
		c.save(slices.Clone(c.items))
	}
}
