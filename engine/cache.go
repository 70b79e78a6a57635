package engine

import (
	"sort"

	"github.com/driftpad/driftpad/crdt"
)

// orderCache mirrors the store's position-sorted live entries: two parallel
// sequences, always the same length, always ascending by position. Index i
// is the document offset of the unit stored under keys[i].
type orderCache struct {
	positions []crdt.Position
	keys      []string
}

func (c *orderCache) len() int {
	return len(c.keys)
}

// indexOf finds a key's current offset. A miss is not an error: callers
// treat "not found" as "already absent".
func (c *orderCache) indexOf(key string) (int, bool) {
	for i, k := range c.keys {
		if k == key {
			return i, true
		}
	}
	return 0, false
}

// search returns the offset at which pos would slot, i.e. the first index
// holding a position that sorts at or after it.
func (c *orderCache) search(pos crdt.Position) int {
	return sort.Search(len(c.positions), func(i int) bool {
		return crdt.Compare(c.positions[i], pos) >= 0
	})
}

// fits reports whether inserting pos at index i would keep the cache sorted.
func (c *orderCache) fits(i int, pos crdt.Position) bool {
	if i < 0 || i > len(c.positions) {
		return false
	}
	if i > 0 && crdt.Compare(c.positions[i-1], pos) >= 0 {
		return false
	}
	if i < len(c.positions) && crdt.Compare(pos, c.positions[i]) >= 0 {
		return false
	}
	return true
}

func (c *orderCache) insertAt(i int, key string, pos crdt.Position) {
	c.positions = append(c.positions, nil)
	copy(c.positions[i+1:], c.positions[i:])
	c.positions[i] = pos

	c.keys = append(c.keys, "")
	copy(c.keys[i+1:], c.keys[i:])
	c.keys[i] = key
}

func (c *orderCache) removeAt(i int) {
	c.positions = append(c.positions[:i], c.positions[i+1:]...)
	c.keys = append(c.keys[:i], c.keys[i+1:]...)
}

func (c *orderCache) posAt(i int) crdt.Position {
	return c.positions[i]
}

func (c *orderCache) keyAt(i int) string {
	return c.keys[i]
}
