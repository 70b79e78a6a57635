package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/driftpad/driftpad/crdt"
)

func pos(idents ...uint16) crdt.Position {
	p := make(crdt.Position, len(idents))
	for i, id := range idents {
		p[i] = crdt.Segment{Ident: id, Site: 1}
	}
	return p
}

func TestCacheInsertRemove(t *testing.T) {
	var c orderCache

	c.insertAt(0, "b", pos(20))
	c.insertAt(0, "a", pos(10))
	c.insertAt(2, "c", pos(30))

	if got, expected := c.keys, []string{"a", "b", "c"}; !cmp.Equal(got, expected) {
		t.Fatalf("got = %v, expected = %v\n", got, expected)
	}

	c.removeAt(1)
	if got, expected := c.keys, []string{"a", "c"}; !cmp.Equal(got, expected) {
		t.Fatalf("got = %v, expected = %v\n", got, expected)
	}
	if got, expected := len(c.positions), 2; got != expected {
		t.Fatalf("positions out of step with keys: %v != %v", got, expected)
	}
}

func TestCacheIndexOf(t *testing.T) {
	var c orderCache
	c.insertAt(0, "a", pos(10))
	c.insertAt(1, "b", pos(20))

	tests := []struct {
		description string
		key         string
		expectedIdx int
		expectedOK  bool
	}{
		{description: "first", key: "a", expectedIdx: 0, expectedOK: true},
		{description: "second", key: "b", expectedIdx: 1, expectedOK: true},
		{description: "untracked key is a miss, not an error", key: "zzz", expectedIdx: 0, expectedOK: false},
	}

	for _, tc := range tests {
		idx, ok := c.indexOf(tc.key)
		if idx != tc.expectedIdx || ok != tc.expectedOK {
			t.Errorf("(%s) got = (%v, %v), expected = (%v, %v)\n", tc.description, idx, ok, tc.expectedIdx, tc.expectedOK)
		}
	}
}

func TestCacheSearch(t *testing.T) {
	var c orderCache
	c.insertAt(0, "a", pos(10))
	c.insertAt(1, "b", pos(20))
	c.insertAt(2, "c", pos(30))

	tests := []struct {
		description string
		pos         crdt.Position
		expected    int
	}{
		{description: "before all", pos: pos(5), expected: 0},
		{description: "between first and second", pos: pos(15), expected: 1},
		{description: "after all", pos: pos(40), expected: 3},
		{description: "deeper position between neighbors", pos: pos(10, 100), expected: 1},
	}

	for _, tc := range tests {
		if got := c.search(tc.pos); got != tc.expected {
			t.Errorf("(%s) got = %v, expected = %v\n", tc.description, got, tc.expected)
		}
	}
}

func TestCacheFits(t *testing.T) {
	var c orderCache
	c.insertAt(0, "a", pos(10))
	c.insertAt(1, "b", pos(20))

	tests := []struct {
		description string
		index       int
		pos         crdt.Position
		expected    bool
	}{
		{description: "slots between", index: 1, pos: pos(15), expected: true},
		{description: "head", index: 0, pos: pos(5), expected: true},
		{description: "tail", index: 2, pos: pos(30), expected: true},
		{description: "breaks order against successor", index: 0, pos: pos(15), expected: false},
		{description: "breaks order against predecessor", index: 2, pos: pos(15), expected: false},
		{description: "out of range", index: 5, pos: pos(15), expected: false},
	}

	for _, tc := range tests {
		if got := c.fits(tc.index, tc.pos); got != tc.expected {
			t.Errorf("(%s) got = %v, expected = %v\n", tc.description, got, tc.expected)
		}
	}
}
