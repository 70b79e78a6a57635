package delta

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEdits(t *testing.T) {
	bold := AttrMap{"bold": Set("true")}

	tests := []struct {
		description string
		delta       Delta
		expected    []Edit
	}{
		{description: "empty delta", delta: Delta{}, expected: nil},

		{description: "plain retain dropped",
			delta:    Delta{Retain(5)},
			expected: nil},

		{description: "insert at start",
			delta: Delta{Insert("hi", nil)},
			expected: []Edit{
				{Index: 0, Kind: EditInsert, Units: []Unit{Char('h'), Char('i')}},
			}},

		{description: "insert after retain",
			delta: Delta{Retain(3), Insert("x", bold)},
			expected: []Edit{
				{Index: 3, Kind: EditInsert, Units: []Unit{Char('x')}, Attrs: bold},
			}},

		{description: "delete does not advance the index",
			delta: Delta{Retain(2), Delete(3), Insert("y", nil)},
			expected: []Edit{
				{Index: 2, Kind: EditDelete, Length: 3},
				{Index: 2, Kind: EditInsert, Units: []Unit{Char('y')}},
			}},

		{description: "format is a retain with attributes",
			delta: Delta{Retain(1), Format(2, bold)},
			expected: []Edit{
				{Index: 1, Kind: EditFormat, Length: 2, Attrs: bold},
			}},

		{description: "embed insert is one unit",
			delta: Delta{Retain(1), InsertEmbed(map[string]string{"image": "cat.png"}, nil), Insert("z", nil)},
			expected: []Edit{
				{Index: 1, Kind: EditInsert, Units: []Unit{{Embed: map[string]string{"image": "cat.png"}}}},
				{Index: 2, Kind: EditInsert, Units: []Unit{Char('z')}},
			}},

		{description: "multibyte runes count as single units",
			delta: Delta{Insert("héllo", nil), Retain(1), Insert("!", nil)},
			expected: []Edit{
				{Index: 0, Kind: EditInsert, Units: []Unit{Char('h'), Char('é'), Char('l'), Char('l'), Char('o')}},
				{Index: 6, Kind: EditInsert, Units: []Unit{Char('!')}},
			}},
	}

	for _, tc := range tests {
		got := tc.delta.Edits()
		if !cmp.Equal(got, tc.expected) {
			t.Errorf("(%s) got != expected, diff: %v\n", tc.description, cmp.Diff(got, tc.expected))
		}
	}
}

func TestAttrMapValues(t *testing.T) {
	tests := []struct {
		description string
		attrs       AttrMap
		expected    map[string]string
	}{
		{description: "nil map", attrs: nil, expected: nil},
		{description: "unset entries dropped",
			attrs:    AttrMap{"bold": Set("true"), "color": Unset()},
			expected: map[string]string{"bold": "true"}},
		{description: "all unset collapses to nil",
			attrs:    AttrMap{"color": Unset()},
			expected: nil},
	}

	for _, tc := range tests {
		got := tc.attrs.Values()
		if !cmp.Equal(got, tc.expected) {
			t.Errorf("(%s) got != expected, diff: %v\n", tc.description, cmp.Diff(got, tc.expected))
		}
	}
}

func TestDeltaLen(t *testing.T) {
	d := Delta{Insert("abc", nil), Retain(2), Delete(1), InsertEmbed(map[string]string{"hr": "true"}, nil)}
	if got, expected := d.Len(), 3; got != expected {
		t.Errorf("got = %v, expected = %v\n", got, expected)
	}
}
