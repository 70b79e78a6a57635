package editor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/driftpad/driftpad/delta"
)

func TestBufferApply(t *testing.T) {
	bold := delta.AttrMap{"bold": delta.Set("true")}

	tests := []struct {
		description string
		deltas      []delta.Delta
		expected    string
	}{
		{description: "insert into empty buffer",
			deltas:   []delta.Delta{{delta.Insert("hello", nil)}},
			expected: "hello"},

		{description: "insert in the middle",
			deltas: []delta.Delta{
				{delta.Insert("hlo", nil)},
				{delta.Retain(1), delta.Insert("el", nil)},
			},
			expected: "hello"},

		{description: "delete span",
			deltas: []delta.Delta{
				{delta.Insert("hello", nil)},
				{delta.Retain(1), delta.Delete(3)},
			},
			expected: "ho"},

		{description: "format leaves text unchanged",
			deltas: []delta.Delta{
				{delta.Insert("hi", nil)},
				{delta.Format(2, bold)},
			},
			expected: "hi"},

		{description: "embed renders as placeholder",
			deltas: []delta.Delta{
				{delta.Insert("a", nil), delta.InsertEmbed(map[string]string{"image": "x.png"}, nil), delta.Insert("b", nil)},
			},
			expected: "a￼b"},
	}

	for _, tc := range tests {
		b := NewBuffer()
		for _, d := range tc.deltas {
			if err := b.Apply(d); err != nil {
				t.Errorf("(%s) apply error: %v\n", tc.description, err)
			}
		}
		if got := b.Text(); got != tc.expected {
			t.Errorf("(%s) got = %q, expected = %q\n", tc.description, got, tc.expected)
		}
	}
}

func TestBufferAttributes(t *testing.T) {
	b := NewBuffer()
	if err := b.Apply(delta.Delta{delta.Insert("abc", delta.AttrMap{"color": delta.Set("red")})}); err != nil {
		t.Fatalf("apply error: %v", err)
	}
	if err := b.Apply(delta.Delta{delta.Retain(1), delta.Format(1, delta.AttrMap{"bold": delta.Set("true")})}); err != nil {
		t.Fatalf("apply error: %v", err)
	}

	tests := []struct {
		description string
		index       int
		expected    map[string]string
	}{
		{description: "untouched cell", index: 0, expected: map[string]string{"color": "red"}},
		{description: "formatted cell", index: 1, expected: map[string]string{"color": "red", "bold": "true"}},
		{description: "out of range", index: 5, expected: nil},
	}

	for _, tc := range tests {
		got := b.AttributesAt(tc.index)
		if !cmp.Equal(got, tc.expected) {
			t.Errorf("(%s) got != expected, diff: %v\n", tc.description, cmp.Diff(got, tc.expected))
		}
	}
}

func TestBufferFormatUnset(t *testing.T) {
	b := NewBuffer()
	if err := b.Apply(delta.Delta{delta.Insert("x", delta.AttrMap{"bold": delta.Set("true"), "color": delta.Set("red")})}); err != nil {
		t.Fatalf("apply error: %v", err)
	}
	if err := b.Apply(delta.Delta{delta.Format(1, delta.AttrMap{"color": delta.Unset()})}); err != nil {
		t.Fatalf("apply error: %v", err)
	}

	got := b.AttributesAt(0)
	expected := map[string]string{"bold": "true"}
	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}
}

func TestBufferApplyAtomic(t *testing.T) {
	b := NewBuffer()
	if err := b.Apply(delta.Delta{delta.Insert("abc", nil)}); err != nil {
		t.Fatalf("apply error: %v", err)
	}

	err := b.Apply(delta.Delta{delta.Retain(2), delta.Delete(5)})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}

	// The failed delta must not have touched the buffer.
	if got, expected := b.Text(), "abc"; got != expected {
		t.Errorf("got = %q, expected = %q\n", got, expected)
	}
}

func TestBufferApplyDeleteHeavy(t *testing.T) {
	tests := []struct {
		description string
		setup       delta.Delta
		apply       delta.Delta
		expected    string
	}{
		{description: "delete from empty buffer",
			apply:    delta.Delta{delta.Retain(5), delta.Delete(1)},
			expected: ""},
		{description: "delete more than the buffer holds",
			setup:    delta.Delta{delta.Insert("hi", nil)},
			apply:    delta.Delta{delta.Delete(4)},
			expected: "hi"},
	}

	for _, tc := range tests {
		b := NewBuffer()
		if tc.setup != nil {
			if err := b.Apply(tc.setup); err != nil {
				t.Fatalf("(%s) setup error: %v", tc.description, err)
			}
		}

		err := b.Apply(tc.apply)
		if !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("(%s) expected ErrOutOfBounds, got %v\n", tc.description, err)
		}
		if got := b.Text(); got != tc.expected {
			t.Errorf("(%s) got = %q, expected = %q\n", tc.description, got, tc.expected)
		}
	}
}

func TestBufferOnChange(t *testing.T) {
	b := NewBuffer()

	var seen []delta.Delta
	cancel := b.OnChange(func(d delta.Delta) {
		seen = append(seen, d)
	})

	d := delta.Delta{delta.Insert("a", nil)}
	if err := b.Apply(d); err != nil {
		t.Fatalf("apply error: %v", err)
	}
	if len(seen) != 1 || !cmp.Equal(seen[0], d) {
		t.Fatalf("change callback saw %v, expected %v", seen, d)
	}

	cancel()
	if err := b.Apply(delta.Delta{delta.Insert("b", nil)}); err != nil {
		t.Fatalf("apply error: %v", err)
	}
	if len(seen) != 1 {
		t.Errorf("callback fired after cancel, saw %d deltas", len(seen))
	}
}
