package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/driftpad/driftpad/delta"
)

var ErrOutOfBounds = errors.New("delta spans past end of document")

// embedRune stands in for embedded objects in the flattened text.
const embedRune = '￼'

// Cell is one unit of buffer content with its active attributes.
type Cell struct {
	Unit  delta.Unit
	Attrs map[string]string
}

// Buffer is a headless Editor: a sequence of attributed cells. The demo
// client renders it; the engine tests assert on it.
type Buffer struct {
	cells    []Cell
	watchers []func(delta.Delta)
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Apply rebuilds the cell sequence from the delta. The new sequence is
// committed only after the whole delta is walked, so a delta that runs past
// the end leaves the buffer untouched.
func (b *Buffer) Apply(d delta.Delta) error {
	capHint := len(b.cells) + d.Len()
	if capHint < 0 {
		// Delete-heavy deltas net below zero; they fail bounds checks
		// below, but the capacity must stay legal first.
		capHint = 0
	}
	out := make([]Cell, 0, capHint)
	i := 0

	for _, op := range d {
		switch {
		case op.Insert != "":
			attrs := op.Attrs.Values()
			for _, r := range op.Insert {
				out = append(out, Cell{Unit: delta.Char(r), Attrs: cloneAttrs(attrs)})
			}

		case op.Embed != nil:
			out = append(out, Cell{Unit: delta.Unit{Embed: op.Embed}, Attrs: op.Attrs.Values()})

		case op.Delete > 0:
			if i+op.Delete > len(b.cells) {
				return fmt.Errorf("delete of %d at %d: %w", op.Delete, i, ErrOutOfBounds)
			}
			i += op.Delete

		case op.Retain > 0:
			if i+op.Retain > len(b.cells) {
				return fmt.Errorf("retain of %d at %d: %w", op.Retain, i, ErrOutOfBounds)
			}
			for j := 0; j < op.Retain; j++ {
				cell := b.cells[i+j]
				if len(op.Attrs) > 0 {
					cell.Attrs = mergeAttrs(cell.Attrs, op.Attrs)
				}
				out = append(out, cell)
			}
			i += op.Retain
		}
	}

	out = append(out, b.cells[i:]...)
	b.cells = out

	for _, fn := range b.watchers {
		if fn != nil {
			fn(d)
		}
	}
	return nil
}

func (b *Buffer) Len() int {
	return len(b.cells)
}

func (b *Buffer) AttributesAt(index int) map[string]string {
	if index < 0 || index >= len(b.cells) {
		return nil
	}
	return cloneAttrs(b.cells[index].Attrs)
}

// Cells returns a copy of the cell sequence, suitable for handing to
// another goroutine.
func (b *Buffer) Cells() []Cell {
	out := make([]Cell, len(b.cells))
	for i, c := range b.cells {
		out[i] = Cell{Unit: c.Unit, Attrs: cloneAttrs(c.Attrs)}
	}
	return out
}

// UnitAt returns the content unit at the given offset.
func (b *Buffer) UnitAt(index int) (delta.Unit, bool) {
	if index < 0 || index >= len(b.cells) {
		return delta.Unit{}, false
	}
	return b.cells[index].Unit, true
}

func (b *Buffer) OnChange(fn func(delta.Delta)) func() {
	b.watchers = append(b.watchers, fn)
	i := len(b.watchers) - 1
	return func() {
		b.watchers[i] = nil
	}
}

// Text flattens the buffer to a string, with embeds rendered as the object
// replacement character.
func (b *Buffer) Text() string {
	var sb strings.Builder
	for _, c := range b.cells {
		if c.Unit.IsEmbed() {
			sb.WriteRune(embedRune)
			continue
		}
		sb.WriteString(c.Unit.Ch)
	}
	return sb.String()
}

// mergeAttrs applies a tagged attribute map on top of the plain form kept on
// cells: sets overwrite, unsets delete.
func mergeAttrs(base map[string]string, attrs delta.AttrMap) map[string]string {
	out := cloneAttrs(base)
	for name, attr := range attrs {
		if attr.Unset {
			delete(out, name)
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[name] = attr.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneAttrs(attrs map[string]string) map[string]string {
	if attrs == nil {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
