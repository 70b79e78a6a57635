package engine

import (
	"github.com/driftpad/driftpad/crdt"
	"github.com/driftpad/driftpad/delta"
)

// translate turns one user-visible editor change into store mutations,
// updating the cache synchronously so later edits in the same delta address
// the right rows.
func (e *Engine) translate(d delta.Delta) {
	for _, edit := range d.Edits() {
		switch edit.Kind {
		case delta.EditInsert:
			e.translateInsert(edit)
		case delta.EditDelete:
			e.translateDelete(edit)
		case delta.EditFormat:
			e.translateFormat(edit)
		}
	}
}

func (e *Engine) translateInsert(edit delta.Edit) {
	var lower, upper crdt.Position
	if edit.Index > 0 {
		lower = e.cache.posAt(edit.Index - 1)
	}
	if edit.Index < e.cache.len() {
		upper = e.cache.posAt(edit.Index)
	}

	// Generate every position before the first write goes out: position
	// writes can surface as notifications that mutate this engine's own
	// view mid-loop, and a half-allocated run would interleave wrong.
	positions := make([]crdt.Position, len(edit.Units))
	for i := range edit.Units {
		positions[i] = e.gen.Between(lower, upper)
		lower = positions[i]
	}

	attrs := edit.Attrs.Values()
	inserted := 0
	for i, unit := range edit.Units {
		key, err := e.store.Create(unit, positions[i], attrs)
		if err != nil {
			// A failed create leaves a gap in the run; later cache rows
			// slot by successes, not by the unit's offset in the edit.
			e.log.Warnf("create at %d failed: %v", edit.Index+i, err)
			continue
		}
		e.cache.insertAt(edit.Index+inserted, key, positions[i])
		inserted++
	}
}

func (e *Engine) translateDelete(edit delta.Edit) {
	n := edit.Length
	if edit.Index+n > e.cache.len() {
		e.log.Warnf("delete of %d at %d exceeds %d tracked units", n, edit.Index, e.cache.len())
		n = e.cache.len() - edit.Index
	}
	if n <= 0 {
		return
	}

	keys := make([]string, n)
	copy(keys, e.cache.keys[edit.Index:edit.Index+n])

	// One batched mutation unsets the units; positions and attributes are
	// left alone. A racing attribute write cannot resurrect these —
	// readers check unit presence, not attribute presence.
	if err := e.store.RemoveUnits(keys); err != nil {
		e.log.Warnf("delete of %d at %d failed: %v", n, edit.Index, err)
	}

	for i := 0; i < n; i++ {
		e.cache.removeAt(edit.Index)
	}
}

func (e *Engine) translateFormat(edit delta.Edit) {
	n := edit.Length
	if edit.Index+n > e.cache.len() {
		e.log.Warnf("format of %d at %d exceeds %d tracked units", n, edit.Index, e.cache.len())
		n = e.cache.len() - edit.Index
	}

	for i := 0; i < n; i++ {
		key := e.cache.keyAt(edit.Index + i)
		// Each attribute is its own field mutation: the store's per-field
		// conflict resolution then approximates a last-writer-wins
		// register per attribute.
		for name, attr := range edit.Attrs {
			var err error
			if attr.Unset {
				err = e.store.ClearAttr(key, name)
			} else {
				err = e.store.SetAttr(key, name, attr.Value)
			}
			if err != nil {
				e.log.Warnf("format %q on %s failed: %v", name, key, err)
			}
		}
	}
}
