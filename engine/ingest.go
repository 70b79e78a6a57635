package engine

import (
	"github.com/driftpad/driftpad/delta"
	"github.com/driftpad/driftpad/store"
)

// ingest folds one store notification into the cache and the editor. Events
// are handled against current cache state only: the store guarantees per-key
// causal order, nothing across keys.
func (e *Engine) ingest(ev store.Event) {
	switch ev.Kind {
	case store.EventPut:
		e.ingestPut(ev)
	case store.EventChange:
		e.ingestChange(ev)
	case store.EventRemove:
		e.ingestRemove(ev.Key)
	default:
		e.log.Warnf("unknown event kind %q for key %s", ev.Kind, ev.Key)
	}
}

func (e *Engine) ingestPut(ev store.Event) {
	entry := ev.Entry
	if entry.Live == nil {
		// The unit was deleted before this replica saw it exist.
		e.log.Debugf("put of tombstone %s skipped", ev.Key)
		return
	}
	if _, ok := e.cache.indexOf(ev.Key); ok {
		// Echo of a write this replica already translated into the cache.
		return
	}

	idx := e.placeIndex(ev)
	e.cache.insertAt(idx, ev.Key, entry.Live.Pos)

	d := delta.Delta{}
	if idx > 0 {
		d = append(d, delta.Retain(idx))
	}
	d = appendUnit(d, entry.Live.Unit, setAttrs(entry.Attrs))
	e.applyRemote(d)
}

// placeIndex resolves where a new entry slots. The event's predecessor key
// is a hint; it only wins when the result keeps the cache sorted, otherwise
// the position itself decides. Position-based placement is what makes
// replicas converge regardless of how notifications interleave.
func (e *Engine) placeIndex(ev store.Event) int {
	pos := ev.Entry.Live.Pos

	idx := -1
	if ev.PrevKey == "" {
		idx = 0
	} else if i, ok := e.cache.indexOf(ev.PrevKey); ok {
		idx = i + 1
	}
	if idx < 0 || !e.cache.fits(idx, pos) {
		idx = e.cache.search(pos)
	}
	return idx
}

func (e *Engine) ingestRemove(key string) {
	i, ok := e.cache.indexOf(key)
	if !ok {
		// Already gone; overlapping removals are benign.
		e.log.Debugf("remove of untracked key %s skipped", key)
		return
	}

	e.cache.removeAt(i)
	e.applyRemote(delta.Delta{delta.Retain(i), delta.Delete(1)})
}

func (e *Engine) ingestChange(ev store.Event) {
	if ev.Entry.Live == nil {
		// Lazy tombstone observation: a deletion surfacing as a field
		// change. Never resurrects — untracked keys stay untracked.
		e.ingestRemove(ev.Key)
		return
	}

	i, ok := e.cache.indexOf(ev.Key)
	if !ok {
		// A formatting write racing a deletion this replica already
		// applied. The attrs live on in the store; readers ignore them.
		e.log.Debugf("change on untracked key %s skipped", ev.Key)
		return
	}

	attrs := e.absoluteAttrs(i, ev.Entry.Attrs)
	if len(attrs) == 0 {
		return
	}
	e.applyRemote(delta.Delta{delta.Retain(i), delta.Format(1, attrs)})
}

// absoluteAttrs computes the format delta that makes the editor unit hold
// exactly the event's attribute set. Store fields are written independently,
// so the event state must be applied absolutely: anything active in the
// editor but missing from the event gets an explicit unset, or stale
// formatting would leak.
func (e *Engine) absoluteAttrs(index int, attrs map[string]string) delta.AttrMap {
	current := e.ed.AttributesAt(index)

	out := make(delta.AttrMap, len(attrs)+len(current))
	for name := range current {
		if _, ok := attrs[name]; !ok {
			out[name] = delta.Unset()
		}
	}
	for name, value := range attrs {
		if current[name] == value {
			continue
		}
		out[name] = delta.Set(value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
