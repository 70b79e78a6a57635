// Package store defines the keyed, unordered backing collection the
// synchronization engine writes to and watches. Records are unordered on the
// wire; document order exists only through each record's position field.
package store

import (
	"context"
	"errors"

	"github.com/driftpad/driftpad/crdt"
	"github.com/driftpad/driftpad/delta"
)

var (
	ErrNotFound  = errors.New("no entry with that key")
	ErrKeyExists = errors.New("entry key already in use")
)

// Live is the content half of an entry: the unit and its position, defined
// together or not at all. Pos never changes once assigned.
type Live struct {
	Unit delta.Unit    `json:"unit"`
	Pos  crdt.Position `json:"pos"`
}

// Entry is one persisted content unit. Live == nil marks a tombstone: the
// unit is logically deleted even though the record (and any attributes it
// accumulated) may remain. Attrs exists independently of Live — an attribute
// write racing a deletion leaves Attrs populated on a tombstone, which
// readers must ignore rather than treat as resurrection.
type Entry struct {
	Key   string            `json:"key"`
	Live  *Live             `json:"live,omitempty"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Tombstone reports whether the entry is logically deleted.
func (e Entry) Tombstone() bool {
	return e.Live == nil
}

// EventKind discriminates live notifications.
type EventKind string

const (
	// EventPut announces a key becoming visible with its record state.
	EventPut EventKind = "put"
	// EventChange announces an in-place mutation of a record's fields,
	// including the unit becoming absent (a deletion observed lazily).
	EventChange EventKind = "change"
	// EventRemove announces a key disappearing from the store entirely.
	EventRemove EventKind = "remove"
)

// Event is one live notification. Entry holds the record state after the
// change (zero for removes). PrevKey names the closest preceding live entry
// in position order at the time of the event, or "" when the record is (or
// follows) the document head; it is a placement hint, not a guarantee, since
// the observer's view may lag.
type Event struct {
	Kind    EventKind `json:"kind"`
	Key     string    `json:"key"`
	Entry   Entry     `json:"entry,omitempty"`
	PrevKey string    `json:"prevKey,omitempty"`
}

// Store is the backing collection. Writes are fire-and-forget from the
// caller's perspective: implementations report only local failures, never
// replication outcomes.
type Store interface {
	// Create persists a new live entry under a generated key and returns it.
	Create(unit delta.Unit, pos crdt.Position, attrs map[string]string) (string, error)

	// SetAttr writes one attribute field. Tombstoned entries accept
	// attribute writes; they simply never become visible again.
	SetAttr(key, name, value string) error

	// ClearAttr removes one attribute field.
	ClearAttr(key, name string) error

	// RemoveUnits unsets the content of every named entry in one batch,
	// leaving positions and attributes in place. Unknown keys are skipped.
	RemoveUnits(keys []string) error

	// Snapshot returns every non-tombstoned entry in ascending position
	// order.
	Snapshot(ctx context.Context) ([]Entry, error)

	// Subscribe registers a callback for live events and returns a cancel
	// function. Events for a given key arrive in causal write order; events
	// across keys may interleave arbitrarily.
	Subscribe(fn func(Event)) func()
}
