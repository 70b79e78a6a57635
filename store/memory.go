package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/driftpad/driftpad/crdt"
	"github.com/driftpad/driftpad/delta"
)

// MemStore is an in-memory Store. It backs the demo server's authoritative
// document state and the engine tests. All events fire synchronously on the
// mutating goroutine, after the lock is released.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
	subs    map[int]func(Event)
	nextSub int
}

func NewMemStore() *MemStore {
	return &MemStore{
		entries: make(map[string]*Entry),
		subs:    make(map[int]func(Event)),
	}
}

// Put persists an entry under its caller-supplied key. Remote replicas
// generate keys client-side, so the hub inserts exactly what they sent.
func (s *MemStore) Put(e Entry) error {
	s.mu.Lock()
	if _, ok := s.entries[e.Key]; ok {
		s.mu.Unlock()
		return ErrKeyExists
	}
	stored := copyEntry(e)
	s.entries[e.Key] = &stored
	ev := Event{Kind: EventPut, Key: e.Key, Entry: copyEntry(stored), PrevKey: s.prevKeyLocked(stored)}
	subs := s.subsLocked()
	s.mu.Unlock()

	dispatch(subs, ev)
	return nil
}

func (s *MemStore) Create(unit delta.Unit, pos crdt.Position, attrs map[string]string) (string, error) {
	key := uuid.NewString()
	err := s.Put(Entry{Key: key, Live: &Live{Unit: unit, Pos: pos}, Attrs: attrs})
	return key, err
}

func (s *MemStore) SetAttr(key, name, value string) error {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[name] = value
	ev := Event{Kind: EventChange, Key: key, Entry: copyEntry(*e), PrevKey: s.prevKeyLocked(*e)}
	subs := s.subsLocked()
	s.mu.Unlock()

	dispatch(subs, ev)
	return nil
}

func (s *MemStore) ClearAttr(key, name string) error {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(e.Attrs, name)
	if len(e.Attrs) == 0 {
		e.Attrs = nil
	}
	ev := Event{Kind: EventChange, Key: key, Entry: copyEntry(*e), PrevKey: s.prevKeyLocked(*e)}
	subs := s.subsLocked()
	s.mu.Unlock()

	dispatch(subs, ev)
	return nil
}

func (s *MemStore) RemoveUnits(keys []string) error {
	s.mu.Lock()
	var evs []Event
	for _, key := range keys {
		e, ok := s.entries[key]
		if !ok || e.Live == nil {
			continue
		}
		e.Live = nil
		evs = append(evs, Event{Kind: EventChange, Key: key, Entry: copyEntry(*e)})
	}
	subs := s.subsLocked()
	s.mu.Unlock()

	for _, ev := range evs {
		dispatch(subs, ev)
	}
	return nil
}

// Purge physically deletes entries, attributes and all. The engine never
// calls this; it exists for housekeeping and to exercise remove
// notifications.
func (s *MemStore) Purge(keys []string) error {
	s.mu.Lock()
	var evs []Event
	for _, key := range keys {
		if _, ok := s.entries[key]; !ok {
			continue
		}
		delete(s.entries, key)
		evs = append(evs, Event{Kind: EventRemove, Key: key})
	}
	subs := s.subsLocked()
	s.mu.Unlock()

	for _, ev := range evs {
		dispatch(subs, ev)
	}
	return nil
}

func (s *MemStore) Snapshot(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for _, e := range s.entries {
		if e.Live == nil {
			continue
		}
		out = append(out, copyEntry(*e))
	}
	sort.Slice(out, func(i, j int) bool {
		return crdt.Compare(out[i].Live.Pos, out[j].Live.Pos) < 0
	})
	return out, nil
}

func (s *MemStore) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// prevKeyLocked finds the closest live entry sorting before e, if any.
func (s *MemStore) prevKeyLocked(e Entry) string {
	if e.Live == nil {
		return ""
	}
	prev := ""
	var prevPos crdt.Position
	for _, other := range s.entries {
		if other.Key == e.Key || other.Live == nil {
			continue
		}
		if crdt.Compare(other.Live.Pos, e.Live.Pos) >= 0 {
			continue
		}
		if prev == "" || crdt.Compare(other.Live.Pos, prevPos) > 0 {
			prev = other.Key
			prevPos = other.Live.Pos
		}
	}
	return prev
}

func (s *MemStore) subsLocked() []func(Event) {
	out := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func dispatch(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}

func copyEntry(e Entry) Entry {
	out := Entry{Key: e.Key}
	if e.Live != nil {
		live := *e.Live
		out.Live = &live
	}
	if e.Attrs != nil {
		out.Attrs = make(map[string]string, len(e.Attrs))
		for k, v := range e.Attrs {
			out.Attrs[k] = v
		}
	}
	return out
}
