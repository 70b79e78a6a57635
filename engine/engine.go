// Package engine is the synchronization core: it keeps a local rich-text
// editor and a shared keyed store convergent. Editor changes are translated
// into position-addressed store records; store notifications are folded back
// into editor operations. One order cache, owned by a single goroutine,
// backs both directions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/driftpad/driftpad/crdt"
	"github.com/driftpad/driftpad/delta"
	"github.com/driftpad/driftpad/editor"
	"github.com/driftpad/driftpad/store"
)

var (
	ErrNoDocument = errors.New("store holds no document")
	ErrStarted    = errors.New("engine already started")
)

// Config wires an Engine. Store, Editor and Generator are required; Logger
// defaults to a discarding logger.
type Config struct {
	Store     store.Store
	Editor    editor.Editor
	Generator crdt.Generator
	Logger    logrus.FieldLogger

	// RequireContent makes Start fail with ErrNoDocument when the initial
	// snapshot comes back empty, for callers joining a session that must
	// already exist.
	RequireContent bool
}

// Engine synchronizes one editor with one store. All cache mutation, editor
// application and mutation issuance happens on the goroutine driving Start,
// Run and Edit task processing; the only cross-goroutine traffic is the
// event queue fed by the store subscription.
type Engine struct {
	store store.Store
	ed    editor.Editor
	gen   crdt.Generator
	log   logrus.FieldLogger

	cache orderCache

	// Reentrancy guard. applyingRemote is up while a remote-derived delta
	// is applied to the editor; seeding is up while bootstrap splices in
	// the loaded document. The change callback discards deltas seen under
	// either, since they carry no new user intent.
	applyingRemote bool
	seeding        bool

	requireContent bool
	started        bool
	unsub          func()

	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
}

func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil || cfg.Editor == nil || cfg.Generator == nil {
		return nil, errors.New("engine: store, editor and generator are required")
	}

	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	e := &Engine{
		store:          cfg.Store,
		ed:             cfg.Editor,
		gen:            cfg.Generator,
		log:            log,
		requireContent: cfg.RequireContent,
		wake:           make(chan struct{}, 1),
	}
	cfg.Editor.OnChange(e.editorChanged)
	return e, nil
}

// Start bootstraps: it subscribes to live events, fetches the snapshot,
// fills the order cache and splices the document into the editor as one bulk
// delta. The subscription opens first so no write can slip between the
// snapshot and the live feed; events racing the bootstrap sit in the task
// queue until Run drains them, where the tracked-key and untracked-key
// checks make replays of anything the snapshot already reflects no-ops.
func (e *Engine) Start(ctx context.Context) error {
	if e.started {
		return ErrStarted
	}

	unsub := e.store.Subscribe(func(ev store.Event) {
		e.post(func() { e.ingest(ev) })
	})
	e.mu.Lock()
	e.unsub = unsub
	e.mu.Unlock()

	entries, err := e.store.Snapshot(ctx)
	if err != nil {
		e.Close()
		return fmt.Errorf("initial snapshot: %w", err)
	}
	if len(entries) == 0 && e.requireContent {
		e.Close()
		return ErrNoDocument
	}

	seed := make(delta.Delta, 0, len(entries))
	for _, entry := range entries {
		if entry.Live == nil {
			// Tombstones carry no content, even in a sloppy snapshot.
			continue
		}
		e.cache.insertAt(e.cache.len(), entry.Key, entry.Live.Pos)
		seed = appendUnit(seed, entry.Live.Unit, setAttrs(entry.Attrs))
	}

	if len(seed) > 0 {
		e.seeding = true
		err := e.ed.Apply(seed)
		e.seeding = false
		if err != nil {
			e.Close()
			return fmt.Errorf("seeding editor: %w", err)
		}
	}

	e.started = true

	e.log.Infof("bootstrapped with %d units", e.cache.len())
	return nil
}

// Run processes queued work — store events and posted edits — until the
// context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	for {
		e.drain()
		select {
		case <-ctx.Done():
			e.Close()
			return ctx.Err()
		case <-e.wake:
		}
	}
}

// Close cancels the store subscription. Callers that Start but never Run,
// or whose Run returns some other way, use it to release the engine. Safe
// to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	unsub := e.unsub
	e.unsub = nil
	e.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	return nil
}

// Edit queues a local change for application. The editor apply runs on the
// engine goroutine with the guard down, so the change callback translates it
// into store mutations.
func (e *Engine) Edit(d delta.Delta) {
	e.post(func() { e.applyLocal(d) })
}

func (e *Engine) applyLocal(d delta.Delta) {
	if err := e.ed.Apply(d); err != nil {
		e.log.Errorf("local edit rejected: %v", err)
	}
}

// editorChanged receives every editor change. Deltas the engine itself
// applied are propagation echoes, not user intent, and are dropped here.
func (e *Engine) editorChanged(d delta.Delta) {
	if e.applyingRemote || e.seeding {
		return
	}
	e.translate(d)
}

// applyRemote applies a remote-derived delta to the editor under the guard.
// The guard drops on every exit path so one bad delta cannot wedge the
// engine in a suppressed state.
func (e *Engine) applyRemote(d delta.Delta) {
	e.applyingRemote = true
	defer func() { e.applyingRemote = false }()

	if err := e.ed.Apply(d); err != nil {
		e.log.Errorf("remote delta rejected by editor: %v", err)
	}
}

func (e *Engine) post(fn func()) {
	e.mu.Lock()
	e.tasks = append(e.tasks, fn)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) drain() {
	for {
		e.mu.Lock()
		if len(e.tasks) == 0 {
			e.mu.Unlock()
			return
		}
		fn := e.tasks[0]
		e.tasks = e.tasks[1:]
		e.mu.Unlock()

		fn()
	}
}

// appendUnit extends a delta with one unit, merging runs of text that share
// attributes into a single insert op.
func appendUnit(d delta.Delta, unit delta.Unit, attrs delta.AttrMap) delta.Delta {
	if unit.IsEmbed() {
		return append(d, delta.InsertEmbed(unit.Embed, attrs))
	}
	if n := len(d); n > 0 {
		last := &d[n-1]
		if last.Insert != "" && attrsEqual(last.Attrs, attrs) {
			last.Insert += unit.Ch
			return d
		}
	}
	return append(d, delta.Insert(unit.Ch, attrs))
}

// setAttrs lifts the plain stored form into tagged Set values.
func setAttrs(attrs map[string]string) delta.AttrMap {
	if len(attrs) == 0 {
		return nil
	}
	out := make(delta.AttrMap, len(attrs))
	for k, v := range attrs {
		out[k] = delta.Set(v)
	}
	return out
}

func attrsEqual(a, b delta.AttrMap) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
