// Package remote is a websocket-backed store.Store. It forwards writes to
// the hub fire-and-forget and surfaces the hub's snapshot and live events.
package remote

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/driftpad/driftpad/commons"
	"github.com/driftpad/driftpad/crdt"
	"github.com/driftpad/driftpad/delta"
	"github.com/driftpad/driftpad/store"
)

var ErrClosed = errors.New("connection to store closed")

// Store talks to the hub over one websocket connection. The hub never echoes
// a client's own mutations back to it, so every event delivered here
// represents a remote replica's write.
type Store struct {
	conn *websocket.Conn
	log  logrus.FieldLogger

	writeMu sync.Mutex

	mu      sync.Mutex
	subs    map[int]func(store.Event)
	nextSub int
	// Events read off the wire before anyone subscribed. The hub starts
	// broadcasting right after the snapshot, so these are held until the
	// first Subscribe and replayed in arrival order.
	backlog []store.Event

	snapCh chan []store.Entry
	done   chan struct{}

	id   uuid.UUID
	site uint8
}

// Dial connects to the hub, waits for the hello handshake, and announces the
// user. The returned Store is ready for Snapshot and Subscribe.
func Dial(ctx context.Context, url, username string, log logrus.FieldLogger) (*Store, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 2 * time.Minute,
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	s := &Store{
		conn:   conn,
		log:    log,
		subs:   make(map[int]func(store.Event)),
		snapCh: make(chan []store.Entry, 1),
		done:   make(chan struct{}),
	}

	helloCh := make(chan commons.Message, 1)
	go s.readLoop(helloCh)

	select {
	case hello := <-helloCh:
		s.id = hello.ID
		s.site = hello.Site
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		conn.Close()
		return nil, ctx.Err()
	}

	if err := s.send(commons.Message{Type: commons.JoinMessage, Text: username}); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

// ID returns the client UUID assigned by the hub.
func (s *Store) ID() uuid.UUID {
	return s.id
}

// Site returns the replica's site ID for position generation.
func (s *Store) Site() uint8 {
	return s.site
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Create(unit delta.Unit, pos crdt.Position, attrs map[string]string) (string, error) {
	key := uuid.NewString()
	entry := store.Entry{Key: key, Live: &store.Live{Unit: unit, Pos: pos}, Attrs: attrs}
	err := s.mutate(commons.Mutation{Kind: commons.PutMutation, Entry: &entry})
	return key, err
}

func (s *Store) SetAttr(key, name, value string) error {
	return s.mutate(commons.Mutation{Kind: commons.SetAttrMutation, Key: key, Name: name, Value: value})
}

func (s *Store) ClearAttr(key, name string) error {
	return s.mutate(commons.Mutation{Kind: commons.ClearAttrMutation, Key: key, Name: name})
}

func (s *Store) RemoveUnits(keys []string) error {
	return s.mutate(commons.Mutation{Kind: commons.RemoveUnitsMutation, Keys: keys})
}

// Snapshot returns the document state the hub sent on connect.
func (s *Store) Snapshot(ctx context.Context) ([]store.Entry, error) {
	select {
	case entries := <-s.snapCh:
		return entries, nil
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) Subscribe(fn func(store.Event)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	for _, ev := range s.backlog {
		fn(ev)
	}
	s.backlog = nil
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) mutate(m commons.Mutation) error {
	err := s.send(commons.Message{Type: commons.MutateMessage, Mutations: []commons.Mutation{m}})
	if err != nil {
		// Fire-and-forget: the caller carries on, divergence is the
		// accepted cost of a dropped write.
		s.log.Warnf("store write dropped: %v", err)
	}
	return err
}

func (s *Store) send(msg commons.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(&msg)
}

func (s *Store) readLoop(helloCh chan<- commons.Message) {
	defer close(s.done)

	for {
		var msg commons.Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Errorf("websocket error: %v", err)
			}
			return
		}

		switch msg.Type {
		case commons.HelloMessage:
			select {
			case helloCh <- msg:
			default:
			}

		case commons.SnapshotMessage:
			select {
			case s.snapCh <- msg.Entries:
			default:
			}

		case commons.EventsMessage:
			// Dispatch under the lock so a concurrent Subscribe cannot
			// reorder these events around its backlog replay.
			s.mu.Lock()
			if len(s.subs) == 0 {
				s.backlog = append(s.backlog, msg.Events...)
			} else {
				for _, ev := range msg.Events {
					for _, fn := range s.subs {
						fn(ev)
					}
				}
			}
			s.mu.Unlock()

		default:
			s.log.Warnf("unknown message type %q from hub", msg.Type)
		}
	}
}
