package commons

import (
	"github.com/google/uuid"

	"github.com/driftpad/driftpad/store"
)

// Message represents the message sent over the wire between the demo client
// and the store hub.
type Message struct {
	// Type represents the message type.
	Type MessageType `json:"type"`

	// ID represents the client's UUID, assigned by the hub.
	ID uuid.UUID `json:"id,omitempty"`

	// Site is the replica's site ID for position generation, assigned by
	// the hub on join.
	Site uint8 `json:"site,omitempty"`

	// Text carries the username for join messages.
	Text string `json:"text,omitempty"`

	// Entries carries the full snapshot of live entries, position-sorted.
	Entries []store.Entry `json:"entries,omitempty"`

	// Mutations carries store writes from a client.
	Mutations []Mutation `json:"mutations,omitempty"`

	// Events carries live store notifications fanned out by the hub.
	Events []store.Event `json:"events,omitempty"`
}

// MessageType represents the type of the message.
type MessageType string

const (
	// HelloMessage assigns the client its UUID and site ID.
	HelloMessage MessageType = "hello"
	// SnapshotMessage delivers the full current document state.
	SnapshotMessage MessageType = "snapshot"
	// MutateMessage carries client store writes to the hub.
	MutateMessage MessageType = "mutate"
	// EventsMessage carries store notifications to clients.
	EventsMessage MessageType = "events"
	// JoinMessage announces a client joining the session.
	JoinMessage MessageType = "join"
)

// MutationKind represents the type of a store write.
type MutationKind string

const (
	PutMutation         MutationKind = "put"
	SetAttrMutation     MutationKind = "setAttr"
	ClearAttrMutation   MutationKind = "clearAttr"
	RemoveUnitsMutation MutationKind = "removeUnits"
)

// Mutation is one store write. Put carries the full entry, key included:
// keys are generated client-side so creates never round-trip.
type Mutation struct {
	Kind  MutationKind `json:"kind"`
	Entry *store.Entry `json:"entry,omitempty"`
	Key   string       `json:"key,omitempty"`
	Name  string       `json:"name,omitempty"`
	Value string       `json:"value,omitempty"`
	Keys  []string     `json:"keys,omitempty"`
}
