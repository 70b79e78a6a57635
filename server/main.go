package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/driftpad/driftpad/commons"
	"github.com/driftpad/driftpad/store"
)

// Upgrader instance to upgrade all HTTP connections to a WebSocket.
var upgrader = websocket.Upgrader{}

// Channel feeding the hub goroutine. Every connection event and client
// message goes through here, so the hub owns the document and all writes.
var hubChan = make(chan hubMsg)

type hubMsg struct {
	conn  *websocket.Conn
	msg   commons.Message
	join  bool
	leave bool
}

// session is the hub's state for one connected client.
type session struct {
	id   uuid.UUID
	site uint8
}

func main() {
	// Parse flags.
	addr := flag.String("addr", ":9000", "Server's network address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/", handleConn)

	// Run the hub.
	go runHub()

	// Start the server.
	log.Printf("Starting server on %s", *addr)
	err := http.ListenAndServe(*addr, mux)
	if err != nil {
		log.Fatal("Error starting server, exiting.", err)
	}
}

// handleConn upgrades incoming HTTP connections to WebSocket connections and
// pumps everything the client sends into the hub.
func handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection to websocket: %v", err)
		return
	}
	defer conn.Close()

	hubChan <- hubMsg{conn: conn, join: true}

	for {
		var msg commons.Message

		// Read message from the connection.
		err := conn.ReadJSON(&msg)
		if err != nil {
			hubChan <- hubMsg{conn: conn, leave: true}
			break
		}

		hubChan <- hubMsg{conn: conn, msg: msg}
	}
}

// runHub owns the authoritative document and the client table. Keeping both
// on one goroutine serializes every store mutation and connection write
// without further locking.
func runHub() {
	doc := store.NewMemStore()
	clients := make(map[*websocket.Conn]session)

	// Events collected while a mutation batch is applied; broadcast after,
	// skipping the originating client.
	var pending []store.Event
	doc.Subscribe(func(ev store.Event) {
		pending = append(pending, ev)
	})

	for in := range hubChan {
		switch {
		case in.join:
			site, ok := freeSite(clients)
			if !ok {
				log.Printf("No free site IDs, refusing join")
				in.conn.Close()
				continue
			}
			s := session{id: uuid.New(), site: site}
			clients[in.conn] = s

			hello := commons.Message{Type: commons.HelloMessage, ID: s.id, Site: s.site}
			if err := in.conn.WriteJSON(&hello); err != nil {
				log.Printf("Error sending hello: %v", err)
				dropClient(clients, in.conn)
				continue
			}

			entries, err := doc.Snapshot(context.Background())
			if err != nil {
				log.Printf("Error taking snapshot: %v", err)
				dropClient(clients, in.conn)
				continue
			}
			snap := commons.Message{Type: commons.SnapshotMessage, Entries: entries}
			if err := in.conn.WriteJSON(&snap); err != nil {
				log.Printf("Error sending snapshot: %v", err)
				dropClient(clients, in.conn)
			}

		case in.leave:
			if s, ok := clients[in.conn]; ok {
				log.Printf("Closing connection with ID: %v", s.id)
			}
			dropClient(clients, in.conn)

		default:
			switch in.msg.Type {
			case commons.JoinMessage:
				t := time.Now().Format(time.ANSIC)
				color.Green("%s >> %s has joined the session\n", t, in.msg.Text)

			case commons.MutateMessage:
				for _, m := range in.msg.Mutations {
					applyMutation(doc, m)
				}

				// Broadcast to all active clients, except the origin: a
				// replica already reflects its own writes.
				if len(pending) > 0 {
					out := commons.Message{Type: commons.EventsMessage, Events: pending}
					pending = nil
					for conn := range clients {
						if conn == in.conn {
							continue
						}
						if err := conn.WriteJSON(&out); err != nil {
							log.Printf("Error sending events to client: %v", err)
							dropClient(clients, conn)
						}
					}
				}

			default:
				log.Printf("Unexpected message type %q", in.msg.Type)
			}
		}
	}
}

func applyMutation(doc *store.MemStore, m commons.Mutation) {
	var err error
	switch m.Kind {
	case commons.PutMutation:
		if m.Entry == nil {
			log.Printf("Put mutation without an entry")
			return
		}
		err = doc.Put(*m.Entry)
	case commons.SetAttrMutation:
		err = doc.SetAttr(m.Key, m.Name, m.Value)
	case commons.ClearAttrMutation:
		err = doc.ClearAttr(m.Key, m.Name)
	case commons.RemoveUnitsMutation:
		err = doc.RemoveUnits(m.Keys)
	default:
		log.Printf("Unexpected mutation kind %q", m.Kind)
		return
	}
	if err != nil {
		log.Printf("Error applying %s mutation: %v", m.Kind, err)
	}
}

// freeSite picks the lowest site ID no connected client holds. Site 0 is
// never handed out, and sites come back into the pool when their client
// leaves; two live replicas must never share one, or their position
// generators could tie.
func freeSite(clients map[*websocket.Conn]session) (uint8, bool) {
	var used [256]bool
	for _, s := range clients {
		used[s.site] = true
	}
	for i := 1; i < 256; i++ {
		if !used[i] {
			return uint8(i), true
		}
	}
	return 0, false
}

func dropClient(clients map[*websocket.Conn]session, conn *websocket.Conn) {
	delete(clients, conn)
	conn.Close()
}
