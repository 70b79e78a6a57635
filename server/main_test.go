package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func TestFreeSite(t *testing.T) {
	conns := make([]*websocket.Conn, 256)
	for i := range conns {
		conns[i] = new(websocket.Conn)
	}

	withSites := func(sites ...uint8) map[*websocket.Conn]session {
		clients := make(map[*websocket.Conn]session, len(sites))
		for i, site := range sites {
			clients[conns[i]] = session{id: uuid.New(), site: site}
		}
		return clients
	}

	allSites := make([]uint8, 0, 255)
	for i := 1; i < 256; i++ {
		allSites = append(allSites, uint8(i))
	}

	tests := []struct {
		description string
		clients     map[*websocket.Conn]session
		expected    uint8
		ok          bool
	}{
		{description: "empty hub hands out site 1",
			clients: withSites(), expected: 1, ok: true},
		{description: "next free site",
			clients: withSites(1, 2, 3), expected: 4, ok: true},
		{description: "departed site is reclaimed",
			clients: withSites(1, 3), expected: 2, ok: true},
		{description: "full hub refuses",
			clients: withSites(allSites...), ok: false},
		{description: "one leaving frees its site",
			clients: withSites(allSites[1:]...), expected: 1, ok: true},
	}

	for _, tc := range tests {
		got, ok := freeSite(tc.clients)
		if ok != tc.ok {
			t.Errorf("(%s) ok: got = %v, expected = %v\n", tc.description, ok, tc.ok)
			continue
		}
		if ok && got != tc.expected {
			t.Errorf("(%s) got = %v, expected = %v\n", tc.description, got, tc.expected)
		}
	}
}
