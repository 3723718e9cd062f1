package dungeon

import (
	"errors"
	"testing"

	"dungeoncraft.ai/internal/sim/world/logic/rng"
)

func TestConnectRoomsPicksMinimalEdges(t *testing.T) {
	g := newTestGrid(12, 12)
	a, _ := PlaceRoomAt(g, 1, 1, 2, 2) // center (2,2)
	b, _ := PlaceRoomAt(g, 5, 1, 2, 2) // center (6,2)
	c, _ := PlaceRoomAt(g, 1, 5, 2, 2) // center (2,6)

	edges, err := ConnectRooms(g, []Room{a, b, c}, CarveStrict)
	if err != nil {
		t.Fatalf("ConnectRooms: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	if edges[0].From != 0 || edges[0].To != 1 || edges[1].From != 0 || edges[1].To != 2 {
		t.Fatalf("expected edges AB then AC, got %+v", edges)
	}
	if w := TreeWeight(edges); w != 8 {
		t.Fatalf("expected total weight 8, got %d", w)
	}
	if !Connected(g, []Room{a, b, c}) {
		t.Fatalf("expected all three rooms connected")
	}
}

func TestConnectRoomsTieBreakIsInsertionOrder(t *testing.T) {
	g := newTestGrid(30, 30)
	// Rooms 1 and 2 are both 6 away from room 0; room 1 is enqueued first.
	rooms := []Room{
		NewRoom(10, 10, 2, 2),
		NewRoom(16, 10, 2, 2),
		NewRoom(10, 16, 2, 2),
	}
	edges, err := ConnectRooms(g, rooms, CarvePierce)
	if err != nil {
		t.Fatalf("ConnectRooms: %v", err)
	}
	if edges[0].To != 1 {
		t.Fatalf("expected the first enqueued equal-weight edge to win, got %+v", edges[0])
	}
}

func TestConnectRoomsRejectsFewerThanTwo(t *testing.T) {
	g := newTestGrid(4, 4)
	for _, rooms := range [][]Room{nil, {NewRoom(1, 1, 2, 2)}} {
		if _, err := ConnectRooms(g, rooms, CarveStrict); !errors.Is(err, ErrTooFewRooms) {
			t.Fatalf("expected ErrTooFewRooms for %d rooms, got %v", len(rooms), err)
		}
	}
	if g.sets != 0 {
		t.Fatalf("expected no writes, got %d", g.sets)
	}
}

func TestConnectRoomsMatchesKruskal(t *testing.T) {
	for seed := int64(1); seed <= 60; seed++ {
		r := rng.New(seed)
		n := r.UniformInt(2, 12)
		rooms := make([]Room, 0, n)
		for i := 0; i < n; i++ {
			rooms = append(rooms, NewRoom(r.UniformInt(1, 90), r.UniformInt(1, 90), r.UniformInt(2, 4), r.UniformInt(2, 4)))
		}
		g := newTestGrid(100, 100)
		edges, err := ConnectRooms(g, rooms, CarveStrict)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if len(edges) != n-1 {
			t.Fatalf("seed %d: expected %d edges, got %d", seed, n-1, len(edges))
		}
		if got, want := TreeWeight(edges), kruskalWeight(rooms); got != want {
			t.Fatalf("seed %d: prim weight %d, kruskal weight %d", seed, got, want)
		}
		seen := map[int]bool{0: true}
		for _, e := range edges {
			if !seen[e.From] || seen[e.To] {
				t.Fatalf("seed %d: edge %+v does not grow the tree", seed, e)
			}
			seen[e.To] = true
		}
	}
}
