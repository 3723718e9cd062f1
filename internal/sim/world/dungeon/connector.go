package dungeon

import (
	"github.com/zyedidia/generic/heap"
	"github.com/zyedidia/generic/mapset"
)

// Edge is a candidate connection between two rooms, identified by their index
// in the room list. Weight is the Manhattan distance between centers.
type Edge struct {
	From   int `json:"from"`
	To     int `json:"to"`
	Weight int `json:"weight"`

	seq uint64
}

// edgeLess orders by weight, then by enqueue order so equal weights resolve to
// the edge pushed first.
func edgeLess(a, b Edge) bool {
	if a.Weight != b.Weight {
		return a.Weight < b.Weight
	}
	return a.seq < b.seq
}

// ConnectRooms joins every room with hallways along a Prim minimum spanning tree
// rooted at rooms[0]. Stale edges are dropped when popped rather than removed
// from the queue, so the queue can hold O(n²) entries. It returns the carved
// edges in carve order.
func ConnectRooms(g Grid, rooms []Room, mode CarveMode) ([]Edge, error) {
	if len(rooms) < 2 {
		return nil, ErrTooFewRooms
	}

	connected := mapset.New[int]()
	pq := heap.New[Edge](edgeLess)
	var seq uint64

	enqueueFrom := func(from int) {
		for to := range rooms {
			if connected.Has(to) {
				continue
			}
			pq.Push(Edge{From: from, To: to, Weight: rooms[from].DistanceTo(rooms[to]), seq: seq})
			seq++
		}
	}

	connected.Put(0)
	enqueueFrom(0)

	tree := make([]Edge, 0, len(rooms)-1)
	for connected.Size() < len(rooms) {
		e, ok := pq.Pop()
		if !ok {
			// Unreachable on a complete graph.
			break
		}
		if connected.Has(e.To) {
			continue
		}
		connected.Put(e.To)
		CarveHallway(g, rooms[e.From], rooms[e.To], mode)
		tree = append(tree, e)
		enqueueFrom(e.To)
	}
	return tree, nil
}

// TreeWeight sums edge weights.
func TreeWeight(edges []Edge) int {
	total := 0
	for _, e := range edges {
		total += e.Weight
	}
	return total
}
