package dungeon

import (
	"fmt"
	"sort"

	"dungeoncraft.ai/internal/sim/world/terrain/tile"
)

// testGrid is a bounded dense grid; reads outside report Wall and writes
// outside are dropped.
type testGrid struct {
	w, h  int
	cells []tile.Kind
	sets  int
}

func newTestGrid(w, h int) *testGrid {
	return &testGrid{w: w, h: h, cells: make([]tile.Kind, w*h)}
}

func (g *testGrid) in(x, y int) bool { return x >= 0 && y >= 0 && x < g.w && y < g.h }

func (g *testGrid) Get(x, y int) tile.Kind {
	if !g.in(x, y) {
		return tile.Wall
	}
	return g.cells[x+y*g.w]
}

func (g *testGrid) Set(x, y int, k tile.Kind) {
	if !g.in(x, y) {
		return
	}
	g.sets++
	g.cells[x+y*g.w] = k
}

func (g *testGrid) clone() []tile.Kind {
	return append([]tile.Kind(nil), g.cells...)
}

func (g *testGrid) count(k tile.Kind) int {
	n := 0
	for _, c := range g.cells {
		if c == k {
			n++
		}
	}
	return n
}

// scriptRand replays fixed values, then repeats tail forever.
type scriptRand struct {
	vals []int
	tail []int
	pos  int
}

func (s *scriptRand) UniformInt(lo, hi int) int {
	var v int
	if s.pos < len(s.vals) {
		v = s.vals[s.pos]
	} else {
		v = s.tail[(s.pos-len(s.vals))%len(s.tail)]
	}
	s.pos++
	if v < lo || v > hi {
		panic(fmt.Sprintf("scripted value %d outside [%d, %d] at draw %d", v, lo, hi, s.pos-1))
	}
	return v
}

// kruskalWeight is an independent MST over room centers.
func kruskalWeight(rooms []Room) int {
	type pair struct{ a, b, w int }
	var pairs []pair
	for i := range rooms {
		for j := i + 1; j < len(rooms); j++ {
			pairs = append(pairs, pair{i, j, rooms[i].DistanceTo(rooms[j])})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].w < pairs[j].w })

	parent := make([]int, len(rooms))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	total := 0
	for _, p := range pairs {
		ra, rb := find(p.a), find(p.b)
		if ra == rb {
			continue
		}
		parent[ra] = rb
		total += p.w
	}
	return total
}

func footprintsOverlap(a, b Room) bool {
	ax0, ay0, ax1, ay1 := a.Footprint()
	bx0, by0, bx1, by1 := b.Footprint()
	return ax0 <= bx1 && bx0 <= ax1 && ay0 <= by1 && by0 <= ay1
}
