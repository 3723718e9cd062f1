package dungeon

import (
	"github.com/zyedidia/generic/mapset"

	"dungeoncraft.ai/internal/sim/world/terrain/tile"
)

type Point struct{ X, Y int }

// Connected reports whether every room interior is reachable from the first
// room by walking orthogonally over floor cells. Fewer than two rooms is
// trivially connected.
func Connected(g Grid, rooms []Room) bool {
	if len(rooms) < 2 {
		return true
	}
	reached := FloodFloor(g, rooms[0].StartX, rooms[0].StartY)
	for _, r := range rooms[1:] {
		if !reached.Has(Point{r.StartX, r.StartY}) {
			return false
		}
	}
	return true
}

// FloodFloor collects the floor cells orthogonally reachable from (x, y). The
// grid must hold a finite number of floor cells.
func FloodFloor(g Grid, x, y int) mapset.Set[Point] {
	seen := mapset.New[Point]()
	if g.Get(x, y) != tile.Floor {
		return seen
	}
	queue := []Point{{x, y}}
	seen.Put(Point{x, y})
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range [4]Point{{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1}} {
			if seen.Has(n) || g.Get(n.X, n.Y) != tile.Floor {
				continue
			}
			seen.Put(n)
			queue = append(queue, n)
		}
	}
	return seen
}
