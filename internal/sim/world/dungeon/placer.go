package dungeon

import (
	"math"

	"dungeoncraft.ai/internal/sim/world/terrain/tile"
)

// PlaceRoom draws a random size and position inside the chunk at (originX,
// originY) and carves it. It returns false, leaving the grid untouched, when the
// bordered footprint would cover any non-empty cell.
func PlaceRoom(g Grid, r Rand, originX, originY int, cfg Config) (Room, bool) {
	w := r.UniformInt(cfg.MinRoomSize, cfg.MaxRoomSize)
	h := r.UniformInt(cfg.MinRoomSize, cfg.MaxRoomSize)
	x := r.UniformInt(originX+1, originX+cfg.ChunkSize-w-1)
	y := r.UniformInt(originY+1, originY+cfg.ChunkSize-h-1)
	return PlaceRoomAt(g, x, y, w, h)
}

// PlaceRoomAt carves a room with a fixed interior rectangle. All-or-nothing:
// the footprint is checked in full before anything is written. A footprint
// that does not fit in int coordinates is never placed.
func PlaceRoomAt(g Grid, startX, startY, width, height int) (Room, bool) {
	if !footprintFits(startX, width) || !footprintFits(startY, height) {
		return Room{}, false
	}
	room := NewRoom(startX, startY, width, height)
	minX, minY, maxX, maxY := room.Footprint()

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			if g.Get(x, y) != tile.Empty {
				return Room{}, false
			}
		}
	}

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			if room.Contains(x, y) {
				g.Set(x, y, tile.Floor)
				continue
			}
			if g.Get(x, y) == tile.Empty {
				g.Set(x, y, tile.Wall)
			}
		}
	}
	return room, true
}

// footprintFits reports whether [start-1, start+size] is non-empty and its
// upper end stays below MaxInt, so scans over it terminate.
func footprintFits(start, size int) bool {
	return size >= 1 && start > math.MinInt && start < math.MaxInt-size
}
