// Package dungeon places rooms inside a chunk of a shared board and joins them
// with L-shaped hallways along a minimum spanning tree of room centers.
//
// The board is shared and unsynchronized. Callers building several chunks on one
// board must serialize construction, or keep origins far enough apart that no two
// chunks' bordered footprints can intersect.
package dungeon

import (
	"errors"

	"dungeoncraft.ai/internal/sim/world/terrain/tile"
)

var (
	ErrInvalidConfig = errors.New("dungeon: invalid config")
	ErrTooFewRooms   = errors.New("dungeon: need at least two rooms to connect")
)

// Grid is read/write access to the board by absolute coordinate. Bounds outside
// the chunk rectangle are the implementation's concern.
type Grid interface {
	Get(x, y int) tile.Kind
	Set(x, y int, k tile.Kind)
}

// Rand draws a uniform integer from [lo, hi], both inclusive.
type Rand interface {
	UniformInt(lo, hi int) int
}
