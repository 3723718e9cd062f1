package dungeon

import (
	"fmt"
	"strings"

	"dungeoncraft.ai/internal/sim/world/logic/mathx"
	"dungeoncraft.ai/internal/sim/world/terrain/tile"
)

// CarveMode decides what a hallway may overwrite.
type CarveMode uint8

const (
	// CarveStrict turns only empty path cells into floor, plus the two doorway
	// cells on the rooms' own borders.
	CarveStrict CarveMode = iota
	// CarvePierce also opens every wall the path crosses. Existing floor is
	// never touched in either mode.
	CarvePierce
)

func (m CarveMode) String() string {
	if m == CarvePierce {
		return "pierce"
	}
	return "strict"
}

func ParseCarveMode(s string) (CarveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return CarveStrict, nil
	case "pierce":
		return CarvePierce, nil
	}
	return CarveStrict, fmt.Errorf("%w: unknown carve mode %q", ErrInvalidConfig, s)
}

// Doorways picks the exit cell on a's border and the entry cell on b's border.
// Cases are checked in order: b to the right, b to the left, b above, otherwise
// below. Equal centers fall through to the last case.
func Doorways(a, b Room) (x1, y1, x2, y2 int) {
	switch {
	case b.CenterX > a.CenterX:
		x1, y1 = a.StartX+a.Width, a.StartY+a.Height/2
		x2, y2 = b.StartX-1, b.StartY+b.Height/2
	case a.CenterX > b.CenterX:
		x1, y1 = a.StartX-1, a.StartY+a.Height/2
		x2, y2 = b.StartX+b.Width, b.StartY+b.Height/2
	case b.CenterY > a.CenterY:
		x1, y1 = a.StartX+a.Width/2, a.StartY+a.Height
		x2, y2 = b.StartX+b.Width/2, b.StartY-1
	default:
		x1, y1 = a.StartX+a.Width/2, a.StartY-1
		x2, y2 = b.StartX+b.Width/2, b.StartY+b.Height
	}
	return x1, y1, x2, y2
}

// CarveHallway joins a and b with a two-segment path: horizontal along the exit
// row, then vertical along the entry column. The bend is at (x2, y1). Carving
// the same pair twice leaves the grid unchanged.
func CarveHallway(g Grid, a, b Room, mode CarveMode) {
	x1, y1, x2, y2 := Doorways(a, b)

	openDoor(g, x1, y1)
	openDoor(g, x2, y2)

	lo, hi := mathx.MinMax(x1, x2)
	for x := lo; x <= hi; x++ {
		carveCell(g, x, y1, mode)
	}
	lo, hi = mathx.MinMax(y1, y2)
	for y := lo; y <= hi; y++ {
		carveCell(g, x2, y, mode)
	}
}

func openDoor(g Grid, x, y int) {
	if k := g.Get(x, y); k == tile.Empty || k == tile.Wall {
		g.Set(x, y, tile.Floor)
	}
}

func carveCell(g Grid, x, y int, mode CarveMode) {
	switch g.Get(x, y) {
	case tile.Empty:
		g.Set(x, y, tile.Floor)
	case tile.Wall:
		if mode == CarvePierce {
			g.Set(x, y, tile.Floor)
		}
	}
}
