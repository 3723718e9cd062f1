package dungeon

import (
	"encoding/json"

	"dungeoncraft.ai/internal/sim/world/logic/mathx"
)

// Room is the interior rectangle of a placed room. The wall ring sits one cell
// outside it on every side.
//
// The center is derived from the rectangle: build rooms with NewRoom. Decoding
// JSON recomputes it and ignores any encoded center.
type Room struct {
	StartX  int `json:"start_x"`
	StartY  int `json:"start_y"`
	Width   int `json:"width"`
	Height  int `json:"height"`
	CenterX int `json:"center_x"`
	CenterY int `json:"center_y"`
}

func NewRoom(startX, startY, width, height int) Room {
	return Room{
		StartX:  startX,
		StartY:  startY,
		Width:   width,
		Height:  height,
		CenterX: startX + width/2,
		CenterY: startY + height/2,
	}
}

func (r *Room) UnmarshalJSON(b []byte) error {
	var raw struct {
		StartX int `json:"start_x"`
		StartY int `json:"start_y"`
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = NewRoom(raw.StartX, raw.StartY, raw.Width, raw.Height)
	return nil
}

// DistanceTo is the Manhattan distance between room centers.
func (r Room) DistanceTo(o Room) int {
	return mathx.Manhattan(r.CenterX, r.CenterY, o.CenterX, o.CenterY)
}

// Contains reports whether (x, y) is an interior cell.
func (r Room) Contains(x, y int) bool {
	return x >= r.StartX && x < r.StartX+r.Width && y >= r.StartY && y < r.StartY+r.Height
}

// OnBorder reports whether (x, y) is on the one-cell wall ring.
func (r Room) OnBorder(x, y int) bool {
	minX, minY, maxX, maxY := r.Footprint()
	if x < minX || x > maxX || y < minY || y > maxY {
		return false
	}
	return x == minX || x == maxX || y == minY || y == maxY
}

// Footprint is the inclusive rectangle covering the interior and its border.
func (r Room) Footprint() (minX, minY, maxX, maxY int) {
	return r.StartX - 1, r.StartY - 1, r.StartX + r.Width, r.StartY + r.Height
}
