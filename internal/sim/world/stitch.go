package world

import "dungeoncraft.ai/internal/sim/world/dungeon"

// neighbours in the order links are attempted.
var neighbours = [4]ChunkKey{{CX: -1}, {CY: -1}, {CX: 1}, {CY: 1}}

// stitchLocked joins key's anchor room to each generated orthogonal neighbour
// that has one. Stitching always pierces: the path may cross rooms the two
// chunks placed near their shared edge.
func (w *World) stitchLocked(key ChunkKey, ch *dungeon.Chunk) []ChunkKey {
	anchor, ok := ch.AnchorRoom()
	if !ok {
		return nil
	}
	var linked []ChunkKey
	for _, d := range neighbours {
		nk := ChunkKey{CX: key.CX + d.CX, CY: key.CY + d.CY}
		other, ok := w.chunks[nk]
		if !ok {
			continue
		}
		target, ok := other.AnchorRoom()
		if !ok {
			continue
		}
		dungeon.CarveHallway(w.board, target, anchor, dungeon.CarvePierce)
		linked = append(linked, nk)
		w.links++
	}
	return linked
}
