package store

import (
	"fmt"

	snapv1 "dungeoncraft.ai/internal/persistence/snapshot"
	"dungeoncraft.ai/internal/sim/world/terrain/tile"
)

// ExportTiles converts allocated storage chunks into snapshot rows in key order.
func ExportTiles(b *Board) []snapv1.TileChunkV1 {
	keys := b.LoadedChunkKeys()
	out := make([]snapv1.TileChunkV1, 0, len(keys))
	for _, k := range keys {
		ch := b.Chunks[k]
		tiles := make([]uint8, len(ch.Tiles))
		for i, t := range ch.Tiles {
			tiles[i] = uint8(t)
		}
		out = append(out, snapv1.TileChunkV1{CX: k.CX, CY: k.CY, Edge: ChunkEdge, Tiles: tiles})
	}
	return out
}

// ImportTiles rebuilds a board from snapshot rows.
func ImportTiles(bounds *Bounds, rows []snapv1.TileChunkV1) (*Board, error) {
	b := NewBoard(bounds)
	for _, row := range rows {
		if row.Edge != ChunkEdge {
			return nil, fmt.Errorf("snapshot chunk edge mismatch: got %d want %d", row.Edge, ChunkEdge)
		}
		if len(row.Tiles) != ChunkEdge*ChunkEdge {
			return nil, fmt.Errorf("snapshot chunk tiles length mismatch: got %d want %d", len(row.Tiles), ChunkEdge*ChunkEdge)
		}
		k := ChunkKey{CX: row.CX, CY: row.CY}
		if _, dup := b.Chunks[k]; dup {
			return nil, fmt.Errorf("snapshot chunk (%d,%d) listed twice", k.CX, k.CY)
		}
		ch := newChunk(row.CX, row.CY)
		for i, v := range row.Tiles {
			kind := tile.Kind(v)
			if !kind.Valid() {
				return nil, fmt.Errorf("snapshot chunk (%d,%d) has invalid tile %d at %d", k.CX, k.CY, v, i)
			}
			ch.Tiles[i] = kind
		}
		_ = ch.Digest()
		b.Chunks[k] = ch
	}
	return b, nil
}
