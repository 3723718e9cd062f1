package store

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"dungeoncraft.ai/internal/sim/world/logic/mathx"
	"dungeoncraft.ai/internal/sim/world/terrain/tile"
)

func (b *Board) InBounds(x, y int) bool {
	return b.Bounds == nil || b.Bounds.Contains(x, y)
}

// Get reports Wall outside the bounds so placement there fails instead of
// half-carving, and Empty for cells never written.
func (b *Board) Get(x, y int) tile.Kind {
	if !b.InBounds(x, y) {
		return tile.Wall
	}
	ch, ok := b.Chunks[keyFor(x, y)]
	if !ok {
		return tile.Empty
	}
	return ch.Get(mathx.Mod(x, ChunkEdge), mathx.Mod(y, ChunkEdge))
}

// Set drops writes outside the bounds. Writing Empty into an unallocated chunk
// does not allocate it.
func (b *Board) Set(x, y int, k tile.Kind) {
	if !b.InBounds(x, y) {
		return
	}
	key := keyFor(x, y)
	ch, ok := b.Chunks[key]
	if !ok {
		if k == tile.Empty {
			return
		}
		ch = newChunk(key.CX, key.CY)
		b.Chunks[key] = ch
	}
	ch.Set(mathx.Mod(x, ChunkEdge), mathx.Mod(y, ChunkEdge), k)
}

func keyFor(x, y int) ChunkKey {
	return ChunkKey{CX: mathx.FloorDiv(x, ChunkEdge), CY: mathx.FloorDiv(y, ChunkEdge)}
}

func (b *Board) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(b.Chunks))
	for k := range b.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CX < keys[j].CX
	})
	return keys
}

// Digest folds every allocated chunk's digest in key order.
func (b *Board) Digest() [32]byte {
	h := sha256.New()
	var tmp [8]byte
	for _, k := range b.LoadedChunkKeys() {
		binary.LittleEndian.PutUint32(tmp[0:4], uint32(int32(k.CX)))
		binary.LittleEndian.PutUint32(tmp[4:8], uint32(int32(k.CY)))
		h.Write(tmp[:])
		d := b.Chunks[k].Digest()
		h.Write(d[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Count tallies cells of kind k across allocated chunks, clipped to bounds.
func (b *Board) Count(k tile.Kind) int {
	n := 0
	for key, ch := range b.Chunks {
		for ly := 0; ly < ChunkEdge; ly++ {
			for lx := 0; lx < ChunkEdge; lx++ {
				if ch.Get(lx, ly) != k {
					continue
				}
				if b.InBounds(key.CX*ChunkEdge+lx, key.CY*ChunkEdge+ly) {
					n++
				}
			}
		}
	}
	return n
}
