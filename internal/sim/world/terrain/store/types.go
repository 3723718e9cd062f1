package store

import (
	"crypto/sha256"

	"dungeoncraft.ai/internal/sim/world/terrain/tile"
)

// ChunkEdge is the side length of a storage chunk. It is unrelated to the
// dungeon chunk size.
const ChunkEdge = 16

type ChunkKey struct {
	CX int
	CY int
}

type Chunk struct {
	CX, CY int
	Tiles  []tile.Kind // len = ChunkEdge*ChunkEdge, row-major

	dirty bool
	hash  [32]byte
}

func newChunk(cx, cy int) *Chunk {
	return &Chunk{CX: cx, CY: cy, Tiles: make([]tile.Kind, ChunkEdge*ChunkEdge)}
}

func (c *Chunk) index(lx, ly int) int {
	return lx + ly*ChunkEdge
}

func (c *Chunk) Get(lx, ly int) tile.Kind {
	return c.Tiles[c.index(lx, ly)]
}

func (c *Chunk) Set(lx, ly int, k tile.Kind) {
	i := c.index(lx, ly)
	if c.Tiles[i] == k {
		return
	}
	c.Tiles[i] = k
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		buf := make([]byte, len(c.Tiles))
		for i, k := range c.Tiles {
			buf[i] = byte(k)
		}
		c.hash = sha256.Sum256(buf)
		c.dirty = false
	}
	return c.hash
}

// Bounds is an inclusive rectangle of addressable cells.
type Bounds struct {
	MinX, MinY int
	MaxX, MaxY int
}

func (b Bounds) Contains(x, y int) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Board is the shared tile grid: a sparse map of storage chunks addressed by
// absolute coordinate. A nil Bounds makes it unbounded.
type Board struct {
	Bounds *Bounds
	Chunks map[ChunkKey]*Chunk
}

func NewBoard(bounds *Bounds) *Board {
	return &Board{
		Bounds: bounds,
		Chunks: map[ChunkKey]*Chunk{},
	}
}
