package store

import (
	"testing"

	"dungeoncraft.ai/internal/sim/world/terrain/tile"
)

func TestBoardGetSetAcrossNegativeCoordinates(t *testing.T) {
	b := NewBoard(nil)
	if b.Get(-5, -5) != tile.Empty {
		t.Fatalf("expected empty for unwritten cell")
	}
	if len(b.Chunks) != 0 {
		t.Fatalf("reads must not allocate chunks")
	}
	b.Set(-1, -1, tile.Floor)
	b.Set(0, 0, tile.Wall)
	if b.Get(-1, -1) != tile.Floor || b.Get(0, 0) != tile.Wall {
		t.Fatalf("unexpected values after set")
	}
	if len(b.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(b.Chunks))
	}
	b.Set(100, 100, tile.Empty)
	if len(b.Chunks) != 2 {
		t.Fatalf("writing empty must not allocate")
	}
}

func TestBoardBounds(t *testing.T) {
	b := NewBoard(&Bounds{MinX: 0, MinY: 0, MaxX: 9, MaxY: 9})
	if b.Get(10, 0) != tile.Wall || b.Get(0, -1) != tile.Wall {
		t.Fatalf("out of bounds must read as wall")
	}
	b.Set(10, 0, tile.Floor)
	if len(b.Chunks) != 0 {
		t.Fatalf("out of bounds write must be dropped")
	}
	b.Set(9, 9, tile.Floor)
	if b.Count(tile.Floor) != 1 {
		t.Fatalf("expected 1 floor, got %d", b.Count(tile.Floor))
	}
}

func TestBoardDigestTracksChanges(t *testing.T) {
	b := NewBoard(nil)
	b.Set(1, 1, tile.Wall)
	d1 := b.Digest()
	b.Set(1, 1, tile.Wall)
	if b.Digest() != d1 {
		t.Fatalf("no-op write changed digest")
	}
	b.Set(1, 1, tile.Floor)
	if b.Digest() == d1 {
		t.Fatalf("expected digest to change")
	}
	keys := b.LoadedChunkKeys()
	if len(keys) != 1 || keys[0] != (ChunkKey{}) {
		t.Fatalf("unexpected keys %+v", keys)
	}
}
