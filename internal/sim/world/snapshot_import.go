package world

import (
	"fmt"
	"log"

	"dungeoncraft.ai/internal/persistence/snapshot"
	"dungeoncraft.ai/internal/sim/world/dungeon"
	"dungeoncraft.ai/internal/sim/world/terrain/store"
)

// ConfigFromSnapshot recovers the generation parameters a snapshot was taken with.
func ConfigFromSnapshot(snap snapshot.SnapshotV1) (WorldConfig, error) {
	carve, err := dungeon.ParseCarveMode(snap.Carve)
	if err != nil {
		return WorldConfig{}, err
	}
	return WorldConfig{
		ID:   snap.Header.WorldID,
		Seed: snap.Seed,
		Dungeon: dungeon.Config{
			ChunkSize:       snap.ChunkSize,
			Rooms:           snap.RoomsPerChunk,
			MinRoomSize:     snap.MinRoomSize,
			MaxRoomSize:     snap.MaxRoomSize,
			AttemptsPerRoom: snap.AttemptsPerRoom,
			Carve:           carve,
		},
		Stitch:         snap.Stitch,
		BoundaryChunks: snap.BoundaryChunks,
	}, nil
}

// FromSnapshot rebuilds a world, its board and chunk records, from a snapshot.
func FromSnapshot(snap snapshot.SnapshotV1, logger *log.Logger) (*World, error) {
	cfg, err := ConfigFromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	w, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	board, err := store.ImportTiles(cfg.boardBounds(), snap.Tiles)
	if err != nil {
		return nil, err
	}
	w.board = board
	w.links = snap.Links

	for _, c := range snap.Chunks {
		k := ChunkKey{CX: c.CX, CY: c.CY}
		if _, dup := w.chunks[k]; dup {
			return nil, fmt.Errorf("snapshot chunk (%d,%d) listed twice", k.CX, k.CY)
		}
		if !cfg.inside(k.CX, k.CY) {
			return nil, fmt.Errorf("snapshot chunk (%d,%d): %w", k.CX, k.CY, ErrOutOfBounds)
		}
		ox, oy := w.Origin(k.CX, k.CY)
		if c.OriginX != ox || c.OriginY != oy {
			return nil, fmt.Errorf("snapshot chunk (%d,%d) origin mismatch: got (%d,%d) want (%d,%d)", k.CX, k.CY, c.OriginX, c.OriginY, ox, oy)
		}
		rooms := make([]dungeon.Room, 0, len(c.Rooms))
		for _, r := range c.Rooms {
			rooms = append(rooms, dungeon.NewRoom(r.StartX, r.StartY, r.Width, r.Height))
		}
		edges := make([]dungeon.Edge, 0, len(c.Hallways))
		for _, h := range c.Hallways {
			if h.From < 0 || h.To < 0 || h.From >= len(rooms) || h.To >= len(rooms) {
				return nil, fmt.Errorf("snapshot chunk (%d,%d) hallway %d->%d references missing room", k.CX, k.CY, h.From, h.To)
			}
			edges = append(edges, dungeon.Edge{From: h.From, To: h.To, Weight: h.Weight})
		}
		ch := dungeon.Restore(c.OriginX, c.OriginY, c.Attempts, rooms, edges)
		w.chunks[k] = ch
	}
	return w, nil
}
