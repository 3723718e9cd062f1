package world

import (
	"sort"

	"dungeoncraft.ai/internal/persistence/snapshot"
	"dungeoncraft.ai/internal/sim/world/dungeon"
	"dungeoncraft.ai/internal/sim/world/terrain/store"
)

func (w *World) sortedKeysLocked() []ChunkKey {
	keys := make([]ChunkKey, 0, len(w.chunks))
	for k := range w.chunks {
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

func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := w.cfg.Dungeon
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Seed:    w.cfg.Seed,
			Chunks:  len(w.chunks),
		},
		Seed:            w.cfg.Seed,
		ChunkSize:       d.ChunkSize,
		RoomsPerChunk:   d.Rooms,
		MinRoomSize:     d.MinRoomSize,
		MaxRoomSize:     d.MaxRoomSize,
		AttemptsPerRoom: d.AttemptsPerRoom,
		Carve:           d.Carve.String(),
		Stitch:          w.cfg.Stitch,
		Links:           w.links,
		BoundaryChunks:  w.cfg.BoundaryChunks,
		Tiles:           store.ExportTiles(w.board),
	}
	for _, k := range w.sortedKeysLocked() {
		ch := w.chunks[k]
		snap.Chunks = append(snap.Chunks, exportChunk(k, ch))
	}
	return snap
}

func exportChunk(k ChunkKey, ch *dungeon.Chunk) snapshot.DungeonChunkV1 {
	out := snapshot.DungeonChunkV1{
		CX:       k.CX,
		CY:       k.CY,
		OriginX:  ch.OriginX,
		OriginY:  ch.OriginY,
		Attempts: ch.Attempts(),
	}
	for _, r := range ch.Rooms() {
		out.Rooms = append(out.Rooms, snapshot.RoomV1{StartX: r.StartX, StartY: r.StartY, Width: r.Width, Height: r.Height})
	}
	for _, e := range ch.Hallways() {
		out.Hallways = append(out.Hallways, snapshot.HallwayV1{From: e.From, To: e.To, Weight: e.Weight})
	}
	return out
}
