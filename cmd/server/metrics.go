package main

import (
	"fmt"
	"io"

	"dungeoncraft.ai/internal/sim/world"
)

// writeMetrics renders a minimal Prometheus exposition.
func writeMetrics(w io.Writer, worldID string, s world.Stats, idx runtimeIndex) {
	gauge := func(name, help string, v int) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		fmt.Fprintf(w, "%s{world=%q} %d\n", name, worldID, v)
	}
	gauge("dungeon_chunks", "Generated chunk count.", s.Chunks)
	gauge("dungeon_empty_chunks", "Generated chunks that placed no room.", s.Empty)
	gauge("dungeon_rooms", "Placed room count.", s.Rooms)
	gauge("dungeon_hallways", "Intra-chunk hallway count.", s.Hallways)
	gauge("dungeon_links", "Cross-chunk hallway count.", s.Links)
	gauge("dungeon_floor_tiles", "Floor tile count.", s.Floor)
	gauge("dungeon_wall_tiles", "Wall tile count.", s.Wall)

	if idx == nil {
		return
	}
	st := idx.Stats()
	fmt.Fprintf(w, "# HELP dungeon_index_queue_depth Index writer backlog.\n")
	fmt.Fprintf(w, "# TYPE dungeon_index_queue_depth gauge\n")
	fmt.Fprintf(w, "dungeon_index_queue_depth{world=%q} %d\n", worldID, st.QueueLen)
	fmt.Fprintf(w, "# HELP dungeon_index_dropped_total Index writes dropped on a full queue.\n")
	fmt.Fprintf(w, "# TYPE dungeon_index_dropped_total counter\n")
	fmt.Fprintf(w, "dungeon_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "chunk", st.DropChunkTotal)
	fmt.Fprintf(w, "dungeon_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "snapshot", st.DropSnapshotTotal)
}
