package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"dungeoncraft.ai/internal/persistence/snapshot"
	"dungeoncraft.ai/internal/sim/world"
	"dungeoncraft.ai/internal/sim/world/dungeon"
)

func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to .snap.zst")
		eventsDir = flag.String("events", "", "events dir containing chunks-*.jsonl.zst (optional)")
		check     = flag.Bool("check", true, "verify per-chunk room connectivity")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	w, err := world.FromSnapshot(snap, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "import snapshot:", err)
		os.Exit(1)
	}
	st := w.Stats()
	fmt.Printf("snapshot v%d world=%s seed=%d chunk_size=%d carve=%s stitch=%v chunks=%d empty=%d rooms=%d hallways=%d links=%d floor=%d wall=%d\n",
		snap.Header.Version, snap.Header.WorldID, snap.Seed, snap.ChunkSize, snap.Carve, snap.Stitch,
		st.Chunks, st.Empty, st.Rooms, st.Hallways, st.Links, st.Floor, st.Wall)
	fmt.Printf("digest=%s\n", w.Digest())

	if *check {
		bad := disconnectedChunks(w)
		for _, k := range bad {
			fmt.Printf("chunk (%d,%d): rooms not connected\n", k.CX, k.CY)
		}
		// Strict carving may leave a chunk split; only pierce guarantees it.
		if len(bad) > 0 && w.Config().Dungeon.Carve == dungeon.CarvePierce {
			os.Exit(1)
		}
		fmt.Printf("connectivity: %d/%d chunks connected\n", st.Chunks-len(bad), st.Chunks)
	}

	if *eventsDir == "" {
		return
	}

	cfg, err := world.ConfigFromSnapshot(snap)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	files, err := listEventFiles(*eventsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	replayed, checked, err := replayEvents(cfg, files, len(snap.Chunks))
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	if replayed.Digest() != w.Digest() {
		fmt.Fprintf(os.Stderr, "digest mismatch: replay=%s snapshot=%s\n", replayed.Digest(), w.Digest())
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d chunks\n", checked)
}

func disconnectedChunks(w *world.World) []world.ChunkKey {
	var bad []world.ChunkKey
	for _, k := range w.Keys() {
		ch, _ := w.Chunk(k.CX, k.CY)
		if !dungeon.Connected(w.Board(), ch.Rooms()) {
			bad = append(bad, k)
		}
	}
	return bad
}

func listEventFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "chunks-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// replayEvents regenerates chunks in logged order on a fresh world and checks
// each against its record. It stops after limit chunks when limit > 0.
func replayEvents(cfg world.WorldConfig, files []string, limit int) (*world.World, int, error) {
	w, err := world.New(cfg, nil)
	if err != nil {
		return nil, 0, err
	}
	checked := 0
	for _, path := range files {
		done, err := replayFile(w, path, limit, &checked)
		if err != nil {
			return nil, checked, err
		}
		if done {
			break
		}
	}
	return w, checked, nil
}

func replayFile(w *world.World, path string, limit int, checked *int) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return false, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		if limit > 0 && *checked >= limit {
			return true, nil
		}
		var ev world.ChunkEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return false, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		ch, created, err := w.EnsureChunk(ev.CX, ev.CY)
		if err != nil {
			return false, err
		}
		if !created {
			return false, fmt.Errorf("chunk (%d,%d) logged twice (file=%s)", ev.CX, ev.CY, filepath.Base(path))
		}
		if err := sameChunk(ev, ch); err != nil {
			return false, fmt.Errorf("chunk (%d,%d): %w", ev.CX, ev.CY, err)
		}
		*checked++
	}
	return false, sc.Err()
}

func sameChunk(ev world.ChunkEvent, ch *dungeon.Chunk) error {
	if ev.Attempts != ch.Attempts() {
		return fmt.Errorf("attempts: got=%d want=%d", ch.Attempts(), ev.Attempts)
	}
	rooms := ch.Rooms()
	if len(rooms) != len(ev.Rooms) {
		return fmt.Errorf("rooms: got=%d want=%d", len(rooms), len(ev.Rooms))
	}
	for i := range rooms {
		if rooms[i] != ev.Rooms[i] {
			return fmt.Errorf("room %d: got=%+v want=%+v", i, rooms[i], ev.Rooms[i])
		}
	}
	halls := ch.Hallways()
	if len(halls) != len(ev.Hallways) {
		return fmt.Errorf("hallways: got=%d want=%d", len(halls), len(ev.Hallways))
	}
	for i := range halls {
		a, b := halls[i], ev.Hallways[i]
		if a.From != b.From || a.To != b.To || a.Weight != b.Weight {
			return fmt.Errorf("hallway %d: got=%d-%d/%d want=%d-%d/%d", i, a.From, a.To, a.Weight, b.From, b.To, b.Weight)
		}
	}
	return nil
}
