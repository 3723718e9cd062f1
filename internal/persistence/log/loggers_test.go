package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"dungeoncraft.ai/internal/sim/world"
	"dungeoncraft.ai/internal/sim/world/dungeon"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()
	var lines []string
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return lines
}

func TestChunkLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	l := NewChunkLogger(dir)
	l.w.now = func() time.Time { return time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC) }

	for i := 0; i < 3; i++ {
		ev := world.ChunkEvent{WorldID: "w", CX: i, Rooms: []dungeon.Room{dungeon.NewRoom(1, 1, 2, 2)}}
		if err := l.WriteChunk(ev); err != nil {
			t.Fatalf("WriteChunk: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "events", "chunks-2026-03-01-14.jsonl.zst"))
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	var ev world.ChunkEvent
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.CX != 2 || len(ev.Rooms) != 1 || ev.Rooms[0].CenterX != 2 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestJSONLZstdWriterRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x")
	now := time.Date(2026, 3, 1, 9, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(map[string]int{"a": 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"a": 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "x-*.jsonl.zst"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 hourly files, got %v", matches)
	}
	if got := readLines(t, filepath.Join(dir, "x-2026-03-01-10.jsonl.zst")); len(got) != 1 {
		t.Fatalf("expected 1 line in second hour, got %d", len(got))
	}
}
