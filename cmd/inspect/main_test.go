package main

import (
	"path/filepath"
	"testing"

	persistlog "dungeoncraft.ai/internal/persistence/log"
	"dungeoncraft.ai/internal/sim/world"
	"dungeoncraft.ai/internal/sim/world/dungeon"
)

func testConfig() world.WorldConfig {
	cfg := dungeon.DefaultConfig()
	cfg.ChunkSize = 12
	cfg.Rooms = 4
	cfg.Carve = dungeon.CarvePierce
	return world.WorldConfig{ID: "inspect", Seed: 99, Dungeon: cfg, Stitch: true}
}

func TestReplayEvents_MatchesLoggedWorld(t *testing.T) {
	dir := t.TempDir()
	w, err := world.New(testConfig(), nil)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	cl := persistlog.NewChunkLogger(dir)
	w.Observe(func(ev world.ChunkEvent) {
		if err := cl.WriteChunk(ev); err != nil {
			t.Errorf("WriteChunk: %v", err)
		}
	})
	// Out-of-order generation exercises stitch replay.
	for _, k := range []world.ChunkKey{{CX: 1, CY: 1}, {CX: 0, CY: 0}, {CX: 1, CY: 0}, {CX: -1, CY: 0}, {CX: 0, CY: 1}} {
		if _, _, err := w.EnsureChunk(k.CX, k.CY); err != nil {
			t.Fatalf("EnsureChunk: %v", err)
		}
	}
	if err := cl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := listEventFiles(filepath.Join(dir, "events"))
	if err != nil || len(files) == 0 {
		t.Fatalf("expected event files, got %v (%v)", files, err)
	}
	replayed, checked, err := replayEvents(testConfig(), files, 0)
	if err != nil {
		t.Fatalf("replayEvents: %v", err)
	}
	if checked != 5 {
		t.Fatalf("expected 5 chunks checked, got %d", checked)
	}
	if replayed.Digest() != w.Digest() {
		t.Fatalf("digest mismatch after replay")
	}

	partial, checked, err := replayEvents(testConfig(), files, 2)
	if err != nil {
		t.Fatalf("replayEvents limit: %v", err)
	}
	if checked != 2 || partial.Stats().Chunks != 2 {
		t.Fatalf("expected replay to stop at 2 chunks, got %d", checked)
	}
}

func TestReplayEvents_DetectsSeedChange(t *testing.T) {
	dir := t.TempDir()
	w, _ := world.New(testConfig(), nil)
	cl := persistlog.NewChunkLogger(dir)
	w.Observe(func(ev world.ChunkEvent) { _ = cl.WriteChunk(ev) })
	if _, err := w.GenerateRegion(0, 0, 2, 2); err != nil {
		t.Fatalf("GenerateRegion: %v", err)
	}
	_ = cl.Close()

	files, _ := listEventFiles(filepath.Join(dir, "events"))
	cfg := testConfig()
	cfg.Seed++
	if _, _, err := replayEvents(cfg, files, 0); err == nil {
		t.Fatalf("expected mismatch for a different seed")
	}
}

func TestDisconnectedChunks_PierceWorldIsClean(t *testing.T) {
	w, _ := world.New(testConfig(), nil)
	if _, err := w.GenerateRegion(-2, -2, 2, 2); err != nil {
		t.Fatalf("GenerateRegion: %v", err)
	}
	if bad := disconnectedChunks(w); len(bad) != 0 {
		t.Fatalf("expected all chunks connected, got %v", bad)
	}
}
