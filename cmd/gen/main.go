package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"dungeoncraft.ai/internal/persistence/indexdb"
	"dungeoncraft.ai/internal/persistence/snapshot"
	"dungeoncraft.ai/internal/sim/tuning"
	"dungeoncraft.ai/internal/sim/world"
	"dungeoncraft.ai/internal/sim/world/terrain/tile"
)

func main() {
	var (
		worldID    = flag.String("world", "dungeon_1", "world id")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		envFile    = flag.String("env", "", "optional dotenv file loaded before reading DG_* overrides")
		seed       = flag.Int64("seed", 0, "seed override")
		radius     = flag.Int("radius", -1, "generate chunks in [-r, r] on both axes (default: tuning initial_radius)")
		out        = flag.String("out", "", "write a snapshot to this path (optional)")
		indexPath  = flag.String("index", "", "write a sqlite chunk index to this path (optional)")
		ascii      = flag.Bool("ascii", false, "print the generated region as text")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[gen] ", log.LstdFlags)

	if p := strings.TrimSpace(*envFile); p != "" {
		if err := godotenv.Load(p); err != nil {
			logger.Fatalf("load env file: %v", err)
		}
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		tune = tuning.Defaults()
	}
	if err := tuning.ApplyEnv(&tune, os.LookupEnv); err != nil {
		logger.Fatalf("tuning env: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			tune.Seed = *seed
		}
	})
	r := *radius
	if r < 0 {
		r = tune.InitialRadius
	}

	w, err := world.New(world.ConfigFromTuning(*worldID, tune), logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	var idx *indexdb.SQLiteIndex
	if *indexPath != "" {
		idx, err = indexdb.OpenSQLite(*indexPath)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		w.Observe(idx.RecordChunk)
	}

	if _, err := w.GenerateRegion(-r, -r, r, r); err != nil {
		logger.Fatalf("generate: %v", err)
	}

	if *out != "" {
		snap := w.ExportSnapshot()
		if err := snapshot.WriteSnapshot(*out, snap); err != nil {
			logger.Fatalf("write snapshot: %v", err)
		}
		if idx != nil {
			abs, _ := filepath.Abs(*out)
			idx.RecordSnapshot(abs, snap)
		}
	}
	if idx != nil {
		if err := idx.Close(); err != nil {
			logger.Fatalf("close index: %v", err)
		}
	}

	if *ascii {
		s := w.ChunkSize()
		renderASCII(os.Stdout, w, -r*s, -r*s, (2*r+1)*s)
	}

	summary := struct {
		WorldID string      `json:"world_id"`
		Seed    int64       `json:"seed"`
		Radius  int         `json:"radius"`
		Digest  string      `json:"digest"`
		Stats   world.Stats `json:"stats"`
	}{*worldID, w.Config().Seed, r, w.Digest(), w.Stats()}
	b, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(b))
}

var glyphs = map[tile.Kind]byte{
	tile.Empty: ' ',
	tile.Wall:  '#',
	tile.Floor: '.',
}

// renderASCII prints the size×size square at (x, y) with the top row at the
// highest y.
func renderASCII(out io.Writer, w *world.World, x, y, size int) {
	tiles := w.Tiles(x, y, size)
	line := make([]byte, size+1)
	line[size] = '\n'
	for row := size - 1; row >= 0; row-- {
		for col := 0; col < size; col++ {
			line[col] = glyphs[tiles[row*size+col]]
		}
		_, _ = out.Write(line)
	}
}
