package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dungeoncraft.ai/internal/persistence/indexdb"
	"dungeoncraft.ai/internal/persistence/snapshot"
	"dungeoncraft.ai/internal/sim/world"
)

type runtimeIndex interface {
	RecordChunk(ev world.ChunkEvent)
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
	SetMeta(key, value string) error
	Stats() indexdb.Stats
	Close() error
}

func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("DG_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", "world.sqlite")
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported DG_INDEX_BACKEND: %s", backend)
	}
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}
