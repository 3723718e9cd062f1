package world

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"dungeoncraft.ai/internal/sim/tuning"
	"dungeoncraft.ai/internal/sim/world/dungeon"
	"dungeoncraft.ai/internal/sim/world/terrain/store"
)

var ErrOutOfBounds = errors.New("world: chunk outside world boundary")

type WorldConfig struct {
	ID      string
	Seed    int64
	Dungeon dungeon.Config

	// Stitch joins each new chunk's anchor room to the anchors of generated
	// orthogonal neighbours.
	Stitch bool

	// BoundaryChunks limits chunk coordinates to [-B, B] on both axes. Zero
	// means unbounded.
	BoundaryChunks int
}

func ConfigFromTuning(id string, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:             id,
		Seed:           t.Seed,
		Dungeon:        t.DungeonConfig(),
		Stitch:         t.Stitch,
		BoundaryChunks: t.BoundaryChunks,
	}
}

func (c WorldConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("world: empty id")
	}
	if c.BoundaryChunks < 0 {
		return fmt.Errorf("world: negative boundary %d", c.BoundaryChunks)
	}
	if err := c.Dungeon.Validate(); err != nil {
		return err
	}
	if c.BoundaryChunks > c.chunkLimit() {
		return fmt.Errorf("world: boundary %d exceeds chunk limit %d", c.BoundaryChunks, c.chunkLimit())
	}
	return nil
}

// chunkLimit is the largest |cx| or |cy| whose chunk extent is addressable
// as int cell coordinates, even in an unbounded world.
func (c WorldConfig) chunkLimit() int {
	if c.Dungeon.ChunkSize <= 0 {
		return 0
	}
	return math.MaxInt/c.Dungeon.ChunkSize - 1
}

func (c WorldConfig) inside(cx, cy int) bool {
	limit := c.chunkLimit()
	if cx < -limit || cx > limit || cy < -limit || cy > limit {
		return false
	}
	if c.BoundaryChunks <= 0 {
		return true
	}
	b := c.BoundaryChunks
	return cx >= -b && cx <= b && cy >= -b && cy <= b
}

func (c WorldConfig) boardBounds() *store.Bounds {
	if c.BoundaryChunks <= 0 {
		return nil
	}
	s := c.Dungeon.ChunkSize
	b := c.BoundaryChunks
	return &store.Bounds{
		MinX: -b * s,
		MinY: -b * s,
		MaxX: (b+1)*s - 1,
		MaxY: (b+1)*s - 1,
	}
}
