package world

import (
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"sync"

	"dungeoncraft.ai/internal/sim/world/dungeon"
	"dungeoncraft.ai/internal/sim/world/logic/rng"
	"dungeoncraft.ai/internal/sim/world/terrain/store"
	"dungeoncraft.ai/internal/sim/world/terrain/tile"
)

type ChunkKey struct {
	CX int `json:"cx"`
	CY int `json:"cy"`
}

// ChunkEvent describes one freshly generated chunk.
type ChunkEvent struct {
	WorldID  string         `json:"world_id"`
	CX       int            `json:"cx"`
	CY       int            `json:"cy"`
	OriginX  int            `json:"origin_x"`
	OriginY  int            `json:"origin_y"`
	Attempts int            `json:"attempts"`
	Rooms    []dungeon.Room `json:"rooms"`
	Hallways []dungeon.Edge `json:"hallways"`
	Links    []ChunkKey     `json:"links,omitempty"`
}

type Stats struct {
	Chunks   int `json:"chunks"`
	Empty    int `json:"empty_chunks"`
	Rooms    int `json:"rooms"`
	Hallways int `json:"hallways"`
	Links    int `json:"links"`
	Floor    int `json:"floor"`
	Wall     int `json:"wall"`
}

// World owns the shared board and every chunk generated on it. Chunk
// construction is serialized by mu, which is the board's only writer.
type World struct {
	cfg WorldConfig
	log *log.Logger

	mu        sync.Mutex
	board     *store.Board
	chunks    map[ChunkKey]*dungeon.Chunk
	links     int
	observers []func(ChunkEvent)
}

func New(cfg WorldConfig, logger *log.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &World{
		cfg:    cfg,
		log:    logger,
		board:  store.NewBoard(cfg.boardBounds()),
		chunks: map[ChunkKey]*dungeon.Chunk{},
	}, nil
}

func (w *World) ID() string { return w.cfg.ID }
func (w *World) Config() WorldConfig { return w.cfg }
func (w *World) Board() dungeon.Grid { return lockedGrid{w} }
func (w *World) ChunkSize() int { return w.cfg.Dungeon.ChunkSize }
func (w *World) Inside(cx, cy int) bool { return w.cfg.inside(cx, cy) }

// Observe registers fn to receive every generated chunk. fn runs on the
// generating goroutine after the world lock is released.
func (w *World) Observe(fn func(ChunkEvent)) {
	w.mu.Lock()
	w.observers = append(w.observers, fn)
	w.mu.Unlock()
}

func (w *World) Origin(cx, cy int) (int, int) {
	return cx * w.cfg.Dungeon.ChunkSize, cy * w.cfg.Dungeon.ChunkSize
}

// EnsureChunk returns the chunk at (cx, cy), generating it on first use. The
// bool reports whether this call generated it.
func (w *World) EnsureChunk(cx, cy int) (*dungeon.Chunk, bool, error) {
	if !w.cfg.inside(cx, cy) {
		return nil, false, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, cx, cy)
	}

	ch, ev, observers, err := w.generate(cx, cy)
	if err != nil || observers == nil {
		return ch, false, err
	}

	if len(ev.Rooms) < w.cfg.Dungeon.Rooms {
		w.log.Printf("chunk (%d,%d): placed %d/%d rooms in %d attempts", cx, cy, len(ev.Rooms), w.cfg.Dungeon.Rooms, ev.Attempts)
	}
	for _, fn := range observers {
		fn(ev)
	}
	return ch, true, nil
}

// generate builds the chunk under the world lock. A nil observer slice means
// the chunk already existed.
func (w *World) generate(cx, cy int) (*dungeon.Chunk, ChunkEvent, []func(ChunkEvent), error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := ChunkKey{CX: cx, CY: cy}
	if ch, ok := w.chunks[key]; ok {
		return ch, ChunkEvent{}, nil, nil
	}

	ox, oy := w.Origin(cx, cy)
	ch, err := dungeon.NewChunk(ox, oy, w.board, rng.ForChunk(w.cfg.Seed, cx, cy), w.cfg.Dungeon)
	if err != nil {
		return nil, ChunkEvent{}, nil, fmt.Errorf("chunk (%d,%d): %w", cx, cy, err)
	}
	w.chunks[key] = ch

	var links []ChunkKey
	if w.cfg.Stitch {
		links = w.stitchLocked(key, ch)
	}
	ev := ChunkEvent{
		WorldID:  w.cfg.ID,
		CX:       cx,
		CY:       cy,
		OriginX:  ox,
		OriginY:  oy,
		Attempts: ch.Attempts(),
		Rooms:    ch.Rooms(),
		Hallways: ch.Hallways(),
		Links:    links,
	}
	return ch, ev, append([]func(ChunkEvent){}, w.observers...), nil
}

// GenerateRegion ensures every chunk in the inclusive rectangle, row by row.
// It returns how many chunks were newly generated.
func (w *World) GenerateRegion(minCX, minCY, maxCX, maxCY int) (int, error) {
	limit := w.cfg.chunkLimit()
	minCX, maxCX = max(minCX, -limit), min(maxCX, limit)
	minCY, maxCY = max(minCY, -limit), min(maxCY, limit)
	n := 0
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			if !w.cfg.inside(cx, cy) {
				continue
			}
			_, created, err := w.EnsureChunk(cx, cy)
			if err != nil {
				return n, err
			}
			if created {
				n++
			}
		}
	}
	return n, nil
}

// Chunk returns an already generated chunk.
func (w *World) Chunk(cx, cy int) (*dungeon.Chunk, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch, ok := w.chunks[ChunkKey{CX: cx, CY: cy}]
	return ch, ok
}

func (w *World) Keys() []ChunkKey {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sortedKeysLocked()
}

// Tiles copies the size×size square starting at (x, y), row-major.
func (w *World) Tiles(x, y, size int) []tile.Kind {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]tile.Kind, 0, size*size)
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			out = append(out, w.board.Get(x+dx, y+dy))
		}
	}
	return out
}

func (w *World) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Stats{Chunks: len(w.chunks), Links: w.links}
	for _, ch := range w.chunks {
		rooms := len(ch.Rooms())
		if rooms == 0 {
			s.Empty++
		}
		s.Rooms += rooms
		s.Hallways += len(ch.Hallways())
	}
	s.Floor = w.board.Count(tile.Floor)
	s.Wall = w.board.Count(tile.Wall)
	return s
}

func (w *World) Digest() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := w.board.Digest()
	return hex.EncodeToString(d[:])
}

// lockedGrid serializes external access to the board with chunk generation.
type lockedGrid struct{ w *World }

func (g lockedGrid) Get(x, y int) tile.Kind {
	g.w.mu.Lock()
	defer g.w.mu.Unlock()
	return g.w.board.Get(x, y)
}

func (g lockedGrid) Set(x, y int, k tile.Kind) {
	g.w.mu.Lock()
	defer g.w.mu.Unlock()
	g.w.board.Set(x, y, k)
}
