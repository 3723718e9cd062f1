package dungeon

import (
	"fmt"
	"math"
)

// Config controls a single chunk build.
type Config struct {
	ChunkSize       int
	Rooms           int
	MinRoomSize     int
	MaxRoomSize     int
	AttemptsPerRoom int
	Carve           CarveMode
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:       10,
		Rooms:           3,
		MinRoomSize:     2,
		MaxRoomSize:     4,
		AttemptsPerRoom: 5,
		Carve:           CarveStrict,
	}
}

// Validate rejects parameters that would produce an empty or inverted
// placement range.
func (c Config) Validate() error {
	switch {
	case c.MinRoomSize < 1:
		return fmt.Errorf("%w: min room size %d < 1", ErrInvalidConfig, c.MinRoomSize)
	case c.MaxRoomSize < c.MinRoomSize:
		return fmt.Errorf("%w: max room size %d < min room size %d", ErrInvalidConfig, c.MaxRoomSize, c.MinRoomSize)
	case c.ChunkSize < c.MaxRoomSize+2:
		return fmt.Errorf("%w: chunk size %d cannot hold a bordered room of size %d", ErrInvalidConfig, c.ChunkSize, c.MaxRoomSize)
	case c.Rooms < 0:
		return fmt.Errorf("%w: negative room count %d", ErrInvalidConfig, c.Rooms)
	case c.AttemptsPerRoom < 1:
		return fmt.Errorf("%w: attempts per room %d < 1", ErrInvalidConfig, c.AttemptsPerRoom)
	case c.Carve != CarveStrict && c.Carve != CarvePierce:
		return fmt.Errorf("%w: unknown carve mode %d", ErrInvalidConfig, uint8(c.Carve))
	}
	return nil
}

// Chunk is one generated region anchored at its origin.
type Chunk struct {
	OriginX, OriginY int

	rooms    []Room
	hallways []Edge
	attempts int
}

// NewChunk places up to cfg.Rooms rooms in the chunk at (originX, originY),
// giving up after cfg.Rooms*cfg.AttemptsPerRoom tries, and connects them when
// at least two were placed. Fewer rooms than requested is not an error.
func NewChunk(originX, originY int, g Grid, r Rand, cfg Config) (*Chunk, error) {
	if g == nil || r == nil {
		return nil, fmt.Errorf("%w: nil grid or random source", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if originX > math.MaxInt-cfg.ChunkSize || originY > math.MaxInt-cfg.ChunkSize {
		return nil, fmt.Errorf("%w: origin (%d,%d) leaves no room for a chunk of size %d", ErrInvalidConfig, originX, originY, cfg.ChunkSize)
	}

	c := &Chunk{OriginX: originX, OriginY: originY}
	limit := cfg.Rooms * cfg.AttemptsPerRoom
	for len(c.rooms) < cfg.Rooms && c.attempts < limit {
		c.attempts++
		if room, ok := PlaceRoom(g, r, originX, originY, cfg); ok {
			c.rooms = append(c.rooms, room)
		}
	}

	if len(c.rooms) >= 2 {
		edges, err := ConnectRooms(g, c.rooms, cfg.Carve)
		if err != nil {
			return nil, err
		}
		c.hallways = edges
	}
	return c, nil
}

// Restore rebuilds a chunk from persisted rooms and hallways without touching
// any grid.
func Restore(originX, originY, attempts int, rooms []Room, hallways []Edge) *Chunk {
	return &Chunk{
		OriginX:  originX,
		OriginY:  originY,
		rooms:    append([]Room(nil), rooms...),
		hallways: append([]Edge(nil), hallways...),
		attempts: attempts,
	}
}

// AnchorRoom is the first room placed; false when placement produced none.
func (c *Chunk) AnchorRoom() (Room, bool) {
	if len(c.rooms) == 0 {
		return Room{}, false
	}
	return c.rooms[0], true
}

// Rooms returns the placed rooms in creation order.
func (c *Chunk) Rooms() []Room {
	return append([]Room(nil), c.rooms...)
}

func (c *Chunk) Hallways() []Edge {
	return append([]Edge(nil), c.hallways...)
}

func (c *Chunk) Attempts() int { return c.attempts }
