package tuning

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"dungeoncraft.ai/internal/sim/world/dungeon"
)

type Tuning struct {
	Seed int64 `yaml:"seed"`

	ChunkSize       int `yaml:"chunk_size" validate:"min=3"`
	RoomsPerChunk   int `yaml:"rooms_per_chunk" validate:"min=0,max=64"`
	AttemptsPerRoom int `yaml:"attempts_per_room" validate:"min=1,max=100"`
	MinRoomSize     int `yaml:"min_room_size" validate:"min=1"`
	MaxRoomSize     int `yaml:"max_room_size" validate:"gtefield=MinRoomSize"`

	// Carve is "strict" or "pierce".
	Carve string `yaml:"carve" validate:"oneof=strict pierce"`

	Stitch         bool `yaml:"stitch"`
	BoundaryChunks int  `yaml:"boundary_chunks" validate:"min=0"`

	// InitialRadius chunks around the origin are generated at startup.
	InitialRadius       int `yaml:"initial_radius" validate:"min=0"`
	SnapshotEverySecs   int `yaml:"snapshot_every_secs" validate:"min=0"`
	MaxChunksPerClient  int `yaml:"max_chunks_per_client" validate:"min=0"`
	ChunkRequestsPerSec int `yaml:"chunk_requests_per_sec" validate:"min=0"`
}

func Defaults() Tuning {
	d := dungeon.DefaultConfig()
	return Tuning{
		Seed:                1337,
		ChunkSize:           d.ChunkSize,
		RoomsPerChunk:       d.Rooms,
		AttemptsPerRoom:     d.AttemptsPerRoom,
		MinRoomSize:         d.MinRoomSize,
		MaxRoomSize:         d.MaxRoomSize,
		Carve:               "pierce",
		Stitch:              true,
		BoundaryChunks:      0,
		InitialRadius:       1,
		SnapshotEverySecs:   300,
		MaxChunksPerClient:  4096,
		ChunkRequestsPerSec: 64,
	}
}

// Load reads a yaml file over Defaults, so omitted keys keep their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

var validate = validator.New()

func (t Tuning) Validate() error {
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return err
	}
	if err := t.DungeonConfig().Validate(); err != nil {
		return err
	}
	return nil
}

func (t Tuning) CarveMode() dungeon.CarveMode {
	m, _ := dungeon.ParseCarveMode(t.Carve)
	return m
}

func (t Tuning) DungeonConfig() dungeon.Config {
	return dungeon.Config{
		ChunkSize:       t.ChunkSize,
		Rooms:           t.RoomsPerChunk,
		MinRoomSize:     t.MinRoomSize,
		MaxRoomSize:     t.MaxRoomSize,
		AttemptsPerRoom: t.AttemptsPerRoom,
		Carve:           t.CarveMode(),
	}
}

// ApplyEnv overrides fields from DG_* variables. lookup is usually os.LookupEnv.
func ApplyEnv(t *Tuning, lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"DG_CHUNK_SIZE", &t.ChunkSize},
		{"DG_ROOMS_PER_CHUNK", &t.RoomsPerChunk},
		{"DG_ATTEMPTS_PER_ROOM", &t.AttemptsPerRoom},
		{"DG_BOUNDARY_CHUNKS", &t.BoundaryChunks},
		{"DG_INITIAL_RADIUS", &t.InitialRadius},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}
	if v, ok := lookup("DG_SEED"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("DG_SEED: %w", err)
		}
		t.Seed = n
	}
	if v, ok := lookup("DG_CARVE"); ok && strings.TrimSpace(v) != "" {
		t.Carve = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("DG_STITCH"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("DG_STITCH: %w", err)
		}
		t.Stitch = b
	}
	return nil
}
