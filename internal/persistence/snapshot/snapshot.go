package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Seed    int64  `json:"seed"`
	Chunks  int    `json:"chunks"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed int64 `json:"seed"`

	// Generation parameters, captured so a resumed world keeps generating
	// compatible chunks.
	ChunkSize       int    `json:"chunk_size"`
	RoomsPerChunk   int    `json:"rooms_per_chunk"`
	MinRoomSize     int    `json:"min_room_size"`
	MaxRoomSize     int    `json:"max_room_size"`
	AttemptsPerRoom int    `json:"attempts_per_room"`
	Carve           string `json:"carve"`
	Stitch          bool   `json:"stitch"`
	Links           int    `json:"links,omitempty"`
	BoundaryChunks  int    `json:"boundary_chunks,omitempty"`

	Tiles  []TileChunkV1    `json:"tiles"`
	Chunks []DungeonChunkV1 `json:"chunks"`
}

// TileChunkV1 is one storage chunk of the board, row-major.
type TileChunkV1 struct {
	CX    int     `json:"cx"`
	CY    int     `json:"cy"`
	Edge  int     `json:"edge"`
	Tiles []uint8 `json:"tiles"`
}

type DungeonChunkV1 struct {
	CX       int         `json:"cx"`
	CY       int         `json:"cy"`
	OriginX  int         `json:"origin_x"`
	OriginY  int         `json:"origin_y"`
	Attempts int         `json:"attempts"`
	Rooms    []RoomV1    `json:"rooms"`
	Hallways []HallwayV1 `json:"hallways,omitempty"`
}

type RoomV1 struct {
	StartX int `json:"start_x"`
	StartY int `json:"start_y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type HallwayV1 struct {
	From   int `json:"from"`
	To     int `json:"to"`
	Weight int `json:"weight"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadHeader decodes only the leading JSON line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
