package protocol

import "dungeoncraft.ai/internal/sim/world/dungeon"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldID         string      `json:"world_id"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	Seed            int64  `json:"seed"`
	ChunkSize       int    `json:"chunk_size"`
	RoomsPerChunk   int    `json:"rooms_per_chunk"`
	MinRoomSize     int    `json:"min_room_size"`
	MaxRoomSize     int    `json:"max_room_size"`
	AttemptsPerRoom int    `json:"attempts_per_room"`
	Carve           string `json:"carve"`
	Stitch          bool   `json:"stitch"`
	BoundaryChunks  int    `json:"boundary_chunks"`
}

// CHUNK_REQ (client -> server)
type ChunkReqMsg struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	CX   int    `json:"cx"`
	CY   int    `json:"cy"`
}

// CHUNK (server -> client). Tiles are row-major tile names, Size*Size long.
type ChunkMsg struct {
	Type      string         `json:"type"`
	ID        string         `json:"id,omitempty"`
	CX        int            `json:"cx"`
	CY        int            `json:"cy"`
	OriginX   int            `json:"origin_x"`
	OriginY   int            `json:"origin_y"`
	Size      int            `json:"size"`
	Generated bool           `json:"generated"`
	Attempts  int            `json:"attempts"`
	Tiles     []string       `json:"tiles"`
	Rooms     []dungeon.Room `json:"rooms"`
	Hallways  []dungeon.Edge `json:"hallways"`
	Anchor    *dungeon.Room  `json:"anchor,omitempty"`
}

// STATS (server -> client)
type StatsMsg struct {
	Type     string `json:"type"`
	Chunks   int    `json:"chunks"`
	Empty    int    `json:"empty_chunks"`
	Rooms    int    `json:"rooms"`
	Hallways int    `json:"hallways"`
	Links    int    `json:"links"`
	Floor    int    `json:"floor"`
	Wall     int    `json:"wall"`
	Digest   string `json:"digest"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewError(id, code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ID: id, Code: code, Message: msg}
}
