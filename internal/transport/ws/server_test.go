package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"dungeoncraft.ai/internal/protocol"
	"dungeoncraft.ai/internal/sim/world"
	"dungeoncraft.ai/internal/sim/world/dungeon"
	"dungeoncraft.ai/internal/sim/world/logic/rates"
)

func newTestServer(t *testing.T, limits Limits) (*world.World, *websocket.Conn) {
	t.Helper()
	return newBoundedTestServer(t, limits, 2)
}

func newBoundedTestServer(t *testing.T, limits Limits, boundary int) (*world.World, *websocket.Conn) {
	t.Helper()
	dcfg := dungeon.DefaultConfig()
	dcfg.ChunkSize = 12
	dcfg.Carve = dungeon.CarvePierce
	w, err := world.New(world.WorldConfig{ID: "ws_test", Seed: 7, Dungeon: dcfg, Stitch: true, BoundaryChunks: boundary}, nil)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	srv := httptest.NewServer(NewServer(w, nil, limits).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return w, conn
}

func writeJSON(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	if err := c.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readJSON[T any](t *testing.T, c *websocket.Conn) T {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	var v T
	if err := c.ReadJSON(&v); err != nil {
		t.Fatalf("read: %v", err)
	}
	return v
}

func hello(t *testing.T, c *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	writeJSON(t, c, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test"})
	return readJSON[protocol.WelcomeMsg](t, c)
}

func TestServer_HandshakeAndChunk(t *testing.T) {
	w, c := newTestServer(t, Limits{})

	welcome := hello(t, c)
	if welcome.Type != protocol.TypeWelcome || !strings.HasPrefix(welcome.SessionID, "S-") {
		t.Fatalf("unexpected welcome %+v", welcome)
	}
	if welcome.WorldID != "ws_test" || welcome.WorldParams.ChunkSize != 12 || welcome.WorldParams.Carve != "pierce" {
		t.Fatalf("unexpected world params %+v", welcome.WorldParams)
	}

	writeJSON(t, c, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, ID: "r1", CX: 1, CY: -1})
	got := readJSON[protocol.ChunkMsg](t, c)
	if got.Type != protocol.TypeChunk || got.ID != "r1" || !got.Generated {
		t.Fatalf("unexpected chunk reply %+v", got)
	}
	if got.OriginX != 12 || got.OriginY != -12 || got.Size != 12 || len(got.Tiles) != 144 {
		t.Fatalf("unexpected geometry origin=(%d,%d) size=%d tiles=%d", got.OriginX, got.OriginY, got.Size, len(got.Tiles))
	}
	ch, ok := w.Chunk(1, -1)
	if !ok {
		t.Fatalf("expected chunk generated in world")
	}
	if len(got.Rooms) != len(ch.Rooms()) {
		t.Fatalf("expected %d rooms, got %d", len(ch.Rooms()), len(got.Rooms))
	}
	if len(got.Rooms) > 0 && (got.Anchor == nil || *got.Anchor != got.Rooms[0]) {
		t.Fatalf("expected anchor to be first room")
	}
	for i, r := range got.Rooms {
		idx := (r.CenterY-got.OriginY)*got.Size + (r.CenterX - got.OriginX)
		if got.Tiles[idx] != "FLOOR" {
			t.Fatalf("room %d center tile = %s", i, got.Tiles[idx])
		}
	}

	writeJSON(t, c, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, ID: "r2", CX: 1, CY: -1})
	again := readJSON[protocol.ChunkMsg](t, c)
	if again.Generated {
		t.Fatalf("expected cached chunk on second request")
	}
}

func TestServer_Errors(t *testing.T) {
	_, c := newTestServer(t, Limits{MaxChunks: 1})
	hello(t, c)

	writeJSON(t, c, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, ID: "far", CX: 9, CY: 0})
	e := readJSON[protocol.ErrorMsg](t, c)
	if e.Code != protocol.ErrOutOfBounds || e.ID != "far" {
		t.Fatalf("expected out of bounds error, got %+v", e)
	}

	writeJSON(t, c, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, CX: 0, CY: 0})
	if m := readJSON[protocol.ChunkMsg](t, c); m.Type != protocol.TypeChunk {
		t.Fatalf("expected CHUNK, got %s", m.Type)
	}
	writeJSON(t, c, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, CX: 0, CY: 0})
	if m := readJSON[protocol.ChunkMsg](t, c); m.Type != protocol.TypeChunk {
		t.Fatalf("expected repeat fetch allowed, got %s", m.Type)
	}
	writeJSON(t, c, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, ID: "cap", CX: 1, CY: 0})
	if e := readJSON[protocol.ErrorMsg](t, c); e.Code != protocol.ErrRateLimit {
		t.Fatalf("expected rate limit error, got %+v", e)
	}

	writeJSON(t, c, map[string]any{"type": "DANCE"})
	if e := readJSON[protocol.ErrorMsg](t, c); e.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("expected proto error, got %+v", e)
	}

	writeJSON(t, c, map[string]any{"type": protocol.TypeStatsReq})
	st := readJSON[protocol.StatsMsg](t, c)
	if st.Type != protocol.TypeStats || st.Chunks != 1 || len(st.Digest) != 64 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestServer_UnboundedWorldRejectsOverflowingChunk(t *testing.T) {
	_, c := newBoundedTestServer(t, Limits{}, 0)
	hello(t, c)

	writeJSON(t, c, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, ID: "huge", CX: 2767011611056432742, CY: 0})
	if e := readJSON[protocol.ErrorMsg](t, c); e.Code != protocol.ErrOutOfBounds || e.ID != "huge" {
		t.Fatalf("expected out of bounds error, got %+v", e)
	}

	writeJSON(t, c, protocol.ChunkReqMsg{Type: protocol.TypeChunkReq, ID: "near", CX: 0, CY: 0})
	if m := readJSON[protocol.ChunkMsg](t, c); m.Type != protocol.TypeChunk || m.ID != "near" {
		t.Fatalf("expected CHUNK after rejected request, got %+v", m)
	}
}

func TestServer_RejectsBadHello(t *testing.T) {
	_, c := newTestServer(t, Limits{})
	writeJSON(t, c, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.1"})
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := c.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

func TestChunkReply_RequestWindow(t *testing.T) {
	dcfg := dungeon.DefaultConfig()
	w, err := world.New(world.WorldConfig{ID: "rate", Seed: 1, Dungeon: dcfg}, nil)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	srv := NewServer(w, nil, Limits{})
	sess := &session{
		id:     "S-test",
		served: map[world.ChunkKey]struct{}{},
		reqs:   rates.Window{Span: 1 << 62, Max: 2},
	}
	for i := 0; i < 2; i++ {
		if m, ok := srv.chunkReply(sess, protocol.ChunkReqMsg{CX: i}).(protocol.ChunkMsg); !ok || m.CX != i {
			t.Fatalf("request %d: expected CHUNK, got %+v", i, m)
		}
	}
	e, ok := srv.chunkReply(sess, protocol.ChunkReqMsg{ID: "r3", CX: 5}).(protocol.ErrorMsg)
	if !ok || e.Code != protocol.ErrRateLimit || e.ID != "r3" {
		t.Fatalf("expected rate limit error, got %+v", e)
	}
	if _, generated := w.Chunk(5, 0); generated {
		t.Fatalf("limited request must not generate a chunk")
	}
}
