package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"dungeoncraft.ai/internal/protocol"
	"dungeoncraft.ai/internal/sim/world"
	"dungeoncraft.ai/internal/sim/world/logic/rates"
)

type Server struct {
	world *world.World
	log   *log.Logger

	limits Limits

	upgrader websocket.Upgrader
}

// Limits bound what one session may ask for. Zero values disable a limit.
type Limits struct {
	// MaxChunks caps distinct chunks served per session.
	MaxChunks int
	// RequestsPerSecond caps CHUNK_REQ messages per second.
	RequestsPerSecond int
}

func NewServer(w *world.World, logger *log.Logger, limits Limits) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		world:    w,
		log:      logger,
		limits:   limits,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

type session struct {
	id     string
	out    chan []byte
	served map[world.ChunkKey]struct{}
	reqs   rates.Window
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		s.log.Printf("session %s connected from %s", sess.id, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if !s.dispatch(ctx, sess, msg) {
				break
			}
		}
		cancel()
		<-done
		s.log.Printf("session %s closed (%d chunks served)", sess.id, len(sess.served))
	}
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}

	sess := &session{
		id:     "S-" + uuid.NewString(),
		out:    make(chan []byte, 16),
		served: map[world.ChunkKey]struct{}{},
		reqs:   rates.Window{Span: 1000, Max: s.limits.RequestsPerSecond},
	}

	cfg := s.world.Config()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		WorldID:         cfg.ID,
		WorldParams: protocol.WorldParams{
			Seed:            cfg.Seed,
			ChunkSize:       cfg.Dungeon.ChunkSize,
			RoomsPerChunk:   cfg.Dungeon.Rooms,
			MinRoomSize:     cfg.Dungeon.MinRoomSize,
			MaxRoomSize:     cfg.Dungeon.MaxRoomSize,
			AttemptsPerRoom: cfg.Dungeon.AttemptsPerRoom,
			Carve:           cfg.Dungeon.Carve.String(),
			Stitch:          cfg.Stitch,
			BoundaryChunks:  cfg.BoundaryChunks,
		},
	}
	b, _ := json.Marshal(welcome)
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return nil
	}
	return sess
}

// dispatch handles one client message. It returns false when the session
// should end.
func (s *Server) dispatch(ctx context.Context, sess *session, msg []byte) bool {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return s.send(ctx, sess, protocol.NewError("", protocol.ErrProtoBadRequest, "malformed json"))
	}

	switch base.Type {
	case protocol.TypeChunkReq:
		var req protocol.ChunkReqMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			return s.send(ctx, sess, protocol.NewError("", protocol.ErrBadRequest, "bad CHUNK_REQ"))
		}
		return s.send(ctx, sess, s.chunkReply(sess, req))

	case protocol.TypeStatsReq:
		st := s.world.Stats()
		return s.send(ctx, sess, protocol.StatsMsg{
			Type:     protocol.TypeStats,
			Chunks:   st.Chunks,
			Empty:    st.Empty,
			Rooms:    st.Rooms,
			Hallways: st.Hallways,
			Links:    st.Links,
			Floor:    st.Floor,
			Wall:     st.Wall,
			Digest:   s.world.Digest(),
		})

	default:
		return s.send(ctx, sess, protocol.NewError("", protocol.ErrProtoBadRequest, fmt.Sprintf("unknown type %q", base.Type)))
	}
}

func (s *Server) chunkReply(sess *session, req protocol.ChunkReqMsg) any {
	if ok, retry := sess.reqs.Allow(uint64(time.Now().UnixMilli())); !ok {
		return protocol.NewError(req.ID, protocol.ErrRateLimit, fmt.Sprintf("too many requests; retry in %dms", retry))
	}
	key := world.ChunkKey{CX: req.CX, CY: req.CY}
	if _, seen := sess.served[key]; !seen && s.limits.MaxChunks > 0 && len(sess.served) >= s.limits.MaxChunks {
		return protocol.NewError(req.ID, protocol.ErrRateLimit, fmt.Sprintf("session chunk limit %d reached", s.limits.MaxChunks))
	}

	ch, created, err := s.world.EnsureChunk(req.CX, req.CY)
	if errors.Is(err, world.ErrOutOfBounds) {
		return protocol.NewError(req.ID, protocol.ErrOutOfBounds, err.Error())
	}
	if err != nil {
		s.log.Printf("session %s: chunk (%d,%d): %v", sess.id, req.CX, req.CY, err)
		return protocol.NewError(req.ID, protocol.ErrInternal, "chunk generation failed")
	}
	sess.served[key] = struct{}{}

	size := s.world.ChunkSize()
	ox, oy := s.world.Origin(req.CX, req.CY)
	kinds := s.world.Tiles(ox, oy, size)
	tiles := make([]string, len(kinds))
	for i, k := range kinds {
		tiles[i] = k.String()
	}
	m := protocol.ChunkMsg{
		Type:      protocol.TypeChunk,
		ID:        req.ID,
		CX:        req.CX,
		CY:        req.CY,
		OriginX:   ox,
		OriginY:   oy,
		Size:      size,
		Generated: created,
		Attempts:  ch.Attempts(),
		Tiles:     tiles,
		Rooms:     ch.Rooms(),
		Hallways:  ch.Hallways(),
	}
	if a, ok := ch.AnchorRoom(); ok {
		m.Anchor = &a
	}
	return m
}

func (s *Server) send(ctx context.Context, sess *session, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case sess.out <- b:
		return true
	case <-ctx.Done():
		return false
	}
}
