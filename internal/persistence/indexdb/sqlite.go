package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"dungeoncraft.ai/internal/persistence/snapshot"
	"dungeoncraft.ai/internal/sim/world"
)

// SQLiteIndex is a queryable read model of generated chunks. Writes are queued
// and applied by one goroutine in batched transactions; a full queue drops the
// write and counts it.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu orders sends against close(ch): senders hold it shared.
	mu     sync.RWMutex
	closed bool

	dropChunk    atomic.Uint64
	dropSnapshot atomic.Uint64
}

type Stats struct {
	QueueLen          int
	QueueCap          int
	DropChunkTotal    uint64
	DropSnapshotTotal uint64
}

type reqKind int

const (
	reqChunk reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	chunk    world.ChunkEvent
	snapshot snapshotRow
}

type snapshotRow struct {
	Path       string
	WorldID    string
	Seed       int64
	Chunks     int
	Rooms      int
	RecordedAt string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			world_id TEXT NOT NULL,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			origin_x INTEGER NOT NULL,
			origin_y INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			rooms INTEGER NOT NULL,
			hallways INTEGER NOT NULL,
			hallway_weight INTEGER NOT NULL,
			links INTEGER NOT NULL,
			anchor_x INTEGER,
			anchor_y INTEGER,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (world_id, cx, cy)
		);`,
		`CREATE TABLE IF NOT EXISTS rooms (
			world_id TEXT NOT NULL,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			start_x INTEGER NOT NULL,
			start_y INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			PRIMARY KEY (world_id, cx, cy, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_pos ON rooms(start_x, start_y);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			path TEXT PRIMARY KEY,
			world_id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			rooms INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// SetMeta writes a key synchronously.
func (s *SQLiteIndex) SetMeta(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, key, value)
	return err
}

func (s *SQLiteIndex) RecordChunk(ev world.ChunkEvent) {
	if s == nil {
		return
	}
	if !s.enqueue(req{kind: reqChunk, chunk: ev}) {
		s.dropChunk.Add(1)
	}
}

// enqueue reports false only when the queue is full; after Close every
// write is silently discarded.
func (s *SQLiteIndex) enqueue(r req) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- r:
		return true
	default:
		return false
	}
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil {
		return
	}
	rooms := 0
	for _, c := range snap.Chunks {
		rooms += len(c.Rooms)
	}
	r := snapshotRow{
		Path:       path,
		WorldID:    snap.Header.WorldID,
		Seed:       snap.Seed,
		Chunks:     len(snap.Chunks),
		Rooms:      rooms,
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if !s.enqueue(req{kind: reqSnapshot, snapshot: r}) {
		s.dropSnapshot.Add(1)
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueLen:          len(s.ch),
		QueueCap:          cap(s.ch),
		DropChunkTotal:    s.dropChunk.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertChunk, _ := s.db.Prepare(`INSERT OR REPLACE INTO chunks(world_id,cx,cy,origin_x,origin_y,attempts,rooms,hallways,hallway_weight,links,anchor_x,anchor_y,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertRoom, _ := s.db.Prepare(`INSERT OR REPLACE INTO rooms(world_id,cx,cy,idx,start_x,start_y,width,height) VALUES(?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(path,world_id,seed,chunks,rooms,recorded_at) VALUES(?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertChunk, insertRoom, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqChunk:
			if err := writeChunk(tx, insertChunk, insertRoom, r.chunk); err != nil {
				rollback()
				continue
			}
			opCount += 1 + len(r.chunk.Rooms)

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot == nil {
				continue
			}
			if _, err := tx.Stmt(insertSnapshot).Exec(sn.Path, sn.WorldID, sn.Seed, sn.Chunks, sn.Rooms, sn.RecordedAt); err != nil {
				rollback()
				continue
			}
			opCount++
		}

		// Commit on drain, batch size or age.
		if len(s.ch) == 0 || opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
	commit()
}

func writeChunk(tx *sql.Tx, insertChunk, insertRoom *sql.Stmt, ev world.ChunkEvent) error {
	if insertChunk == nil || insertRoom == nil {
		return fmt.Errorf("statements not prepared")
	}
	raw, _ := json.Marshal(ev)
	var anchorX, anchorY any
	if len(ev.Rooms) > 0 {
		anchorX, anchorY = ev.Rooms[0].CenterX, ev.Rooms[0].CenterY
	}
	weight := 0
	for _, h := range ev.Hallways {
		weight += h.Weight
	}
	if _, err := tx.Stmt(insertChunk).Exec(
		ev.WorldID, ev.CX, ev.CY, ev.OriginX, ev.OriginY, ev.Attempts,
		len(ev.Rooms), len(ev.Hallways), weight, len(ev.Links),
		anchorX, anchorY, string(raw),
	); err != nil {
		return err
	}
	for i, r := range ev.Rooms {
		if _, err := tx.Stmt(insertRoom).Exec(ev.WorldID, ev.CX, ev.CY, i, r.StartX, r.StartY, r.Width, r.Height); err != nil {
			return err
		}
	}
	return nil
}
