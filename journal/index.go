package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/Morgana119/spaceRescue/game"
	"github.com/Morgana119/spaceRescue/model"
)

// Index keeps per-turn counters of every game in sqlite. Writes go through
// a single goroutine so the game loop never waits on disk.
type Index struct {
	db *sql.DB

	ch   chan indexReq
	wg   sync.WaitGroup
	once sync.Once

	// mu guards closed; senders hold it shared so Close never closes ch
	// under them.
	mu     sync.RWMutex
	closed bool
}

type indexReqKind int

const (
	reqGame indexReqKind = iota + 1
	reqTurn
	reqFlush
)

type indexReq struct {
	kind   indexReqKind
	gameId string
	at     time.Time
	setup  game.Setup
	snap   model.Snapshot
	done   chan struct{}
}

type GameSummary struct {
	GameId       string
	Seed         int64
	Agents       []string
	CreatedAt    time.Time
	Turns        int
	Status       string
	DamagedWalls int
	SavedVictims int
	DeadVictims  int
}

func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty index path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initIndex(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	ix := &Index{
		db: db,
		ch: make(chan indexReq, 4096),
	}
	ix.wg.Add(1)
	go func() {
		defer ix.wg.Done()
		ix.loop()
	}()
	return ix, nil
}

func initIndex(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			agents TEXT NOT NULL,
			rules_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			game_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			status TEXT NOT NULL,
			fires INTEGER NOT NULL,
			smoke INTEGER NOT NULL,
			damaged_walls INTEGER NOT NULL,
			saved_victims INTEGER NOT NULL,
			dead_victims INTEGER NOT NULL,
			deck_remaining INTEGER NOT NULL,
			events INTEGER NOT NULL,
			PRIMARY KEY (game_id, turn)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordGame and RecordTurn are dropped once the index is closed.
func (ix *Index) RecordGame(gameId string, setup game.Setup, at time.Time) {
	ix.send(indexReq{kind: reqGame, gameId: gameId, setup: setup, at: at})
}

func (ix *Index) RecordTurn(gameId string, s model.Snapshot) {
	ix.send(indexReq{kind: reqTurn, gameId: gameId, snap: s})
}

// Flush blocks until every queued write has been applied.
func (ix *Index) Flush() {
	done := make(chan struct{})
	if ix.send(indexReq{kind: reqFlush, done: done}) {
		<-done
	}
}

func (ix *Index) send(r indexReq) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		log.Debugf("index closed, dropping request %d for %s", r.kind, r.gameId)
		return false
	}
	ix.ch <- r
	return true
}

func (ix *Index) Close() error {
	var err error
	ix.once.Do(func() {
		ix.mu.Lock()
		ix.closed = true
		close(ix.ch)
		ix.mu.Unlock()
		ix.wg.Wait()
		err = ix.db.Close()
	})
	return err
}

func (ix *Index) loop() {
	for r := range ix.ch {
		switch r.kind {
		case reqGame:
			rules, _ := json.Marshal(r.setup.Rules)
			_, err := ix.db.Exec(
				`INSERT OR REPLACE INTO games(game_id,seed,agents,rules_json,created_at) VALUES(?,?,?,?,?)`,
				r.gameId, r.setup.Seed, strings.Join(r.setup.Agents, ","), string(rules),
				r.at.UTC().Format(time.RFC3339Nano))
			if err != nil {
				log.Warnf("index: game %s: %v", r.gameId, err)
			}
		case reqTurn:
			s := r.snap
			_, err := ix.db.Exec(
				`INSERT OR REPLACE INTO turns(game_id,turn,status,fires,smoke,damaged_walls,saved_victims,dead_victims,deck_remaining,events) VALUES(?,?,?,?,?,?,?,?,?,?)`,
				r.gameId, s.Turn, s.Status, len(s.Fires), len(s.Smoke),
				s.DamagedWalls, s.SavedVictims, s.DeadVictims, s.DeckRemaining, len(s.Events))
			if err != nil {
				log.Warnf("index: game %s turn %d: %v", r.gameId, s.Turn, err)
			}
		case reqFlush:
			close(r.done)
		}
	}
}

const summaryQuery = `
SELECT g.game_id, g.seed, g.agents, g.created_at,
	COALESCE(t.turn, 0), COALESCE(t.status, 'none'),
	COALESCE(t.damaged_walls, 0), COALESCE(t.saved_victims, 0), COALESCE(t.dead_victims, 0)
FROM games g
LEFT JOIN turns t ON t.game_id = g.game_id
	AND t.turn = (SELECT MAX(turn) FROM turns WHERE game_id = g.game_id)`

// Games summarizes every indexed game by its latest turn, oldest first.
func (ix *Index) Games(ctx context.Context) ([]GameSummary, error) {
	rows, err := ix.db.QueryContext(ctx, summaryQuery+` ORDER BY g.created_at, g.game_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GameSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (ix *Index) Game(ctx context.Context, gameId string) (GameSummary, error) {
	row := ix.db.QueryRowContext(ctx, summaryQuery+` WHERE g.game_id = ?`, gameId)
	return scanSummary(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (GameSummary, error) {
	var (
		s       GameSummary
		agents  string
		created string
	)
	if err := sc.Scan(&s.GameId, &s.Seed, &agents, &created,
		&s.Turns, &s.Status, &s.DamagedWalls, &s.SavedVictims, &s.DeadVictims); err != nil {
		return GameSummary{}, err
	}
	if agents != "" {
		s.Agents = strings.Split(agents, ",")
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return s, nil
}
