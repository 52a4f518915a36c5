// Package journal records games turn by turn: a zstd compressed JSONL file
// per game that can be replayed, and an optional sqlite index of counters.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/Morgana119/spaceRescue/game"
	"github.com/Morgana119/spaceRescue/model"
)

const (
	KindSetup = "setup"
	KindTurn  = "turn"
)

type Record struct {
	Kind     string          `json:"kind"`
	GameId   string          `json:"game_id"`
	Setup    *game.Setup     `json:"setup,omitempty"`
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
}

type Writer struct {
	gameId string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func Path(dir, gameId string) string {
	return filepath.Join(dir, gameId+".jsonl.zst")
}

// Create opens the journal for gameId and writes the setup record first.
func Create(dir, gameId string, setup game.Setup) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(Path(dir, gameId), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w := &Writer{
		gameId: gameId,
		f:      f,
		enc:    enc,
		w:      bufio.NewWriterSize(enc, 64*1024),
	}
	if err := w.write(Record{Kind: KindSetup, GameId: gameId, Setup: &setup}); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) WriteTurn(s model.Snapshot) error {
	return w.write(Record{Kind: KindTurn, GameId: w.gameId, Snapshot: &s})
}

func (w *Writer) write(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return os.ErrClosed
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err error
	if w.w != nil {
		err = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	return err
}

var ErrNoSetup = errors.New("journal has no setup record")

// Read loads a journal file: the setup record and every turn snapshot.
func Read(path string) (game.Setup, []model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return game.Setup{}, nil, err
	}
	defer f.Close()
	setup, turns, err := decode(f)
	if err != nil {
		return setup, turns, fmt.Errorf("%s: %w", path, err)
	}
	return setup, turns, nil
}

func decode(r io.Reader) (game.Setup, []model.Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return game.Setup{}, nil, err
	}
	defer dec.Close()

	var setup *game.Setup
	var turns []model.Snapshot
	lineNo := 0
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		lineNo++
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return game.Setup{}, nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		switch rec.Kind {
		case KindSetup:
			setup = rec.Setup
		case KindTurn:
			if rec.Snapshot != nil {
				turns = append(turns, *rec.Snapshot)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return game.Setup{}, nil, err
	}
	if setup == nil {
		return game.Setup{}, nil, ErrNoSetup
	}
	return *setup, turns, nil
}
