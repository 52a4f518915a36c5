package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Morgana119/spaceRescue/game"
	"github.com/Morgana119/spaceRescue/layout"
	"github.com/Morgana119/spaceRescue/model"
)

func testSetup() game.Setup {
	return game.Setup{
		Seed:   11,
		Agents: []string{"morado", "rosa", "rojo"},
		Rules:  game.DefaultRules(),
		Layout: layout.Default(),
	}
}

func playGame(t *testing.T, setup game.Setup, turns int) []model.Snapshot {
	t.Helper()
	g, err := game.New(setup)
	require.NoError(t, err)
	var out []model.Snapshot
	for i := 0; i < turns && g.Status() == game.Running; i++ {
		s, err := g.Step()
		require.NoError(t, err)
		s.GameId = "g1"
		out = append(out, s)
	}
	return out
}

func TestWriteReadReplay(t *testing.T) {
	dir := t.TempDir()
	setup := testSetup()
	turns := playGame(t, setup, 25)

	w, err := Create(dir, "g1", setup)
	require.NoError(t, err)
	for _, s := range turns {
		require.NoError(t, w.WriteTurn(s))
	}
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.WriteTurn(turns[0]), os.ErrClosed)

	gotSetup, gotTurns, err := Read(Path(dir, "g1"))
	require.NoError(t, err)
	assert.Equal(t, setup.Seed, gotSetup.Seed)
	assert.Equal(t, setup.Agents, gotSetup.Agents)
	assert.Equal(t, setup.Rules, gotSetup.Rules)
	require.Len(t, gotTurns, len(turns))
	assert.Equal(t, turns[len(turns)-1].Turn, gotTurns[len(gotTurns)-1].Turn)

	n, err := Replay(gotSetup, gotTurns)
	require.NoError(t, err)
	assert.Equal(t, len(turns), n)
}

func TestReplayMismatch(t *testing.T) {
	setup := testSetup()
	turns := playGame(t, setup, 5)
	require.Len(t, turns, 5)
	turns[2].DamagedWalls += 99

	n, err := Replay(setup, turns)
	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, mm.Turn)
	assert.NotEqual(t, mm.Recorded, mm.Replayed)

	setup.Seed++
	_, err = Replay(setup, playGame(t, testSetup(), 5))
	assert.Error(t, err)
}

func TestReadNoSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl.zst")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = enc.Write([]byte(`{"kind":"turn","game_id":"x","snapshot":{"turn":1}}` + "\n"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	_, _, err = Read(path)
	assert.ErrorIs(t, err, ErrNoSetup)
}

func TestIndex(t *testing.T) {
	ix, err := OpenIndex(":memory:")
	require.NoError(t, err)
	defer ix.Close()

	setup := testSetup()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ix.RecordGame("g1", setup, at)
	ix.RecordGame("g2", setup, at.Add(time.Minute))
	turns := playGame(t, setup, 4)
	for _, s := range turns {
		ix.RecordTurn("g1", s)
	}
	ix.Flush()

	games, err := ix.Games(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)
	last := turns[len(turns)-1]
	assert.Equal(t, "g1", games[0].GameId)
	assert.Equal(t, last.Turn, games[0].Turns)
	assert.Equal(t, last.Status, games[0].Status)
	assert.Equal(t, last.DamagedWalls, games[0].DamagedWalls)
	assert.Equal(t, setup.Agents, games[0].Agents)
	assert.True(t, at.Equal(games[0].CreatedAt))

	g2, err := ix.Game(context.Background(), "g2")
	require.NoError(t, err)
	assert.Equal(t, 0, g2.Turns)
	assert.Equal(t, "none", g2.Status)
	assert.Equal(t, int64(11), g2.Seed)

	require.NoError(t, ix.Close())
	assert.NoError(t, ix.Close())
}

func TestIndexClosedDropsWrites(t *testing.T) {
	ix, err := OpenIndex(":memory:")
	require.NoError(t, err)
	require.NoError(t, ix.Close())

	assert.NotPanics(t, func() {
		ix.RecordGame("g", testSetup(), time.Now())
		ix.RecordTurn("g", model.Snapshot{Turn: 1})
		ix.Flush()
	})
}
