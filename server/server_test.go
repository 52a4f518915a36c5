package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Morgana119/spaceRescue/game"
	"github.com/Morgana119/spaceRescue/journal"
	"github.com/Morgana119/spaceRescue/layout"
	"github.com/Morgana119/spaceRescue/model"
)

func startServer(t *testing.T, opts Options) (*GameServer, *httptest.Server) {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 5
	}
	if len(opts.Agents) == 0 {
		opts.Agents = []string{"morado", "rosa", "rojo"}
	}
	if opts.Rules == (game.Rules{}) {
		opts.Rules = game.DefaultRules()
	}
	opts.Layout = layout.Default()

	s, err := NewGameServer(opts)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Loop(ctx)
	router := way.NewRouter()
	s.Routes(router)
	ts := httptest.NewServer(router)
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return s, ts
}

func call(t *testing.T, method, url, body string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestCreateStateAdvance(t *testing.T) {
	_, ts := startServer(t, Options{})

	var created CreatedResponse
	code := call(t, "POST", ts.URL+URI_GAMES, `{"seed": 77, "agents": ["azul", "verde"]}`, &created)
	require.Equal(t, HTTP_CREATED, code)
	require.NotEmpty(t, created.GameId)
	assert.Equal(t, created.GameId, created.Snapshot.GameId)
	assert.Len(t, created.Snapshot.Agents, 2)
	assert.Equal(t, 0, created.Snapshot.Turn)

	var state model.Snapshot
	code = call(t, "GET", ts.URL+"/games/"+created.GameId+"/state", "", &state)
	require.Equal(t, HTTP_SUCCESS, code)
	assert.Equal(t, created.Snapshot, state)

	var next model.Snapshot
	code = call(t, "POST", ts.URL+"/games/"+created.GameId+"/advance", "", &next)
	require.Equal(t, HTTP_SUCCESS, code)
	assert.Equal(t, 1, next.Turn)
	assert.Equal(t, created.GameId, next.GameId)

	// same seed, same game
	g, err := game.New(game.Setup{Seed: 77, Agents: []string{"azul", "verde"}, Rules: game.DefaultRules(), Layout: layout.Default()})
	require.NoError(t, err)
	want, err := g.Step()
	require.NoError(t, err)
	want.GameId = created.GameId
	assert.Equal(t, want, next)
}

func TestDefaultGame(t *testing.T) {
	s, ts := startServer(t, Options{})

	var state model.Snapshot
	require.Equal(t, HTTP_SUCCESS, call(t, "GET", ts.URL+URI_STATE, "", &state))
	assert.Equal(t, s.DefaultId, state.GameId)
	assert.Len(t, state.Agents, 3)

	require.Equal(t, HTTP_SUCCESS, call(t, "POST", ts.URL+URI_ADVANCE, "", &state))
	assert.Equal(t, 1, state.Turn)
}

func TestErrors(t *testing.T) {
	_, ts := startServer(t, Options{})

	var e ErrorResponse
	assert.Equal(t, HTTP_NOT_FOUND, call(t, "GET", ts.URL+"/games/nope/state", "", &e))
	assert.Equal(t, ErrGameNotFound.Error(), e.Error)
	assert.Equal(t, HTTP_NOT_FOUND, call(t, "POST", ts.URL+"/games/nope/advance", "", nil))
	assert.Equal(t, HTTP_BAD_REQUEST, call(t, "POST", ts.URL+URI_GAMES, `{"seed": "x"}`, nil))

	// an empty body falls back to the server options
	var created CreatedResponse
	assert.Equal(t, HTTP_CREATED, call(t, "POST", ts.URL+URI_GAMES, "", &created))
	assert.Len(t, created.Snapshot.Agents, 3)
}

func TestAdvanceAfterGameOver(t *testing.T) {
	rules := game.DefaultRules()
	rules.MaxDamagedWalls = 1
	_, ts := startServer(t, Options{Rules: rules})

	var state model.Snapshot
	for i := 0; state.Status == "" || state.Status == "none"; i++ {
		require.Less(t, i, 1000)
		require.Equal(t, HTTP_SUCCESS, call(t, "POST", ts.URL+URI_ADVANCE, "", &state))
	}
	assert.Equal(t, "lose", state.Status)

	var after model.Snapshot
	assert.Equal(t, HTTP_CONFLICT, call(t, "POST", ts.URL+URI_ADVANCE, "", &after))
	assert.Equal(t, state.Turn, after.Turn)
}

func TestPlaySocket(t *testing.T) {
	_, ts := startServer(t, Options{})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + URI_WS
	con, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer con.Close()

	var snap model.Snapshot
	require.NoError(t, con.ReadJSON(&snap))
	assert.Equal(t, 0, snap.Turn)

	require.NoError(t, con.WriteJSON(ClientMessage{Type: MSG_ADVANCE}))
	require.NoError(t, con.ReadJSON(&snap))
	assert.Equal(t, 1, snap.Turn)

	// turns advanced over http reach the socket too
	require.Equal(t, HTTP_SUCCESS, call(t, "POST", ts.URL+URI_ADVANCE, "", nil))
	require.NoError(t, con.ReadJSON(&snap))
	assert.Equal(t, 2, snap.Turn)
}

func TestJournalAndIndex(t *testing.T) {
	dir := t.TempDir()
	ix, err := journal.OpenIndex(":memory:")
	require.NoError(t, err)
	defer ix.Close()
	s, ts := startServer(t, Options{JournalDir: dir, Index: ix})

	for i := 0; i < 6; i++ {
		require.Equal(t, HTTP_SUCCESS, call(t, "POST", ts.URL+URI_ADVANCE, "", nil))
	}
	s.Close()

	setup, turns, err := journal.Read(journal.Path(dir, s.DefaultId))
	require.NoError(t, err)
	assert.Equal(t, int64(5), setup.Seed)
	require.Len(t, turns, 6)
	n, err := journal.Replay(setup, turns)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	ix.Flush()
	sum, err := ix.Game(context.Background(), s.DefaultId)
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Turns)
	assert.Equal(t, []string{"morado", "rosa", "rojo"}, sum.Agents)
}

func TestCloseStopsSessions(t *testing.T) {
	s, _ := startServer(t, Options{JournalDir: t.TempDir()})
	s.Close()

	select {
	case <-s.Done():
	default:
		t.Fatal("Close returned before Loop ended")
	}
	gs := s.GameSessions[s.DefaultId]
	start := time.Now()
	res, ok := gs.Do(CMD_ADVANCE)
	assert.False(t, ok)
	assert.Equal(t, GAME_NOT_FOUND, res.ResponseCode)
	assert.Less(t, time.Since(start), CommandTimeout)

	sub := &Subscriber{State: SS_NEW, Session: gs, MessagesToSend: make(chan model.Snapshot, 1)}
	res, ok = gs.send(Command{Kind: CMD_SUBSCRIBE, Subscriber: sub})
	assert.False(t, ok)
	assert.Equal(t, GAME_NOT_FOUND, res.ResponseCode)
	assert.Empty(t, sub.MessagesToSend)

	gca, ok := s.Request(GameRequest{Kind: REQ_FIND})
	assert.False(t, ok)
	assert.ErrorIs(t, gca.Err, ErrServerClosed)
	// closing twice is harmless
	s.Close()
}

func TestUnsubscribeUnregistered(t *testing.T) {
	s, _ := startServer(t, Options{})
	gs := s.GameSessions[s.DefaultId]

	sub := &Subscriber{State: SS_NEW, Session: gs, MessagesToSend: make(chan model.Snapshot, 1)}
	_, ok := gs.send(Command{Kind: CMD_UNSUBSCRIBE, Subscriber: sub})
	require.True(t, ok)
	_, open := <-sub.MessagesToSend
	assert.False(t, open)

	sub = &Subscriber{State: SS_NEW, Session: gs, MessagesToSend: make(chan model.Snapshot, 1)}
	_, ok = gs.send(Command{Kind: CMD_SUBSCRIBE, Subscriber: sub})
	require.True(t, ok)
	snap := <-sub.MessagesToSend
	assert.Equal(t, s.DefaultId, snap.GameId)
	_, ok = gs.send(Command{Kind: CMD_UNSUBSCRIBE, Subscriber: sub})
	require.True(t, ok)
	_, open = <-sub.MessagesToSend
	assert.False(t, open)
}
