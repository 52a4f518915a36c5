package server

import (
	"github.com/gorilla/websocket"

	"github.com/Morgana119/spaceRescue/game"
	"github.com/Morgana119/spaceRescue/journal"
	"github.com/Morgana119/spaceRescue/layout"
	"github.com/Morgana119/spaceRescue/model"
)

// Options are the defaults every new game starts from.
type Options struct {
	// Seed 0 draws a fresh seed per game.
	Seed       int64
	Agents     []string
	Rules      game.Rules
	Layout     layout.Layout
	JournalDir string
	Index      *journal.Index
}

type GameServer struct {
	GameSessions map[string]*GameSession
	GameRequests chan GameRequest
	Upgrader     *websocket.Upgrader
	Options      Options
	DefaultId    string

	done chan struct{}
}

type GameSessionState int

const (
	GS_NEW GameSessionState = iota
	GS_PLAY
	GS_OVER
)

// GameSession owns one game. Only its Loop goroutine touches Game, so
// commands from HTTP and websocket clients are applied one at a time.
type GameSession struct {
	Id          string
	State       GameSessionState
	Game        *game.Game
	Commands    chan Command
	Subscribers map[*Subscriber]struct{}

	journal *journal.Writer
	index   *journal.Index
	done    chan struct{}
}

type SubscriberState int

const (
	SS_NEW SubscriberState = iota + 1
	SS_PLAY
	SS_OVER
)

// Subscriber is one websocket renderer following a session.
type Subscriber struct {
	State          SubscriberState
	Session        *GameSession
	Conn           *websocket.Conn
	MessagesToSend chan model.Snapshot

	DebugOutMessages int
}
