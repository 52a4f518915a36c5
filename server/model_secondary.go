package server

import (
	"errors"
	"fmt"

	"github.com/Morgana119/spaceRescue/model"
)

const HTTP_SUCCESS = 200
const HTTP_CREATED = 201
const HTTP_BAD_REQUEST = 400
const HTTP_NOT_FOUND = 404
const HTTP_TIMEOUT = 408
const HTTP_CONFLICT = 409

var ErrGameNotFound = errors.New("game not found")
var ErrServerClosed = errors.New("game server closed")

type ResponseCode int

const (
	GAME_READY ResponseCode = iota
	GAME_CREATED
	GAME_NOT_FOUND
	GAME_INVALID
	GAME_OVER
	GAME_TIMEOUT
)

func (h ResponseCode) ToHttp() int {
	switch h {
	case GAME_READY:
		return HTTP_SUCCESS
	case GAME_CREATED:
		return HTTP_CREATED
	case GAME_NOT_FOUND:
		return HTTP_NOT_FOUND
	case GAME_INVALID:
		return HTTP_BAD_REQUEST
	case GAME_OVER:
		return HTTP_CONFLICT
	case GAME_TIMEOUT:
		return HTTP_TIMEOUT
	default:
		panic(h)
	}
}

func (gss GameSessionState) Name() string {
	switch gss {
	case GS_NEW:
		return "GS_NEW"
	case GS_PLAY:
		return "GS_PLAY"
	case GS_OVER:
		return "GS_OVER"
	default:
		return fmt.Sprintf("n/a:%d", gss)
	}
}

func (ss SubscriberState) Name() string {
	switch ss {
	case SS_NEW:
		return "NEW"
	case SS_PLAY:
		return "PLAY"
	case SS_OVER:
		return "OVER"
	default:
		return "N/A"
	}
}

type GameRequestKind int

const (
	REQ_FIND GameRequestKind = iota
	REQ_CREATE
	REQ_CLOSE
)

// GameContextAwaiting answers a GameRequest.
type GameContextAwaiting struct {
	ResponseCode ResponseCode
	GameSession  *GameSession
	Err          error
}

type GameRequest struct {
	Kind                GameRequestKind
	Id                  string
	NewGame             NewGameRequest
	GameContextAwaiting chan GameContextAwaiting
}

// NewGameRequest is the body of POST /games; zero values fall back to the
// server options.
type NewGameRequest struct {
	Seed   int64    `json:"seed,omitempty"`
	Agents []string `json:"agents,omitempty"`
}

type CommandKind int

const (
	CMD_STATE CommandKind = iota
	CMD_ADVANCE
	CMD_SUBSCRIBE
	CMD_UNSUBSCRIBE
	CMD_CLOSE
)

type Command struct {
	Kind       CommandKind
	Subscriber *Subscriber
	// Reply may be nil when the sender does not wait.
	Reply chan CommandResult
}

type CommandResult struct {
	ResponseCode ResponseCode
	Snapshot     model.Snapshot
}

// ClientMessage is what a websocket renderer may send.
type ClientMessage struct {
	Type string `json:"type"`
}

const MSG_ADVANCE = "advance"

type CreatedResponse struct {
	GameId   string         `json:"game_id"`
	Snapshot model.Snapshot `json:"snapshot"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
