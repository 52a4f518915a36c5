package server

import (
	"github.com/matryer/way"
)

const URI_GAMES = "/games"
const URI_GAME_STATE = "/games/:id/state"
const URI_GAME_ADVANCE = "/games/:id/advance"
const URI_GAME_WS = "/games/:id/play"
const URI_STATE = "/state"
const URI_ADVANCE = "/advance"
const URI_WS = "/play"

// Routes registers the game endpoints. The routes without :id act on the
// default game.
func (s *GameServer) Routes(router *way.Router) {
	router.HandleFunc("POST", URI_GAMES, s.HandleCreate())
	router.HandleFunc("GET", URI_GAME_STATE, s.HandleState())
	router.HandleFunc("POST", URI_GAME_ADVANCE, s.HandleAdvance())
	router.HandleFunc("GET", URI_GAME_WS, s.HandlePlay())
	router.HandleFunc("GET", URI_STATE, s.HandleState())
	router.HandleFunc("POST", URI_ADVANCE, s.HandleAdvance())
	router.HandleFunc("GET", URI_WS, s.HandlePlay())
}
