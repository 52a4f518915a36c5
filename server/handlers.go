package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"

	"github.com/Morgana119/spaceRescue/model"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("writeJSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, rc ResponseCode, err error) {
	msg := http.StatusText(rc.ToHttp())
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, rc.ToHttp(), ErrorResponse{Error: msg})
}

// findSession resolves the :id route param, or the default game when the
// route has none.
func (s *GameServer) findSession(w http.ResponseWriter, r *http.Request) (*GameSession, bool) {
	gca, ok := s.Request(GameRequest{Kind: REQ_FIND, Id: way.Param(r.Context(), "id")})
	if !ok || gca.ResponseCode != GAME_READY {
		writeError(w, gca.ResponseCode, gca.Err)
		return nil, false
	}
	return gca.GameSession, true
}

func (s *GameServer) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NewGameRequest
		if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, GAME_INVALID, err)
				return
			}
		}
		gca, ok := s.Request(GameRequest{Kind: REQ_CREATE, NewGame: req})
		if !ok || gca.ResponseCode != GAME_CREATED {
			writeError(w, gca.ResponseCode, gca.Err)
			return
		}
		res, ok := gca.GameSession.Do(CMD_STATE)
		if !ok {
			writeError(w, res.ResponseCode, nil)
			return
		}
		writeJSON(w, GAME_CREATED.ToHttp(), CreatedResponse{GameId: gca.GameSession.Id, Snapshot: res.Snapshot})
	}
}

func (s *GameServer) HandleState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gs, ok := s.findSession(w, r)
		if !ok {
			return
		}
		res, ok := gs.Do(CMD_STATE)
		if !ok {
			writeError(w, res.ResponseCode, nil)
			return
		}
		writeJSON(w, res.ResponseCode.ToHttp(), res.Snapshot)
	}
}

func (s *GameServer) HandleAdvance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gs, ok := s.findSession(w, r)
		if !ok {
			return
		}
		res, ok := gs.Do(CMD_ADVANCE)
		if !ok {
			writeError(w, res.ResponseCode, nil)
			return
		}
		writeJSON(w, res.ResponseCode.ToHttp(), res.Snapshot)
	}
}

// HandlePlay upgrades to a websocket that receives a snapshot after every
// turn and may send {"type":"advance"}.
func (s *GameServer) HandlePlay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("HandlePlay - Conection received")
		gs, ok := s.findSession(w, r)
		if !ok {
			return
		}
		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("HandlePlay websocket upgrade err %v", err)
			return
		}
		defer con.Close()

		sub := &Subscriber{
			State:          SS_NEW,
			Session:        gs,
			Conn:           con,
			MessagesToSend: make(chan model.Snapshot, 16),
		}
		go sub.LoopChannelWrite()
		if res, ok := gs.send(Command{Kind: CMD_SUBSCRIBE, Subscriber: sub}); !ok {
			if res.ResponseCode == GAME_TIMEOUT {
				// the loop may still register it; let the loop close it
				gs.send(Command{Kind: CMD_UNSUBSCRIBE, Subscriber: sub})
			} else {
				close(sub.MessagesToSend)
			}
			return
		}
		sub.LoopChannelRead()
		gs.send(Command{Kind: CMD_UNSUBSCRIBE, Subscriber: sub})
	}
}
