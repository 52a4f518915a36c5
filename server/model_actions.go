package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/Morgana119/spaceRescue/game"
	"github.com/Morgana119/spaceRescue/journal"
	"github.com/Morgana119/spaceRescue/model"
)

// CommandTimeout bounds how long a caller waits on a loop goroutine.
var CommandTimeout = 2 * time.Second

// NewGameServer creates the server and its default game. Loop must be
// started before requests are served.
func NewGameServer(opts Options) (*GameServer, error) {
	s := &GameServer{
		GameSessions: make(map[string]*GameSession),
		GameRequests: make(chan GameRequest),
		Upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		Options: opts,
		done:    make(chan struct{}),
	}
	gs, err := s.newSession(NewGameRequest{})
	if err != nil {
		return nil, err
	}
	s.GameSessions[gs.Id] = gs
	s.DefaultId = gs.Id
	return s, nil
}

func (s *GameServer) newSession(req NewGameRequest) (*GameSession, error) {
	setup := game.Setup{
		Seed:   req.Seed,
		Agents: req.Agents,
		Rules:  s.Options.Rules,
		Layout: s.Options.Layout,
	}
	if setup.Seed == 0 {
		setup.Seed = s.Options.Seed
	}
	if setup.Seed == 0 {
		setup.Seed = time.Now().UnixNano()
	}
	if len(setup.Agents) == 0 {
		setup.Agents = s.Options.Agents
	}
	g, err := game.New(setup)
	if err != nil {
		return nil, err
	}
	gs := &GameSession{
		Id:          uuid.NewString(),
		State:       GS_NEW,
		Game:        g,
		Commands:    make(chan Command, 16),
		Subscribers: make(map[*Subscriber]struct{}),
		index:       s.Options.Index,
		done:        make(chan struct{}),
	}
	if s.Options.JournalDir != "" {
		w, err := journal.Create(s.Options.JournalDir, gs.Id, setup)
		if err != nil {
			log.Warnf("journal for %s disabled: %v", gs.Id, err)
		} else {
			gs.journal = w
		}
	}
	if gs.index != nil {
		gs.index.RecordGame(gs.Id, setup, time.Now())
	}
	log.Infof("create GameSession %s seed=%d agents=%d", gs.Id, setup.Seed, len(setup.Agents))
	go gs.Loop()
	return gs, nil
}

// Loop owns the session registry until ctx ends or a REQ_CLOSE arrives.
// Done is closed once every session has stopped.
func (s *GameServer) Loop(ctx context.Context) {
	log.Printf("GameServer.Loop starting")
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case req := <-s.GameRequests:
			switch req.Kind {
			case REQ_FIND:
				id := req.Id
				if id == "" {
					id = s.DefaultId
				}
				gs, found := s.GameSessions[id]
				if !found {
					req.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_NOT_FOUND, Err: ErrGameNotFound}
					continue
				}
				req.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_READY, GameSession: gs}
			case REQ_CREATE:
				gs, err := s.newSession(req.NewGame)
				if err != nil {
					log.Warnf("GameServer.Loop create: %v", err)
					req.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_INVALID, Err: err}
					continue
				}
				s.GameSessions[gs.Id] = gs
				req.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_CREATED, GameSession: gs}
			case REQ_CLOSE:
				s.closeAll()
				req.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_READY}
				return
			}
		}
	}
}

func (s *GameServer) closeAll() {
	for id, gs := range s.GameSessions {
		if _, ok := gs.Do(CMD_CLOSE); ok {
			continue
		}
		select {
		case <-gs.done:
		case <-time.After(CommandTimeout):
			log.Warnf("GameSession %s did not close in time", id)
		}
	}
}

func (s *GameServer) Done() <-chan struct{} {
	return s.done
}

// Request hands req to Loop and waits for the answer.
func (s *GameServer) Request(req GameRequest) (GameContextAwaiting, bool) {
	gcas := make(chan GameContextAwaiting, 1)
	req.GameContextAwaiting = gcas
	select {
	case s.GameRequests <- req:
	case <-s.done:
		return GameContextAwaiting{ResponseCode: GAME_NOT_FOUND, Err: ErrServerClosed}, false
	case <-time.After(CommandTimeout):
		log.Warn("GameRequests TIMEOUTED")
		return GameContextAwaiting{ResponseCode: GAME_TIMEOUT}, false
	}
	select {
	case gca := <-gcas:
		return gca, true
	case <-time.After(CommandTimeout):
		log.Warn("GameContextAwaiting TIMEOUTED")
		return GameContextAwaiting{ResponseCode: GAME_TIMEOUT}, false
	}
}

// Close stops Loop and returns once every session has flushed its journal.
func (s *GameServer) Close() {
	s.Request(GameRequest{Kind: REQ_CLOSE})
	<-s.done
}

// Do sends a command to the session loop and waits for its result.
func (gs *GameSession) Do(kind CommandKind) (CommandResult, bool) {
	return gs.send(Command{Kind: kind})
}

// send queues cmd and waits for its reply. Commands is buffered, so a
// stopped loop is checked first and again while waiting.
func (gs *GameSession) send(cmd Command) (CommandResult, bool) {
	if gs.stopped() {
		return CommandResult{ResponseCode: GAME_NOT_FOUND}, false
	}
	reply := make(chan CommandResult, 1)
	cmd.Reply = reply
	select {
	case gs.Commands <- cmd:
	case <-gs.done:
		return CommandResult{ResponseCode: GAME_NOT_FOUND}, false
	case <-time.After(CommandTimeout):
		return CommandResult{ResponseCode: GAME_TIMEOUT}, false
	}
	select {
	case res := <-reply:
		return res, true
	case <-gs.done:
		// the loop replies before it exits
		select {
		case res := <-reply:
			return res, true
		default:
			return CommandResult{ResponseCode: GAME_NOT_FOUND}, false
		}
	case <-time.After(CommandTimeout):
		return CommandResult{ResponseCode: GAME_TIMEOUT}, false
	}
}

func (gs *GameSession) stopped() bool {
	select {
	case <-gs.done:
		return true
	default:
		return false
	}
}

func (gs *GameSession) Loop() {
	log.Infof("GameSession.Loop %s start", gs.Id)
	defer close(gs.done)
	for cmd := range gs.Commands {
		var res CommandResult
		switch cmd.Kind {
		case CMD_STATE:
			res = CommandResult{ResponseCode: GAME_READY, Snapshot: gs.snapshot()}
		case CMD_ADVANCE:
			res = gs.advance()
		case CMD_SUBSCRIBE:
			sub := cmd.Subscriber
			sub.State = SS_PLAY
			gs.Subscribers[sub] = struct{}{}
			sub.MessagesToSend <- gs.snapshot()
			res = CommandResult{ResponseCode: GAME_READY}
		case CMD_UNSUBSCRIBE:
			gs.unsubscribe(cmd.Subscriber)
			res = CommandResult{ResponseCode: GAME_READY}
		case CMD_CLOSE:
			gs.shutdown()
			if cmd.Reply != nil {
				cmd.Reply <- CommandResult{ResponseCode: GAME_READY}
			}
			log.Infof("GameSession.Loop %s ended", gs.Id)
			return
		}
		if cmd.Reply != nil {
			cmd.Reply <- res
		}
	}
}

func (gs *GameSession) snapshot() model.Snapshot {
	snap := gs.Game.Snapshot()
	snap.GameId = gs.Id
	return snap
}

func (gs *GameSession) advance() CommandResult {
	snap, err := gs.Game.Step()
	if err != nil {
		return CommandResult{ResponseCode: GAME_OVER, Snapshot: gs.snapshot()}
	}
	snap.GameId = gs.Id
	gs.State = GS_PLAY
	if gs.journal != nil {
		if err := gs.journal.WriteTurn(snap); err != nil {
			log.Warnf("GameSession %s journal: %v", gs.Id, err)
		}
	}
	if gs.index != nil {
		gs.index.RecordTurn(gs.Id, snap)
	}
	gs.broadcast(snap)
	if gs.Game.Status() != game.Running {
		gs.State = GS_OVER
		log.Infof("GameSession %s over after %d turns: %s", gs.Id, snap.Turn, snap.Status)
		gs.closeJournal()
	}
	return CommandResult{ResponseCode: GAME_READY, Snapshot: snap}
}

func (gs *GameSession) broadcast(snap model.Snapshot) {
	for sub := range gs.Subscribers {
		select {
		case sub.MessagesToSend <- snap:
		default:
			log.Warnf("Dropping turn %d for subscriber, MessagesToSend FULL", snap.Turn)
		}
	}
}

// unsubscribe closes the subscriber's channel. A subscriber that never got
// registered (SS_NEW) is closed too.
func (gs *GameSession) unsubscribe(sub *Subscriber) {
	if _, ok := gs.Subscribers[sub]; ok {
		delete(gs.Subscribers, sub)
	} else if sub.State != SS_NEW {
		return
	}
	sub.State = SS_OVER
	close(sub.MessagesToSend)
}

func (gs *GameSession) shutdown() {
	for sub := range gs.Subscribers {
		gs.unsubscribe(sub)
	}
	gs.closeJournal()
}

func (gs *GameSession) closeJournal() {
	if gs.journal == nil {
		return
	}
	if err := gs.journal.Close(); err != nil {
		log.Warnf("GameSession %s journal close: %v", gs.Id, err)
	}
	gs.journal = nil
}

// LoopChannelRead turns client messages into session commands until the
// connection fails.
func (sub *Subscriber) LoopChannelRead() {
	log.Printf("LoopChannelRead STARTED")
	for {
		_, msg, err := sub.Conn.ReadMessage()
		if err != nil {
			log.Printf("LoopChannelRead ended: %v", err)
			break
		}
		var cm ClientMessage
		if err := json.Unmarshal(msg, &cm); err != nil {
			log.Warn("cant decode client message")
			continue
		}
		if cm.Type != MSG_ADVANCE {
			log.Warnf("unknown client message %q", cm.Type)
			continue
		}
		select {
		case sub.Session.Commands <- Command{Kind: CMD_ADVANCE}:
		default:
			log.Warnf("Dropping advance from socket, GameSession.Commands FULL")
		}
	}
}

// LoopChannelWrite only consumes, so a broken connection never blocks the
// session loop.
func (sub *Subscriber) LoopChannelWrite() {
	log.Printf("Subscriber.LoopChannelWrite STARTED")
	failed := false
	for snap := range sub.MessagesToSend {
		if failed {
			continue
		}
		_ = sub.Conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := sub.Conn.WriteJSON(snap); err != nil {
			log.Warnf("Subscriber.LoopChannelWrite cant write %v", err)
			failed = true
			_ = sub.Conn.Close()
			continue
		}
		sub.DebugOutMessages++
	}
	_ = sub.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	log.Printf("LoopChannelWrite ENDED")
}
