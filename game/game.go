// Package game is the rescue rule engine: agents spend action points, fire
// spreads after every agent turn and the controller decides win or loss.
package game

import (
	"fmt"
	"math/rand"

	log "github.com/sirupsen/logrus"

	"github.com/Morgana119/spaceRescue/layout"
	"github.com/Morgana119/spaceRescue/model"
)

type eventLog struct {
	events []model.Event
}

func (l *eventLog) add(e model.Event) {
	l.events = append(l.events, e)
}

func (l *eventLog) reset() {
	l.events = nil
}

// Setup is everything needed to rebuild a game from scratch.
type Setup struct {
	Seed   int64         `json:"seed"`
	Agents []string      `json:"agents"`
	Rules  Rules         `json:"rules"`
	Layout layout.Layout `json:"layout"`
}

// Game is one session. It is not safe for concurrent use: callers serialize
// Step and Snapshot.
type Game struct {
	Board  *model.Board
	Agents []*model.Agent

	setup   Setup
	rules   Rules
	rnd     *rand.Rand
	dice    *Dice
	fire    *FireDirector
	pois    *POIManager
	events  *eventLog
	turn    int
	current int
	saved   int
	dead    int
	status  Status
	phase   Phase
}

func New(setup Setup) (*Game, error) {
	if err := setup.Rules.Validate(); err != nil {
		return nil, err
	}
	if err := setup.Layout.Validate(); err != nil {
		return nil, err
	}
	if len(setup.Agents) == 0 {
		return nil, ErrNoAgents
	}
	board := setup.Layout.Board()
	rnd := rand.New(rand.NewSource(setup.Seed))
	events := &eventLog{}
	dice := NewDice(rnd, board.Width, board.Height)
	g := &Game{
		Board:  board,
		setup:  setup,
		rules:  setup.Rules,
		rnd:    rnd,
		dice:   dice,
		fire:   NewFireDirector(board, events),
		pois:   NewPOIManager(board, rnd, dice, events, setup.Rules),
		events: events,
		status: Running,
		phase:  PhaseIdle,
	}
	for _, p := range setup.Layout.POIs {
		g.pois.Place(p.X, p.Y)
	}
	if err := g.placeAgents(setup.Agents); err != nil {
		return nil, err
	}
	g.pois.Ensure(g.occupied)
	g.events.reset()
	log.Infof("game ready: %dx%d board, %d agents, seed %d", board.Width, board.Height, len(g.Agents), setup.Seed)
	return g, nil
}

// placeAgents drops agents on random cells without fire, token or agent.
func (g *Game) placeAgents(names []string) error {
	free := 0
	for x := 0; x < g.Board.Width; x++ {
		for y := 0; y < g.Board.Height; y++ {
			if g.freeForAgent(x, y) {
				free++
			}
		}
	}
	if free < len(names) {
		return fmt.Errorf("%w: %d agents, %d free cells", ErrCrowded, len(names), free)
	}
	for i, name := range names {
		var x, y int
		for {
			x = g.rnd.Intn(g.Board.Width)
			y = g.rnd.Intn(g.Board.Height)
			if g.freeForAgent(x, y) {
				break
			}
		}
		g.Agents = append(g.Agents, &model.Agent{
			Id:     i + 1,
			Name:   name,
			X:      x,
			Y:      y,
			AP:     g.rules.ActionPoints,
			Health: model.Alive,
		})
		log.Debugf("agent %d (%s) placed at (%d,%d)", i+1, name, x, y)
	}
	return nil
}

func (g *Game) freeForAgent(x, y int) bool {
	cell := g.Board.Cell(x, y)
	return !cell.Fire && cell.POI == nil && !g.occupied(x, y)
}

func (g *Game) occupied(x, y int) bool {
	for _, a := range g.Agents {
		if a.X == x && a.Y == y {
			return true
		}
	}
	return false
}

func (g *Game) Setup() Setup          { return g.setup }
func (g *Game) Turn() int             { return g.turn }
func (g *Game) Phase() Phase          { return g.phase }
func (g *Game) Status() Status        { return g.status }
func (g *Game) SavedVictims() int     { return g.saved }
func (g *Game) DeadVictims() int      { return g.dead }
func (g *Game) POIs() *POIManager     { return g.pois }
func (g *Game) Current() *model.Agent { return g.Agents[g.current] }

// Step plays one full turn: the current agent acts, fire spreads, POIs are
// replenished, agents caught by new fire are knocked down, and the terminal
// conditions are checked.
func (g *Game) Step() (model.Snapshot, error) {
	if g.status != Running {
		return model.Snapshot{}, ErrGameOver
	}
	g.events.reset()

	g.phase = PhaseAgentTurn
	agent := g.Agents[g.current]
	log.Debugf("turn %d: agent %d (%s) from (%d,%d)", g.turn, agent.Id, agent.Name, agent.X, agent.Y)
	g.playTurn(agent)
	g.current = (g.current + 1) % len(g.Agents)

	g.phase = PhaseFireSpread
	x, y := g.dice.Roll()
	log.Debugf("turn %d: fire dice (%d,%d)", g.turn, x, y)
	ignited := g.fire.Spread(x, y)
	g.burnPOIs(ignited)

	g.phase = PhasePOIReplenish
	g.pois.Ensure(g.occupied)

	g.phase = PhaseKnockdown
	g.resolveKnockdowns(ignited)

	g.phase = PhaseTerminalCheck
	g.turn++
	if g.Terminal() == Running {
		g.phase = PhaseIdle
	}
	return g.Snapshot(), nil
}

// resolveKnockdowns knocks down every agent standing on a cell that caught
// fire this turn.
func (g *Game) resolveKnockdowns(ignited []model.Point) {
	burning := make(map[model.Point]bool, len(ignited))
	for _, p := range ignited {
		burning[p] = true
	}
	for _, a := range g.Agents {
		if burning[model.Point{X: a.X, Y: a.Y}] {
			g.knockdown(a)
		}
	}
}

// burnPOIs loses hidden tokens on cells that just caught fire.
func (g *Game) burnPOIs(ignited []model.Point) {
	for _, p := range ignited {
		kind, ok := g.pois.Reveal(p.X, p.Y)
		if !ok {
			continue
		}
		g.events.add(model.Event{Source: model.SourceFire, Action: "POI_BURNED", X: p.X, Y: p.Y})
		if kind == model.Victim {
			g.dead++
			log.Infof("victim at (%d,%d) lost to fire, dead=%d", p.X, p.Y, g.dead)
		}
	}
}

// Terminal evaluates the end conditions once; afterwards it keeps returning
// the recorded result.
func (g *Game) Terminal() Status {
	if g.status != Running {
		return g.status
	}
	switch {
	case g.Board.DamagedWalls >= g.rules.MaxDamagedWalls:
		g.status = Lost
		log.Infof("game lost: building collapsed, %d damaged walls", g.Board.DamagedWalls)
	case g.dead >= g.rules.MaxDeadVictims:
		g.status = Lost
		log.Infof("game lost: %d victims dead", g.dead)
	case g.saved >= g.rules.VictimsToWin:
		g.status = Won
		log.Infof("game won: %d victims saved", g.saved)
	}
	if g.status != Running {
		g.phase = PhaseEnded
	}
	return g.status
}

func (g *Game) Snapshot() model.Snapshot {
	s := model.Snapshot{
		Turn:          g.turn,
		CurrentAgent:  g.Agents[g.current].Id,
		Width:         g.Board.Width,
		Height:        g.Board.Height,
		Agents:        make([]model.AgentState, 0, len(g.Agents)),
		Fires:         []model.Point{},
		Smoke:         []model.Point{},
		POIs:          g.pois.OnBoard(),
		Walls:         g.Board.WallCodes(),
		DamagedWalls:  g.Board.DamagedWalls,
		SavedVictims:  g.saved,
		DeadVictims:   g.dead,
		DeckRemaining: g.pois.DeckSize(),
		Status:        g.status.Name(),
		Events:        make([]model.Event, len(g.events.events)),
	}
	copy(s.Events, g.events.events)
	for _, a := range g.Agents {
		s.Agents = append(s.Agents, model.AgentState{
			Id:       a.Id,
			Name:     a.Name,
			X:        a.X,
			Y:        a.Y,
			AP:       a.AP,
			Carrying: a.Carrying,
			Saved:    a.Saved,
			Health:   a.Health.Name(),
		})
	}
	for y := 0; y < g.Board.Height; y++ {
		for x := 0; x < g.Board.Width; x++ {
			cell := g.Board.Matrix[x][y]
			if cell.Fire {
				s.Fires = append(s.Fires, model.Point{X: x, Y: y})
			} else if cell.Smoke {
				s.Smoke = append(s.Smoke, model.Point{X: x, Y: y})
			}
		}
	}
	return s
}
