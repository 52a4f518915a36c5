package game

import (
	log "github.com/sirupsen/logrus"

	"github.com/Morgana119/spaceRescue/model"
)

// playTurn refills the budget and keeps acting until it is spent or no
// candidate action succeeds.
func (g *Game) playTurn(a *model.Agent) {
	a.AP = g.rules.ActionPoints
	a.Health = model.Alive
	for a.AP > 0 {
		if !g.act(a) {
			log.Debugf("agent %d could not act, ap=%d", a.Id, a.AP)
			break
		}
	}
}

// act runs one micro-turn of the random policy. Directions are shuffled
// first, then the own-cell extinguish is tried, then for every direction the
// five action kinds are shuffled and tried in order.
func (g *Game) act(a *model.Agent) bool {
	dirs := model.Directions
	g.rnd.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

	if g.extinguishOwn(a) {
		return true
	}
	for _, d := range dirs {
		kinds := actionKinds
		g.rnd.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })
		for _, k := range kinds {
			if g.Perform(a, k, d) {
				return true
			}
		}
	}
	return false
}

// Perform tries one directional action. False means it was not legal and
// nothing changed.
func (g *Game) Perform(a *model.Agent, k ActionKind, d model.Direction) bool {
	switch k {
	case Move:
		return g.move(a, d)
	case OpenDoor:
		return g.openDoor(a, d)
	case StopFire:
		return g.stopFire(a, d)
	case BreakWall:
		return g.breakWall(a, d)
	case ExtinguishFull:
		return g.extinguishAt(a, d)
	default:
		return false
	}
}

func (g *Game) record(a *model.Agent, k ActionKind, x, y int, d model.Direction) {
	g.events.add(model.Event{
		Source: model.SourceAgent,
		Agent:  a.Id,
		Action: k.Name(),
		X:      x,
		Y:      y,
		Dir:    d.Name(),
	})
	log.Debugf("agent %d %s %s -> (%d,%d), ap=%d", a.Id, k.Name(), d.Name(), x, y, a.AP)
}

// target returns the neighbour in d together with the wall between them.
func (g *Game) target(a *model.Agent, d model.Direction) (int, int, model.WallState, bool) {
	nx, ny, ok := g.Board.Neighbor(a.X, a.Y, d)
	if !ok {
		return 0, 0, model.Open, false
	}
	return nx, ny, g.Board.Wall(a.X, a.Y, d), true
}

func (g *Game) move(a *model.Agent, d model.Direction) bool {
	nx, ny, wall, ok := g.target(a, d)
	if !ok || wall != model.Open {
		return false
	}
	burning := g.Board.Fire(nx, ny)
	if burning && a.Carrying {
		return false
	}
	cost := 1
	if burning || a.Carrying {
		cost = 2
	}
	if a.AP < cost {
		return false
	}
	a.X, a.Y = nx, ny
	a.AP -= cost
	g.record(a, Move, nx, ny, d)

	switch {
	case a.Carrying && g.Board.IsAmbulance(nx, ny):
		g.saveVictim(a)
	case !a.Carrying && g.Board.HasPOI(nx, ny):
		g.revealPOI(a, nx, ny)
	}
	return true
}

func (g *Game) openDoor(a *model.Agent, d model.Direction) bool {
	nx, ny, wall, ok := g.target(a, d)
	if !ok || wall != model.Door || a.AP < 1 {
		return false
	}
	g.Board.SetWall(a.X, a.Y, d, model.Open)
	a.AP--
	g.record(a, OpenDoor, nx, ny, d)
	return true
}

// stopFire clears smoke, or knocks fire down to smoke, one cell away.
func (g *Game) stopFire(a *model.Agent, d model.Direction) bool {
	nx, ny, wall, ok := g.target(a, d)
	if !ok || wall != model.Open || a.AP < 1 {
		return false
	}
	switch {
	case g.Board.Smoke(nx, ny):
		g.Board.SetSmoke(nx, ny, false)
	case g.Board.Fire(nx, ny):
		g.Board.SetSmoke(nx, ny, true)
	default:
		return false
	}
	a.AP--
	g.record(a, StopFire, nx, ny, d)
	return true
}

func (g *Game) extinguishOwn(a *model.Agent) bool {
	if !g.Board.Fire(a.X, a.Y) || a.AP < 2 {
		return false
	}
	g.Board.Clear(a.X, a.Y)
	a.AP -= 2
	g.events.add(model.Event{Source: model.SourceAgent, Agent: a.Id, Action: ExtinguishFull.Name(), X: a.X, Y: a.Y})
	log.Debugf("agent %d %s own cell (%d,%d), ap=%d", a.Id, ExtinguishFull.Name(), a.X, a.Y, a.AP)
	return true
}

func (g *Game) extinguishAt(a *model.Agent, d model.Direction) bool {
	nx, ny, wall, ok := g.target(a, d)
	if !ok || wall != model.Open || !g.Board.Fire(nx, ny) || a.AP < 2 {
		return false
	}
	g.Board.Clear(nx, ny)
	a.AP -= 2
	g.record(a, ExtinguishFull, nx, ny, d)
	return true
}

func (g *Game) breakWall(a *model.Agent, d model.Direction) bool {
	nx, ny, wall, ok := g.target(a, d)
	if !ok || (wall != model.Intact && wall != model.Damaged) || a.AP < 2 {
		return false
	}
	g.Board.Damage(a.X, a.Y, d)
	a.AP -= 2
	g.record(a, BreakWall, nx, ny, d)
	return true
}

// revealPOI exposes the token under the agent. A victim is picked up and
// has to be walked to an ambulance to count as saved.
func (g *Game) revealPOI(a *model.Agent, x, y int) {
	kind, ok := g.pois.Reveal(x, y)
	if !ok {
		return
	}
	g.events.add(model.Event{Source: model.SourceAgent, Agent: a.Id, Action: "REVEAL_" + kind.Name(), X: x, Y: y})
	if kind == model.Victim {
		a.Carrying = true
	}
	g.pois.Ensure(g.occupied)
}

func (g *Game) saveVictim(a *model.Agent) {
	a.Carrying = false
	a.Saved++
	g.saved++
	g.events.add(model.Event{Source: model.SourceAgent, Agent: a.Id, Action: "SAVE", X: a.X, Y: a.Y})
	log.Infof("agent %d saved a victim at (%d,%d), saved=%d", a.Id, a.X, a.Y, g.saved)
}

// knockdown drops a carried victim and sends the agent to the nearest
// ambulance with no action points left.
func (g *Game) knockdown(a *model.Agent) {
	if a.Carrying {
		a.Carrying = false
		g.dead++
		g.events.add(model.Event{Source: model.SourceFire, Agent: a.Id, Action: "VICTIM_LOST", X: a.X, Y: a.Y})
	}
	if p, ok := g.Board.NearestAmbulance(a.X, a.Y); ok {
		a.X, a.Y = p.X, p.Y
	}
	a.AP = 0
	a.Health = model.KnockedDown
	g.events.add(model.Event{Source: model.SourceFire, Agent: a.Id, Action: "KNOCKDOWN", X: a.X, Y: a.Y})
	log.Infof("agent %d knocked down, now at (%d,%d), dead=%d", a.Id, a.X, a.Y, g.dead)
}
