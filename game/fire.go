package game

import (
	"math/rand"

	log "github.com/sirupsen/logrus"

	"github.com/Morgana119/spaceRescue/model"
)

// Dice rolls interior coordinates, never the outermost ring.
type Dice struct {
	rnd           *rand.Rand
	width, height int
}

func NewDice(rnd *rand.Rand, width, height int) *Dice {
	return &Dice{rnd: rnd, width: width, height: height}
}

func (d *Dice) Roll() (int, int) {
	x := d.minX() + d.rnd.Intn(d.width-2)
	y := d.minY() + d.rnd.Intn(d.height-2)
	return x, y
}

func (d *Dice) minX() int { return 1 }
func (d *Dice) maxX() int { return d.width - 2 }
func (d *Dice) minY() int { return 1 }
func (d *Dice) maxY() int { return d.height - 2 }

type FireDirector struct {
	board   *model.Board
	events  *eventLog
	ignited []model.Point
}

func NewFireDirector(board *model.Board, events *eventLog) *FireDirector {
	return &FireDirector{board: board, events: events}
}

// Spread applies one dice result, then lets smoke next to fire ignite. It
// returns every cell that caught fire during the call, in order.
func (f *FireDirector) Spread(x, y int) []model.Point {
	f.ignited = nil
	cell := f.board.Cell(x, y)
	switch {
	case !cell.Fire && !cell.Smoke:
		f.board.SetSmoke(x, y, true)
		f.events.add(model.Event{Source: model.SourceFire, Action: "SMOKE", X: x, Y: y})
		log.Debugf("fire: smoke at (%d,%d)", x, y)
	case cell.Smoke:
		f.ignite(x, y)
	default:
		f.explode(x, y)
	}
	f.resolveSmoke()
	return f.ignited
}

func (f *FireDirector) ignite(x, y int) {
	f.board.SetFire(x, y, true)
	f.ignited = append(f.ignited, model.Point{X: x, Y: y})
	f.events.add(model.Event{Source: model.SourceFire, Action: "FIRE", X: x, Y: y})
	log.Debugf("fire: ignited (%d,%d)", x, y)
}

func (f *FireDirector) explode(x, y int) {
	log.Debugf("fire: explosion at (%d,%d)", x, y)
	f.events.add(model.Event{Source: model.SourceFire, Action: "EXPLOSION", X: x, Y: y})
	for _, d := range model.Directions {
		switch f.board.Wall(x, y, d) {
		case model.Open:
			f.placeFire(x, y, d)
		case model.Intact:
			f.board.Damage(x, y, d)
			f.events.add(model.Event{Source: model.SourceFire, Action: "WALL_DAMAGED", X: x, Y: y, Dir: d.Name()})
		case model.Damaged:
			f.board.Damage(x, y, d)
			f.events.add(model.Event{Source: model.SourceFire, Action: "WALL_DESTROYED", X: x, Y: y, Dir: d.Name()})
		case model.Door:
			f.board.SetWall(x, y, d, model.Open)
			f.events.add(model.Event{Source: model.SourceFire, Action: "DOOR_BLOWN", X: x, Y: y, Dir: d.Name()})
		}
	}
}

// placeFire walks away from (x, y) and ignites the first cell not already
// burning. Burning cells on the way are skipped.
func (f *FireDirector) placeFire(x, y int, d model.Direction) {
	nx, ny, ok := f.board.Neighbor(x, y, d)
	for ok {
		if !f.board.Fire(nx, ny) {
			f.ignite(nx, ny)
			return
		}
		nx, ny, ok = f.board.Neighbor(nx, ny, d)
	}
}

// resolveSmoke turns smoke touching fire into fire until nothing changes.
func (f *FireDirector) resolveSmoke() {
	for changed := true; changed; {
		changed = false
		for y := 0; y < f.board.Height; y++ {
			for x := 0; x < f.board.Width; x++ {
				if f.board.Smoke(x, y) && f.touchesFire(x, y) {
					f.ignite(x, y)
					changed = true
				}
			}
		}
	}
}

func (f *FireDirector) touchesFire(x, y int) bool {
	for _, d := range model.Directions {
		if nx, ny, ok := f.board.Neighbor(x, y, d); ok && f.board.Fire(nx, ny) {
			return true
		}
	}
	return false
}
