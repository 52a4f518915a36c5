package game

import (
	"math/rand"

	log "github.com/sirupsen/logrus"

	"github.com/Morgana119/spaceRescue/model"
)

// POIManager owns the undrawn deck and the index of hidden tokens on the
// board. The tokens themselves live in the cells.
type POIManager struct {
	board   *model.Board
	rnd     *rand.Rand
	dice    *Dice
	events  *eventLog
	target  int
	deck    []model.POIKind
	onBoard []model.Point
}

func NewPOIManager(board *model.Board, rnd *rand.Rand, dice *Dice, events *eventLog, rules Rules) *POIManager {
	deck := make([]model.POIKind, 0, rules.DeckVictims+rules.DeckFalseAlarms)
	for i := 0; i < rules.DeckVictims; i++ {
		deck = append(deck, model.Victim)
	}
	for i := 0; i < rules.DeckFalseAlarms; i++ {
		deck = append(deck, model.FalseAlarm)
	}
	return &POIManager{
		board:  board,
		rnd:    rnd,
		dice:   dice,
		events: events,
		target: rules.POIOnBoard,
		deck:   deck,
	}
}

func (m *POIManager) DeckSize() int {
	return len(m.deck)
}

func (m *POIManager) OnBoard() []model.Point {
	out := make([]model.Point, len(m.onBoard))
	copy(out, m.onBoard)
	return out
}

// draw takes a random card without replacement.
func (m *POIManager) draw() (model.POIKind, bool) {
	if len(m.deck) == 0 {
		return 0, false
	}
	i := m.rnd.Intn(len(m.deck))
	kind := m.deck[i]
	last := len(m.deck) - 1
	m.deck[i] = m.deck[last]
	m.deck = m.deck[:last]
	return kind, true
}

// Place draws a card and hides it at (x, y).
func (m *POIManager) Place(x, y int) bool {
	if m.board.HasPOI(x, y) {
		return false
	}
	kind, ok := m.draw()
	if !ok {
		return false
	}
	m.board.PlacePOI(x, y, kind)
	m.onBoard = append(m.onBoard, model.Point{X: x, Y: y})
	m.events.add(model.Event{Source: model.SourcePOI, Action: "PLACE", X: x, Y: y})
	log.Debugf("poi placed at (%d,%d), deck=%d", x, y, len(m.deck))
	return true
}

// Reveal exposes and removes the token at (x, y).
func (m *POIManager) Reveal(x, y int) (model.POIKind, bool) {
	kind, ok := m.board.TakePOI(x, y)
	if !ok {
		return 0, false
	}
	for i, p := range m.onBoard {
		if p.X == x && p.Y == y {
			m.onBoard = append(m.onBoard[:i], m.onBoard[i+1:]...)
			break
		}
	}
	log.Debugf("poi at (%d,%d) revealed as %s", x, y, kind.Name())
	return kind, true
}

func (m *POIManager) valid(x, y int, occupied func(x, y int) bool) bool {
	if !m.board.Inside(x, y) {
		return false
	}
	cell := m.board.Cell(x, y)
	return !cell.Fire && !cell.Smoke && cell.POI == nil && !occupied(x, y)
}

// Ensure tops the board back up to the target count. It stops early once the
// deck is empty or no interior cell can take a token.
func (m *POIManager) Ensure(occupied func(x, y int) bool) int {
	placed := 0
	for len(m.onBoard) < m.target && len(m.deck) > 0 {
		if !m.anyValid(occupied) {
			log.Debugf("poi replenish: no free interior cell, %d on board", len(m.onBoard))
			break
		}
		x, y := m.dice.Roll()
		for !m.valid(x, y, occupied) {
			x, y = m.dice.Roll()
		}
		m.Place(x, y)
		placed++
	}
	return placed
}

func (m *POIManager) anyValid(occupied func(x, y int) bool) bool {
	for x := m.dice.minX(); x <= m.dice.maxX(); x++ {
		for y := m.dice.minY(); y <= m.dice.maxY(); y++ {
			if m.valid(x, y, occupied) {
				return true
			}
		}
	}
	return false
}
