package game

import (
	"errors"
	"fmt"
)

var (
	ErrGameOver = errors.New("game is over")
	ErrNoAgents = errors.New("no agents")
	ErrCrowded  = errors.New("not enough free cells for agents")
)

type Rules struct {
	ActionPoints    int `yaml:"action_points" json:"action_points"`
	MaxDamagedWalls int `yaml:"max_damaged_walls" json:"max_damaged_walls"`
	MaxDeadVictims  int `yaml:"max_dead_victims" json:"max_dead_victims"`
	VictimsToWin    int `yaml:"victims_to_win" json:"victims_to_win"`
	POIOnBoard      int `yaml:"poi_on_board" json:"poi_on_board"`
	DeckVictims     int `yaml:"deck_victims" json:"deck_victims"`
	DeckFalseAlarms int `yaml:"deck_false_alarms" json:"deck_false_alarms"`
}

func DefaultRules() Rules {
	return Rules{
		ActionPoints:    4,
		MaxDamagedWalls: 24,
		MaxDeadVictims:  4,
		VictimsToWin:    7,
		POIOnBoard:      3,
		DeckVictims:     10,
		DeckFalseAlarms: 5,
	}
}

func (r Rules) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"action_points", r.ActionPoints},
		{"max_damaged_walls", r.MaxDamagedWalls},
		{"max_dead_victims", r.MaxDeadVictims},
		{"victims_to_win", r.VictimsToWin},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("rules: %s must be positive, got %d", p.name, p.value)
		}
	}
	if r.POIOnBoard < 0 || r.DeckVictims < 0 || r.DeckFalseAlarms < 0 {
		return fmt.Errorf("rules: poi counts must not be negative")
	}
	return nil
}

type Status int

const (
	Running Status = iota
	Won
	Lost
)

func (s Status) Name() string {
	switch s {
	case Running:
		return "none"
	case Won:
		return "win"
	case Lost:
		return "lose"
	default:
		return fmt.Sprintf("n/a:%d", s)
	}
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAgentTurn
	PhaseFireSpread
	PhasePOIReplenish
	PhaseKnockdown
	PhaseTerminalCheck
	PhaseEnded
)

func (p Phase) Name() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseAgentTurn:
		return "AGENT_TURN"
	case PhaseFireSpread:
		return "FIRE_SPREAD"
	case PhasePOIReplenish:
		return "POI_REPLENISH"
	case PhaseKnockdown:
		return "KNOCKDOWN"
	case PhaseTerminalCheck:
		return "TERMINAL_CHECK"
	case PhaseEnded:
		return "ENDED"
	default:
		return fmt.Sprintf("N/A(%d)", p)
	}
}

type ActionKind int

const (
	Move ActionKind = iota + 1
	OpenDoor
	StopFire
	BreakWall
	ExtinguishFull
)

// actionKinds is the candidate pool shuffled for every direction.
var actionKinds = [...]ActionKind{Move, OpenDoor, StopFire, BreakWall, ExtinguishFull}

func (k ActionKind) Name() string {
	switch k {
	case Move:
		return "MOVE"
	case OpenDoor:
		return "OPEN_DOOR"
	case StopFire:
		return "STOP_FIRE"
	case BreakWall:
		return "BREAK_WALL"
	case ExtinguishFull:
		return "EXTINGUISH"
	default:
		return fmt.Sprintf("N/A(%d)", k)
	}
}
