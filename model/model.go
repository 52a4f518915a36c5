package model

import "fmt"

type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists the four sides in wall-code order.
var Directions = [4]Direction{North, East, South, West}

func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	default:
		panic(d)
	}
}

func (d Direction) Name() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	default:
		return fmt.Sprintf("n/a:%d", d)
	}
}

type WallState int

const (
	Open WallState = iota
	Intact
	Damaged
	Door
)

func (w WallState) Name() string {
	switch w {
	case Open:
		return "OPEN"
	case Intact:
		return "INTACT"
	case Damaged:
		return "DAMAGED"
	case Door:
		return "DOOR"
	default:
		return fmt.Sprintf("n/a:%d", w)
	}
}

// Code is the layout digit of the wall state.
func (w WallState) Code() byte {
	return '0' + byte(w)
}

func WallFromCode(c byte) (WallState, bool) {
	if c < '0' || c > '3' {
		return Open, false
	}
	return WallState(c - '0'), true
}

type POIKind int

const (
	Victim POIKind = iota + 1
	FalseAlarm
)

func (k POIKind) Name() string {
	switch k {
	case Victim:
		return "VICTIM"
	case FalseAlarm:
		return "FALSE_ALARM"
	default:
		return fmt.Sprintf("n/a:%d", k)
	}
}

type HealthState int

const (
	Alive HealthState = iota + 1
	KnockedDown
)

func (h HealthState) Name() string {
	switch h {
	case Alive:
		return "ALIVE"
	case KnockedDown:
		return "KNOCKED_DOWN"
	default:
		return fmt.Sprintf("n/a:%d", h)
	}
}

type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// POI is a hidden token; Kind stays unknown to renderers until revealed.
type POI struct {
	Kind POIKind
}

type Cell struct {
	X, Y  int
	Walls [4]WallState
	Fire  bool
	Smoke bool
	POI   *POI
}

type Agent struct {
	Id       int
	Name     string
	X, Y     int
	AP       int
	Carrying bool
	Saved    int
	Health   HealthState
}

type Board struct {
	Width, Height int
	// Matrix is indexed [x][y].
	Matrix       [][]*Cell
	Ambulances   []Point
	DamagedWalls int
}
