// Package layout reads the static building a game starts from: wall codes,
// initial fires, initial POI spots and ambulance parking.
package layout

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Morgana119/spaceRescue/model"
)

//go:embed layout.schema.json
var schemaJSON string

//go:embed default.json
var defaultJSON []byte

var schema = jsonschema.MustCompileString("layout.schema.json", schemaJSON)

var ErrInvalid = errors.New("invalid layout")

type Layout struct {
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Walls      [][]string    `json:"walls"`
	Fires      []model.Point `json:"fires,omitempty"`
	POIs       []model.Point `json:"pois,omitempty"`
	Ambulances []model.Point `json:"ambulances"`
}

// Default is the 10x8 house the simulation ships with.
func Default() Layout {
	l, err := Parse(defaultJSON)
	if err != nil {
		panic(err)
	}
	return l
}

func Load(path string) (Layout, error) {
	file, err := os.Open(path)
	if err != nil {
		return Layout{}, err
	}
	defer file.Close()
	l, err := read(file)
	if err != nil {
		return Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

func Parse(raw []byte) (Layout, error) {
	return read(bytes.NewReader(raw))
}

func read(reader io.Reader) (Layout, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return Layout{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.Validate(doc); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var l Layout
	if err := json.Unmarshal(raw, &l); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks what the schema cannot: grid shape, coordinates in bounds,
// mirrored walls and POIs off burning cells.
func (l Layout) Validate() error {
	if l.Width < 3 || l.Height < 3 {
		return fmt.Errorf("%w: board %dx%d is smaller than 3x3", ErrInvalid, l.Width, l.Height)
	}
	if len(l.Walls) != l.Height {
		return fmt.Errorf("%w: %d wall rows for height %d", ErrInvalid, len(l.Walls), l.Height)
	}
	for y, row := range l.Walls {
		if len(row) != l.Width {
			return fmt.Errorf("%w: wall row %d has %d cells for width %d", ErrInvalid, y, len(row), l.Width)
		}
		for x, code := range row {
			if len(code) != 4 {
				return fmt.Errorf("%w: wall code %q at (%d,%d)", ErrInvalid, code, x, y)
			}
			for i := 0; i < 4; i++ {
				if _, ok := model.WallFromCode(code[i]); !ok {
					return fmt.Errorf("%w: wall code %q at (%d,%d)", ErrInvalid, code, x, y)
				}
			}
		}
	}
	if len(l.Ambulances) == 0 {
		return fmt.Errorf("%w: no ambulance", ErrInvalid)
	}
	for _, group := range []struct {
		name   string
		points []model.Point
	}{{"fire", l.Fires}, {"poi", l.POIs}, {"ambulance", l.Ambulances}} {
		for _, p := range group.points {
			if p.X < 0 || p.X >= l.Width || p.Y < 0 || p.Y >= l.Height {
				return fmt.Errorf("%w: %s (%d,%d) outside board", ErrInvalid, group.name, p.X, p.Y)
			}
		}
	}
	burning := make(map[model.Point]bool, len(l.Fires))
	for _, p := range l.Fires {
		burning[p] = true
	}
	seen := make(map[model.Point]bool, len(l.POIs))
	for _, p := range l.POIs {
		if burning[p] {
			return fmt.Errorf("%w: poi (%d,%d) on fire", ErrInvalid, p.X, p.Y)
		}
		if seen[p] {
			return fmt.Errorf("%w: poi (%d,%d) listed twice", ErrInvalid, p.X, p.Y)
		}
		seen[p] = true
	}
	if err := l.walls().Verify(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func (l Layout) walls() *model.Board {
	board := model.NewBoard(l.Width, l.Height, l.Ambulances)
	for y, row := range l.Walls {
		for x, code := range row {
			cell := board.Matrix[x][y]
			for _, d := range model.Directions {
				cell.Walls[d], _ = model.WallFromCode(code[d])
			}
		}
	}
	return board
}

// Board builds a fresh board with walls and initial fires. POIs are left to
// the game, which draws their identity from the deck.
func (l Layout) Board() *model.Board {
	board := l.walls()
	for _, p := range l.Fires {
		board.SetFire(p.X, p.Y, true)
	}
	return board
}
