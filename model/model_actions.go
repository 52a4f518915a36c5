package model

import "fmt"

// NewBoard builds a width x height board with every wall open.
func NewBoard(width, height int, ambulances []Point) *Board {
	matrix := make([][]*Cell, 0, width)
	for x := 0; x < width; x++ {
		column := make([]*Cell, 0, height)
		for y := 0; y < height; y++ {
			column = append(column, &Cell{X: x, Y: y})
		}
		matrix = append(matrix, column)
	}
	amb := make([]Point, len(ambulances))
	copy(amb, ambulances)
	return &Board{
		Width:      width,
		Height:     height,
		Matrix:     matrix,
		Ambulances: amb,
	}
}

func (b *Board) Inside(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// Cell panics outside the board: callers check Inside first.
func (b *Board) Cell(x, y int) *Cell {
	if !b.Inside(x, y) {
		panic(fmt.Sprintf("cell (%d,%d) outside %dx%d board", x, y, b.Width, b.Height))
	}
	return b.Matrix[x][y]
}

func (b *Board) Neighbor(x, y int, d Direction) (int, int, bool) {
	dx, dy := d.Delta()
	nx, ny := x+dx, y+dy
	if !b.Inside(nx, ny) {
		return 0, 0, false
	}
	return nx, ny, true
}

func (b *Board) Wall(x, y int, d Direction) WallState {
	return b.Cell(x, y).Walls[d]
}

// SetWall is the only way a wall changes. The neighbour's opposite side
// always gets the same value.
func (b *Board) SetWall(x, y int, d Direction, s WallState) {
	b.Cell(x, y).Walls[d] = s
	if nx, ny, ok := b.Neighbor(x, y, d); ok {
		b.Matrix[nx][ny].Walls[d.Opposite()] = s
	}
}

// Damage downgrades an Intact or Damaged wall one step and counts it once.
func (b *Board) Damage(x, y int, d Direction) bool {
	switch b.Wall(x, y, d) {
	case Intact:
		b.SetWall(x, y, d, Damaged)
	case Damaged:
		b.SetWall(x, y, d, Open)
	default:
		return false
	}
	b.DamagedWalls++
	return true
}

func (b *Board) Fire(x, y int) bool {
	return b.Cell(x, y).Fire
}

func (b *Board) Smoke(x, y int) bool {
	return b.Cell(x, y).Smoke
}

func (b *Board) SetFire(x, y int, on bool) {
	cell := b.Cell(x, y)
	cell.Fire = on
	if on {
		cell.Smoke = false
	}
}

func (b *Board) SetSmoke(x, y int, on bool) {
	cell := b.Cell(x, y)
	cell.Smoke = on
	if on {
		cell.Fire = false
	}
}

func (b *Board) Clear(x, y int) {
	cell := b.Cell(x, y)
	cell.Fire = false
	cell.Smoke = false
}

func (b *Board) HasPOI(x, y int) bool {
	return b.Cell(x, y).POI != nil
}

func (b *Board) PlacePOI(x, y int, kind POIKind) {
	b.Cell(x, y).POI = &POI{Kind: kind}
}

func (b *Board) TakePOI(x, y int) (POIKind, bool) {
	cell := b.Cell(x, y)
	if cell.POI == nil {
		return 0, false
	}
	kind := cell.POI.Kind
	cell.POI = nil
	return kind, true
}

func (b *Board) IsAmbulance(x, y int) bool {
	for _, a := range b.Ambulances {
		if a.X == x && a.Y == y {
			return true
		}
	}
	return false
}

// NearestAmbulance picks the lowest Manhattan distance; ties go to the
// ambulance listed first.
func (b *Board) NearestAmbulance(x, y int) (Point, bool) {
	best, bestDist := Point{}, -1
	for _, a := range b.Ambulances {
		d := abs(a.X-x) + abs(a.Y-y)
		if bestDist < 0 || d < bestDist {
			best, bestDist = a, d
		}
	}
	return best, bestDist >= 0
}

// WallCodes renders the walls back into layout rows, y major.
func (b *Board) WallCodes() [][]string {
	rows := make([][]string, 0, b.Height)
	for y := 0; y < b.Height; y++ {
		row := make([]string, 0, b.Width)
		for x := 0; x < b.Width; x++ {
			var code [4]byte
			for _, d := range Directions {
				code[d] = b.Matrix[x][y].Walls[d].Code()
			}
			row = append(row, string(code[:]))
		}
		rows = append(rows, row)
	}
	return rows
}

// Verify checks wall mirroring and fire/smoke exclusion on every cell.
func (b *Board) Verify() error {
	for x := 0; x < b.Width; x++ {
		for y := 0; y < b.Height; y++ {
			cell := b.Matrix[x][y]
			if cell.Fire && cell.Smoke {
				return fmt.Errorf("cell (%d,%d) has fire and smoke", x, y)
			}
			for _, d := range Directions {
				nx, ny, ok := b.Neighbor(x, y, d)
				if !ok {
					continue
				}
				other := b.Matrix[nx][ny].Walls[d.Opposite()]
				if cell.Walls[d] != other {
					return fmt.Errorf("wall (%d,%d) %s is %s but (%d,%d) %s is %s",
						x, y, d.Name(), cell.Walls[d].Name(),
						nx, ny, d.Opposite().Name(), other.Name())
				}
			}
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
