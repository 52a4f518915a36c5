package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Morgana119/spaceRescue/model"
)

const small = `{
  "width": 3, "height": 3,
  "walls": [
    ["0000", "0010", "0000"],
    ["0100", "1111", "0001"],
    ["0000", "1000", "0000"]
  ],
  "fires": [{"x": 1, "y": 1}],
  "pois": [{"x": 2, "y": 2}],
  "ambulances": [{"x": 0, "y": 0}]
}`

func TestDefault(t *testing.T) {
	l := Default()
	assert.Equal(t, 10, l.Width)
	assert.Equal(t, 8, l.Height)
	assert.Len(t, l.Fires, 10)
	assert.Len(t, l.POIs, 3)
	assert.Len(t, l.Ambulances, 4)
	require.NoError(t, l.Validate())

	b := l.Board()
	require.NoError(t, b.Verify())
	for _, p := range l.Fires {
		assert.True(t, b.Fire(p.X, p.Y))
	}
	assert.Equal(t, 0, b.DamagedWalls)
	// entrances open straight onto the ambulances
	assert.Equal(t, model.Open, b.Wall(6, 1, model.North))
	assert.Equal(t, model.Door, b.Wall(3, 1, model.East))
}

func TestParse(t *testing.T) {
	l, err := Parse([]byte(small))
	require.NoError(t, err)
	b := l.Board()
	assert.Equal(t, model.Intact, b.Wall(1, 1, model.North))
	assert.Equal(t, model.Intact, b.Wall(1, 0, model.South))
	assert.True(t, b.Fire(1, 1))
	assert.False(t, b.HasPOI(2, 2))
	assert.Equal(t, l.Walls, b.WallCodes())
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"bad code":      `{"width":3,"height":3,"walls":[["0000","0000","0000"],["0000","0004","0000"],["0000","0000","0000"]],"ambulances":[{"x":0,"y":0}]}`,
		"unknown field": `{"width":3,"height":3,"doors":1,"walls":[["0000","0000","0000"],["0000","0000","0000"],["0000","0000","0000"]],"ambulances":[{"x":0,"y":0}]}`,
		"no ambulance":  `{"width":3,"height":3,"walls":[["0000","0000","0000"],["0000","0000","0000"],["0000","0000","0000"]],"ambulances":[]}`,
		"row count":     `{"width":3,"height":4,"walls":[["0000","0000","0000"],["0000","0000","0000"],["0000","0000","0000"]],"ambulances":[{"x":0,"y":0}]}`,
		"mirroring":     `{"width":3,"height":3,"walls":[["0000","0000","0000"],["0000","1000","0000"],["0000","0000","0000"]],"ambulances":[{"x":0,"y":0}]}`,
		"poi on fire":   `{"width":3,"height":3,"walls":[["0000","0000","0000"],["0000","0000","0000"],["0000","0000","0000"]],"fires":[{"x":1,"y":1}],"pois":[{"x":1,"y":1}],"ambulances":[{"x":0,"y":0}]}`,
		"point outside": `{"width":3,"height":3,"walls":[["0000","0000","0000"],["0000","0000","0000"],["0000","0000","0000"]],"ambulances":[{"x":3,"y":0}]}`,
		"duplicate poi": `{"width":3,"height":3,"walls":[["0000","0000","0000"],["0000","0000","0000"],["0000","0000","0000"]],"pois":[{"x":1,"y":1},{"x":1,"y":1}],"ambulances":[{"x":0,"y":0}]}`,
		"not json":      `walls: 0000`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "house.json")
	require.NoError(t, os.WriteFile(path, []byte(small), 0o644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Width)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
