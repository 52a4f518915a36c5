package journal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Morgana119/spaceRescue/game"
	"github.com/Morgana119/spaceRescue/model"
)

type MismatchError struct {
	Turn     int
	Recorded []byte
	Replayed []byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("turn %d diverges from the journal", e.Turn)
}

// Replay rebuilds the game from setup, steps it once per recorded turn and
// compares every snapshot. It returns how many turns matched.
func Replay(setup game.Setup, turns []model.Snapshot) (int, error) {
	g, err := game.New(setup)
	if err != nil {
		return 0, err
	}
	for i, want := range turns {
		got, err := g.Step()
		if err != nil {
			return i, fmt.Errorf("turn %d: %w", want.Turn, err)
		}
		got.GameId = want.GameId
		a, err := json.Marshal(want)
		if err != nil {
			return i, err
		}
		b, err := json.Marshal(got)
		if err != nil {
			return i, err
		}
		if !bytes.Equal(a, b) {
			return i, &MismatchError{Turn: want.Turn, Recorded: a, Replayed: b}
		}
	}
	return len(turns), nil
}
