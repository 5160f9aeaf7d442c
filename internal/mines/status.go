package mines

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type State int8

const (
	Setup  State = iota // layout loaded, no mines yet
	Active              // mines placed, play ongoing
	Won
	Lost
)

func (s State) String() string {
	switch s {
	case Setup:
		return "setup"
	case Active:
		return "active"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// [State] implements [json.Marshaler]
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	for _, candidate := range []State{Setup, Active, Won, Lost} {
		if candidate.String() == v {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown game state %q", v)
}

type CellStatus int8

const (
	Invalid      CellStatus = -4 // not part of the layout
	Unknown      CellStatus = -2
	Flag         CellStatus = -1
	ExplodedMine CellStatus = 65 // post-game-over
	WrongFlag    CellStatus = 66
	Mine         CellStatus = 67
	// 0-8 for a revealed cell with given number of mined neighbors
)

func (s CellStatus) String() string {
	switch s {
	case Invalid:
		return " "
	case Unknown:
		return "."
	case Flag:
		return "F"
	case 0:
		return "_"
	case 1, 2, 3, 4, 5, 6, 7, 8:
		return strconv.Itoa(int(s))
	case ExplodedMine:
		return "X"
	case WrongFlag:
		return "W"
	case Mine:
		return "*"
	default:
		return "!"
	}
}

// Grid is the player's view of the board, one row per layout row.
type Grid [][]CellStatus

func (g Grid) String() string {
	var b strings.Builder
	for _, row := range g {
		for _, s := range row {
			b.WriteString(s.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
