package session

import "github.com/vancomm/shapesweeper/internal/mines"

const (
	MessageWin         = "win"
	MessageLoss        = "loss"
	MessageEmptyLayout = "empty layout"
)

// Snapshot is everything a client needs to draw a round.
type Snapshot struct {
	SessionID string      `json:"session_id"`
	Map       string      `json:"map"`
	Mode      int         `json:"mode"`
	ModeCount int         `json:"mode_count"`
	State     mines.State `json:"state"`
	Rows      int         `json:"rows"`
	Cols      int         `json:"cols"`
	Grid      mines.Grid  `json:"grid"`
	MineCount int         `json:"mine_count"`
	MinesLeft int         `json:"mines_left"`
	Elapsed   int         `json:"elapsed"`
	Message   string      `json:"message,omitempty"`
}

func (s *Session) snapshot() Snapshot {
	l := s.game.Layout()
	snap := Snapshot{
		SessionID: s.ID,
		Map:       s.Map,
		Mode:      s.mode,
		ModeCount: len(s.modes),
		State:     s.game.State(),
		Rows:      l.Rows,
		Cols:      l.Cols,
		Grid:      s.game.Grid(),
		MineCount: s.game.MineCount(),
		MinesLeft: s.game.MinesLeft(),
		Elapsed:   s.elapsed,
	}
	switch {
	case s.game.Idle():
		snap.Message = MessageEmptyLayout
	case snap.State == mines.Won:
		snap.Message = MessageWin
	case snap.State == mines.Lost:
		snap.Message = MessageLoss
	}
	return snap
}
