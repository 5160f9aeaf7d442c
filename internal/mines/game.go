package mines

import (
	"log/slog"
	"math/rand/v2"
)

var Log *slog.Logger = slog.Default()

// Game is one round of minesweeper over an arbitrary layout. It is not safe
// for concurrent use; callers serialize access.
type Game struct {
	layout    Layout
	cells     []Point /* valid cells */
	mineCount int
	placed    int /* mines actually on the board */

	mines    []bool /* real mine points */
	revealed []bool
	flagged  []bool
	adjacent []int8 /* mined neighbor count of revealed cells */
	exploded int

	state State
	rnd   *rand.Rand
}

func NewGame(r *rand.Rand) *Game {
	return &Game{rnd: r, exploded: -1}
}

// LoadLayout discards the current round and starts a new one on l. It
// returns [ErrEmptyLayout] if l has no valid cells, in which case the game
// stays idle and every move is ignored.
func (g *Game) LoadLayout(l Layout) error {
	size := l.Rows * l.Cols

	g.layout = l
	g.cells = l.Cells()
	g.mineCount = MineCount(len(g.cells))
	g.placed = 0
	g.mines = make([]bool, size)
	g.revealed = make([]bool, size)
	g.flagged = make([]bool, size)
	g.adjacent = make([]int8, size)
	g.exploded = -1
	g.state = Setup

	if len(g.cells) == 0 {
		return ErrEmptyLayout
	}
	return nil
}

// Restart starts a fresh round on the current layout.
func (g *Game) Restart() error {
	return g.LoadLayout(g.layout)
}

func (g *Game) Layout() Layout    { return g.layout }
func (g *Game) State() State      { return g.state }
func (g *Game) Size() int         { return len(g.cells) }
func (g *Game) MineCount() int    { return g.mineCount }
func (g *Game) MinesPlaced() bool { return g.state != Setup }
func (g *Game) Idle() bool        { return len(g.cells) == 0 }

func (g *Game) Over() bool {
	return g.state == Won || g.state == Lost
}

// Reveal opens the cell at p. The first reveal of a round places the mines,
// keeping p and its neighbors clear. Opening a cell with no mined neighbors
// opens its neighbors too, and so on. Reveal reports whether the board
// changed; invalid, revealed and flagged cells are ignored, as is any move
// once the round is over.
func (g *Game) Reveal(p Point) bool {
	if !g.layout.Valid(p) || g.Over() {
		return false
	}
	i := g.layout.index(p)
	if g.revealed[i] || g.flagged[i] {
		return false
	}

	if g.state == Setup {
		g.placeMines(p)
		g.state = Active
	}

	if g.mines[i] {
		g.state = Lost
		g.exploded = i
		return true
	}

	g.flood(p)
	g.checkWin()
	return true
}

func (g *Game) flood(start Point) {
	stack := []Point{start}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i := g.layout.index(p)
		if g.revealed[i] || g.flagged[i] {
			continue
		}
		g.revealed[i] = true

		n := g.countMines(p)
		g.adjacent[i] = int8(n)
		if n > 0 {
			continue
		}
		for q := range g.layout.Neighbors(p) {
			j := g.layout.index(q)
			if !g.revealed[j] && !g.flagged[j] {
				stack = append(stack, q)
			}
		}
	}
}

func (g *Game) checkWin() {
	safe := 0
	for _, p := range g.cells {
		i := g.layout.index(p)
		if g.revealed[i] && !g.mines[i] {
			safe++
		}
	}
	if safe == len(g.cells)-g.placed {
		g.state = Won
	}
}

// ToggleFlag flips the flag on a hidden cell. Flags are allowed before the
// first reveal and are never limited to the mine count.
func (g *Game) ToggleFlag(p Point) bool {
	if !g.layout.Valid(p) || g.Over() {
		return false
	}
	i := g.layout.index(p)
	if g.revealed[i] {
		return false
	}
	g.flagged[i] = !g.flagged[i]
	return true
}

// Chord opens every hidden unflagged neighbor of a revealed number once
// the number of flags around it matches.
func (g *Game) Chord(p Point) bool {
	if !g.layout.Valid(p) || g.Over() {
		return false
	}
	i := g.layout.index(p)
	if !g.revealed[i] || g.adjacent[i] == 0 {
		return false
	}

	flags := 0
	hidden := make([]Point, 0, 8)
	for q := range g.layout.Neighbors(p) {
		j := g.layout.index(q)
		if g.flagged[j] {
			flags++
		} else if !g.revealed[j] {
			hidden = append(hidden, q)
		}
	}
	if flags != int(g.adjacent[i]) || len(hidden) == 0 {
		return false
	}

	for _, q := range hidden {
		g.Reveal(q)
		if g.Over() {
			break
		}
	}
	return true
}

func (g *Game) FlagCount() int {
	n := 0
	for _, f := range g.flagged {
		if f {
			n++
		}
	}
	return n
}

// MinesLeft is the counter shown to the player. It goes negative when
// there are more flags than mines.
func (g *Game) MinesLeft() int {
	return g.mineCount - g.FlagCount()
}

func (g *Game) Revealed(p Point) bool {
	return g.layout.Valid(p) && g.revealed[g.layout.index(p)]
}

func (g *Game) Flagged(p Point) bool {
	return g.layout.Valid(p) && g.flagged[g.layout.index(p)]
}

// IsMine is always false before the first reveal.
func (g *Game) IsMine(p Point) bool {
	return g.layout.Valid(p) && g.mines[g.layout.index(p)]
}

// Status is what the player sees at p.
func (g *Game) Status(p Point) CellStatus {
	if !g.layout.Valid(p) {
		return Invalid
	}
	i := g.layout.index(p)
	switch {
	case g.revealed[i]:
		return CellStatus(g.adjacent[i])
	case g.state == Lost && i == g.exploded:
		return ExplodedMine
	case g.state == Lost && g.mines[i]:
		return Mine
	case g.state == Lost && g.flagged[i]:
		return WrongFlag
	case g.flagged[i]:
		return Flag
	case g.state == Won && g.mines[i]:
		return Flag
	default:
		return Unknown
	}
}

func (g *Game) Grid() Grid {
	grid := make(Grid, g.layout.Rows)
	for r := range g.layout.Rows {
		grid[r] = make([]CellStatus, g.layout.Cols)
		for c := range g.layout.Cols {
			grid[r][c] = g.Status(Point{Row: r, Col: c})
		}
	}
	return grid
}
