package mines

import (
	"fmt"
	"iter"
	"strings"
)

type Point struct {
	Row int `json:"row" schema:"row,required"`
	Col int `json:"col" schema:"col,required"`
}

func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Col)
}

// Layout is the shape of a board: a Rows x Cols index space where every
// cell is either valid (playable) or not. Cols is the length of the longest
// row of the source grid.
type Layout struct {
	Rows, Cols int
	valid      []bool
}

// NewLayout builds a Layout from a grid of 0/1 markers. Rows may differ in
// length; missing entries and any marker other than 1 are invalid.
func NewLayout(grid [][]int) Layout {
	cols := 0
	for _, row := range grid {
		cols = max(cols, len(row))
	}
	l := Layout{
		Rows:  len(grid),
		Cols:  cols,
		valid: make([]bool, len(grid)*cols),
	}
	for r, row := range grid {
		for c, v := range row {
			l.valid[r*cols+c] = v == 1
		}
	}
	return l
}

// ParseLayout reads a layout drawn with '#' (or '1') for valid cells and
// any other rune for holes, one row per line.
func ParseLayout(s string) Layout {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	grid := make([][]int, len(lines))
	for r, line := range lines {
		grid[r] = make([]int, 0, len(line))
		for _, ch := range line {
			if ch == '#' || ch == '1' {
				grid[r] = append(grid[r], 1)
			} else {
				grid[r] = append(grid[r], 0)
			}
		}
	}
	return NewLayout(grid)
}

func (l Layout) InBounds(p Point) bool {
	return 0 <= p.Row && p.Row < l.Rows && 0 <= p.Col && p.Col < l.Cols
}

func (l Layout) Valid(p Point) bool {
	return l.InBounds(p) && l.valid[l.index(p)]
}

func (l Layout) index(p Point) int {
	return p.Row*l.Cols + p.Col
}

func (l Layout) point(i int) Point {
	return Point{Row: i / l.Cols, Col: i % l.Cols}
}

// Cells lists every valid cell in row-major order.
func (l Layout) Cells() []Point {
	cells := make([]Point, 0, len(l.valid))
	for i, ok := range l.valid {
		if ok {
			cells = append(cells, l.point(i))
		}
	}
	return cells
}

// Size is the number of valid cells.
func (l Layout) Size() int {
	n := 0
	for _, ok := range l.valid {
		if ok {
			n++
		}
	}
	return n
}

// Neighbors yields the valid cells one Chebyshev step away from p.
func (l Layout) Neighbors(p Point) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				q := Point{Row: p.Row + dr, Col: p.Col + dc}
				if l.Valid(q) && !yield(q) {
					return
				}
			}
		}
	}
}

// Markers converts the layout back into a rectangular 0/1 grid.
func (l Layout) Markers() [][]int {
	grid := make([][]int, l.Rows)
	for r := range l.Rows {
		grid[r] = make([]int, l.Cols)
		for c := range l.Cols {
			if l.valid[r*l.Cols+c] {
				grid[r][c] = 1
			}
		}
	}
	return grid
}

func (l Layout) String() string {
	var b strings.Builder
	for r := range l.Rows {
		for c := range l.Cols {
			if l.valid[r*l.Cols+c] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// MineCount is ceil(0.15 * n).
func MineCount(n int) int {
	return (15*n + 99) / 100
}
