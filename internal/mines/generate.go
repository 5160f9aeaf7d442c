package mines

import "log/slog"

// placeMines puts the round's mines on valid cells, none of which is at
// anchor or within one cell of it. The sample is a partial Fisher-Yates
// shuffle of the candidate list. If there are fewer candidates than
// mineCount, every candidate becomes a mine and g.placed records the
// shortfall.
func (g *Game) placeMines(anchor Point) {
	/*
	 * Write down the list of possible mine locations.
	 */
	candidates := make([]int, 0, len(g.cells))
	for _, p := range g.cells {
		if !adjacent(p, anchor) {
			candidates = append(candidates, g.layout.index(p))
		}
	}

	n := g.mineCount
	if n > len(candidates) {
		Log.Debug("not enough cells outside the safe zone",
			slog.Int("mineCount", n),
			slog.Int("candidates", len(candidates)),
			slog.String("anchor", anchor.String()),
		)
		n = len(candidates)
	}

	/*
	 * Now pick n off the list at random.
	 */
	k := len(candidates)
	for range n {
		i := g.rnd.IntN(k)
		g.mines[candidates[i]] = true
		k--
		candidates[i] = candidates[k]
	}

	g.placed = n
}

func (g *Game) countMines(p Point) int {
	n := 0
	for q := range g.layout.Neighbors(p) {
		if g.mines[g.layout.index(q)] {
			n++
		}
	}
	return n
}
