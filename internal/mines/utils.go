package mines

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// adjacent reports whether a and b are the same cell or touch, including
// diagonally.
func adjacent(a, b Point) bool {
	return absDiff(a.Row, b.Row) <= 1 && absDiff(a.Col, b.Col) <= 1
}
