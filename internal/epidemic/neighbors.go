package epidemic

// Offset is a (row, col) displacement.
type Offset struct {
	DRow, DCol int
}

// MooreOffsets lists the Moore neighborhood in the order it is scanned:
// row-major, Δrow outer and Δcol inner. Infected neighbors get their
// infection trial in this order.
var MooreOffsets = [8]Offset{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Neighbors returns the in-bounds Moore neighbors of (row, col) in scan order.
// Cells on the border have fewer neighbors; the grid does not wrap.
func Neighbors(size, row, col int) [][2]int {
	out := make([][2]int, 0, len(MooreOffsets))
	for _, o := range MooreOffsets {
		r, c := row+o.DRow, col+o.DCol
		if r < 0 || r >= size || c < 0 || c >= size {
			continue
		}
		out = append(out, [2]int{r, c})
	}
	return out
}
