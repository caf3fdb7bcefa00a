package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/render"
)

const halfBlock = "▀"

// Canvas draws a grid with half-block glyphs. Every terminal cell shows two
// grid rows: the upper one as foreground, the lower one as background.
// Width and Height are in terminal cells.
type Canvas struct {
	Width, Height int
	styles        [epidemic.NumStates][epidemic.NumStates]lipgloss.Style
	single        [epidemic.NumStates]lipgloss.Style
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h}
	for top := range c.styles {
		fg := stateColor(epidemic.State(top))
		c.single[top] = lipgloss.NewStyle().Foreground(fg)
		for bottom := range c.styles[top] {
			c.styles[top][bottom] = lipgloss.NewStyle().
				Foreground(fg).
				Background(stateColor(epidemic.State(bottom)))
		}
	}
	return c
}

func stateColor(s epidemic.State) lipgloss.Color {
	p := render.Palette[s]
	return lipgloss.Color(hexColor(int(p.R), int(p.G), int(p.B)))
}

// Downsample reduces g to at most rows x cols blocks. A block containing an
// infected cell shows as infected so that sparse outbreaks stay visible;
// otherwise the most common state wins, lower state values breaking ties.
func Downsample(g *epidemic.Grid, rows, cols int) [][]epidemic.State {
	n := g.Size()
	if rows > n {
		rows = n
	}
	if cols > n {
		cols = n
	}

	out := make([][]epidemic.State, rows)
	for i := range out {
		out[i] = make([]epidemic.State, cols)
		r0, r1 := i*n/rows, (i+1)*n/rows
		for j := range out[i] {
			c0, c1 := j*n/cols, (j+1)*n/cols
			out[i][j] = dominant(g, r0, r1, c0, c1)
		}
	}
	return out
}

func dominant(g *epidemic.Grid, r0, r1, c0, c1 int) epidemic.State {
	var tally [epidemic.NumStates]int
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			s := g.At(r, c)
			if s == epidemic.Infected {
				return s
			}
			tally[s]++
		}
	}
	best := epidemic.Susceptible
	for s := range tally {
		if tally[s] > tally[best] {
			best = epidemic.State(s)
		}
	}
	return best
}

// Render draws g scaled into the canvas.
func (c *Canvas) Render(g *epidemic.Grid) string {
	cells := Downsample(g, c.Height*2, c.Width)

	var b strings.Builder
	for i := 0; i < len(cells); i += 2 {
		for j, top := range cells[i] {
			if i+1 < len(cells) {
				b.WriteString(c.styles[top][cells[i+1][j]].Render(halfBlock))
			} else {
				b.WriteString(c.single[top].Render(halfBlock))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func hexColor(r, g, b int) string {
	return fmt.Sprintf("#%02x%02x%02x", clampByte(r), clampByte(g), clampByte(b))
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
