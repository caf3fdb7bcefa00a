package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/san-kum/episim/internal/epidemic"
)

const (
	minFrameWidth = 320
	titleHeight   = 18
	legendRow     = 18
)

var (
	background = color.RGBA{255, 255, 255, 255}
	textColor  = color.RGBA{20, 20, 20, 255}
)

// Palette maps every state to its colour.
var Palette = [epidemic.NumStates]color.RGBA{
	epidemic.Susceptible: {0x90, 0xEE, 0x90, 0xFF},
	epidemic.Infected:    {0xFF, 0x00, 0x00, 0xFF},
	epidemic.Recovered:   {0x03, 0x81, 0xAB, 0xFF},
	epidemic.Resistant:   {0xC2, 0xDA, 0x07, 0xFF},
}

// Labels are the legend captions per state.
var Labels = [epidemic.NumStates]string{
	epidemic.Susceptible: "Susceptible",
	epidemic.Infected:    "Infected",
	epidemic.Recovered:   "Recovered",
	epidemic.Resistant:   "Resistant (partial)",
}

type FrameOptions struct {
	// Scale is the side of one cell in pixels.
	Scale  int
	Legend bool
	Title  string
}

// Layout describes where the parts of a frame go. All frames of a run share
// one layout, which is what lets a video writer size itself up front.
type Layout struct {
	Bounds image.Rectangle
	Grid   image.Rectangle
	Title  image.Rectangle
	Legend image.Rectangle
}

// FrameLayout computes the layout for a grid of the given side. A title band
// is always reserved so frames with and without a title have equal sizes.
func FrameLayout(size int, opts FrameOptions) Layout {
	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}
	side := size * scale
	width := side
	if width < minFrameWidth {
		width = minFrameWidth
	}

	var l Layout
	l.Title = image.Rect(0, 0, width, titleHeight)
	x0 := (width - side) / 2
	l.Grid = image.Rect(x0, titleHeight, x0+side, titleHeight+side)
	height := l.Grid.Max.Y
	if opts.Legend {
		l.Legend = image.Rect(0, height, width, height+2*legendRow)
		height = l.Legend.Max.Y
	}
	l.Bounds = image.Rect(0, 0, width, height)
	return l
}

// Frame draws g into a new image.
func Frame(g *epidemic.Grid, opts FrameOptions) *image.RGBA {
	l := FrameLayout(g.Size(), opts)
	img := image.NewRGBA(l.Bounds)
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	scale := l.Grid.Dx() / g.Size()
	for r := 0; r < g.Size(); r++ {
		for c := 0; c < g.Size(); c++ {
			x := l.Grid.Min.X + c*scale
			y := l.Grid.Min.Y + r*scale
			fill(img, image.Rect(x, y, x+scale, y+scale), stateColor(g.At(r, c)))
		}
	}

	if opts.Title != "" {
		addLabel(img, l.Title.Min.X+4, l.Title.Max.Y-5, opts.Title, textColor)
	}
	if opts.Legend {
		drawLegend(img, l.Legend)
	}
	return img
}

func stateColor(s epidemic.State) color.RGBA {
	if !s.Valid() {
		return color.RGBA{0, 0, 0, 255}
	}
	return Palette[s]
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// drawLegend lays the four entries out in two rows of two.
func drawLegend(img *image.RGBA, area image.Rectangle) {
	colWidth := area.Dx() / 2
	for s := epidemic.State(0); s < epidemic.NumStates; s++ {
		col, row := int(s)%2, int(s)/2
		x := area.Min.X + col*colWidth + 6
		y := area.Min.Y + row*legendRow
		fill(img, image.Rect(x, y+4, x+10, y+14), Palette[s])
		addLabel(img, x+14, y+13, Labels[s], textColor)
	}
}

// addLabel draws text with its baseline at (x, y).
func addLabel(img *image.RGBA, x, y int, label string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}
