package render

import (
	"bytes"
	"image"
	"image/png"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/episim/internal/epidemic"
)

// StripHeight is the height of the chart strip appended under video frames.
const StripHeight = 120

// CurveStrip charts history against a fixed axis of steps × population so
// successive strips line up frame to frame. With fewer than two points there
// is nothing to draw and a blank strip is returned.
func CurveStrip(history []epidemic.Counts, steps, population, width, height int) (image.Image, error) {
	if len(history) < 2 {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		fill(img, img.Bounds(), background)
		return img, nil
	}

	xMax := float64(steps)
	if xMax < float64(len(history)-1) {
		xMax = float64(len(history) - 1)
	}

	xs := make([]float64, len(history))
	for i := range xs {
		xs[i] = float64(i)
	}

	series := make([]chart.Series, 0, epidemic.NumStates)
	for s := epidemic.State(0); s < epidemic.NumStates; s++ {
		ys := make([]float64, len(history))
		for i, c := range history {
			ys[i] = float64(c.Of(s))
		}
		p := Palette[s]
		series = append(series, chart.ContinuousSeries{
			Name:    Labels[s],
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: drawing.Color{R: p.R, G: p.G, B: p.B, A: p.A},
				StrokeWidth: 2.0,
			},
		})
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Style: chart.Style{FontSize: 7.0},
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontSize: 7.0},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(population)},
		},
		Series: series,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}
