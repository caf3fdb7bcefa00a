package render

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/episim/internal/epidemic"
)

// CurvesPlot builds a line plot with one series per compartment.
func CurvesPlot(counts []epidemic.Counts, title string) (*plot.Plot, error) {
	if len(counts) == 0 {
		return nil, errors.New("render: no counts to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "Cells"
	p.Legend.Top = true

	for s := epidemic.State(0); s < epidemic.NumStates; s++ {
		points := make(plotter.XYs, len(counts))
		for i, c := range counts {
			points[i].X = float64(i)
			points[i].Y = float64(c.Of(s))
		}

		line, err := plotter.NewLine(points)
		if err != nil {
			return nil, fmt.Errorf("%s series: %w", s, err)
		}
		line.LineStyle.Color = Palette[s]
		line.LineStyle.Width = vg.Points(1.5)

		p.Add(line)
		p.Legend.Add(Labels[s], line)
	}

	return p, nil
}

// SaveCurves writes the compartment curves to path; the extension picks the
// image format.
func SaveCurves(path string, counts []epidemic.Counts, title string) error {
	p, err := CurvesPlot(counts, title)
	if err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

// WriteCurves encodes the compartment curves as PNG into w.
func WriteCurves(w io.Writer, counts []epidemic.Counts, title string) error {
	p, err := CurvesPlot(counts, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
