package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/icza/mjpeg"

	"github.com/san-kum/episim/internal/epidemic"
)

type VideoOptions struct {
	Frame FrameOptions
	FPS   int
	// Quality is the JPEG quality of each frame, 1-100.
	Quality int
	// ChartStrip appends a chart of the running counts under every frame.
	ChartStrip bool
	// Steps fixes the x axis of the chart strip.
	Steps int
}

// Video writes one frame per observed step into an MJPEG AVI file.
type Video struct {
	aw      mjpeg.AviWriter
	opts    VideoOptions
	layout  Layout
	bounds  image.Rectangle
	size    int
	history []epidemic.Counts
	buf     bytes.Buffer
	frames  int
	closed  bool
}

// NewVideo creates path sized for grids of side size.
func NewVideo(path string, size int, opts VideoOptions) (*Video, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("render: fps must be positive, got %d", opts.FPS)
	}
	if opts.Quality <= 0 {
		opts.Quality = 75
	}

	layout := FrameLayout(size, opts.Frame)
	bounds := layout.Bounds
	if opts.ChartStrip {
		bounds.Max.Y += StripHeight
	}

	aw, err := mjpeg.New(path, int32(bounds.Dx()), int32(bounds.Dy()), int32(opts.FPS))
	if err != nil {
		return nil, err
	}

	return &Video{aw: aw, opts: opts, layout: layout, bounds: bounds, size: size}, nil
}

// Bounds is the size of every frame in the file.
func (v *Video) Bounds() image.Rectangle { return v.bounds }

func (v *Video) Frames() int { return v.frames }

// OnStep renders g and appends it to the video.
func (v *Video) OnStep(step int, counts epidemic.Counts, g *epidemic.Grid) error {
	if v.closed {
		return fmt.Errorf("render: video closed")
	}
	if g.Size() != v.size {
		return fmt.Errorf("render: grid size %d, video sized for %d", g.Size(), v.size)
	}
	v.history = append(v.history, counts)

	img, err := v.compose(g)
	if err != nil {
		return err
	}

	v.buf.Reset()
	if err := jpeg.Encode(&v.buf, img, &jpeg.Options{Quality: v.opts.Quality}); err != nil {
		return err
	}
	if err := v.aw.AddFrame(v.buf.Bytes()); err != nil {
		return err
	}
	v.frames++
	return nil
}

func (v *Video) compose(g *epidemic.Grid) (image.Image, error) {
	opts := v.opts.Frame
	c := g.Counts()
	opts.Title = fmt.Sprintf("t=%d  S=%d I=%d R=%d Res=%d",
		g.Generation(), c.Susceptible, c.Infected, c.Recovered, c.Resistant)

	frame := Frame(g, opts)
	if !v.opts.ChartStrip {
		return frame, nil
	}

	strip, err := CurveStrip(v.history, v.opts.Steps, g.Size()*g.Size(), v.bounds.Dx(), StripHeight)
	if err != nil {
		return nil, fmt.Errorf("chart strip: %w", err)
	}

	img := image.NewRGBA(v.bounds)
	draw.Draw(img, frame.Bounds(), frame, image.Point{}, draw.Src)
	at := image.Rect(0, v.layout.Bounds.Max.Y, v.bounds.Dx(), v.bounds.Dy())
	draw.Draw(img, at, strip, strip.Bounds().Min, draw.Src)
	return img, nil
}

// Close finalizes the AVI index. Later calls do nothing.
func (v *Video) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	return v.aw.Close()
}
