package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"

	"github.com/san-kum/episim/internal/epidemic"
)

// gifPalette holds the state colours plus the frame background and text.
var gifPalette = color.Palette{
	background,
	textColor,
	Palette[epidemic.Susceptible],
	Palette[epidemic.Infected],
	Palette[epidemic.Recovered],
	Palette[epidemic.Resistant],
}

// Paletted draws g like Frame but into a paletted image for GIF encoding.
func Paletted(g *epidemic.Grid, opts FrameOptions) *image.Paletted {
	src := Frame(g, opts)
	dst := image.NewPaletted(src.Bounds(), gifPalette)
	draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
	return dst
}

// EncodeGIF writes frames as a looping animation. delay is in 100ths of a second.
func EncodeGIF(w io.Writer, frames []*image.Paletted, delay int) error {
	if len(frames) == 0 {
		return fmt.Errorf("render: no frames to encode")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(w, &anim)
}

func SaveGIF(path string, frames []*image.Paletted, delay int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return EncodeGIF(f, frames, delay)
}
