package render

import (
	"image/png"
	"os"

	"github.com/san-kum/episim/internal/epidemic"
)

// SavePNG writes a single frame of g to path.
func SavePNG(path string, g *epidemic.Grid, opts FrameOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, Frame(g, opts))
}
