package report

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/icza/mjpeg"

	"epi-ca/internal/grid"
	"epi-ca/internal/render"
)

// Video encodes every observed step as one MJPEG frame in an AVI file.
type Video struct {
	aw     mjpeg.AviWriter
	framer *render.Framer
	buf    bytes.Buffer
	opts   jpeg.Options
	frames int
}

// NewVideo creates path for a rows x cols grid drawn at scale pixels per cell.
func NewVideo(path string, rows, cols, scale, fps int) (*Video, error) {
	if scale < 1 {
		scale = 1
	}
	if fps < 1 {
		fps = 1
	}
	aw, err := mjpeg.New(path, int32(cols*scale), int32(rows*scale), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("create video %s: %w", path, err)
	}
	return &Video{aw: aw, framer: render.NewFramer(scale), opts: jpeg.Options{Quality: 75}}, nil
}

func (v *Video) Observe(step int, view grid.View) error {
	v.buf.Reset()
	if err := jpeg.Encode(&v.buf, v.framer.Frame(view), &v.opts); err != nil {
		return fmt.Errorf("encode frame %d: %w", step, err)
	}
	if err := v.aw.AddFrame(v.buf.Bytes()); err != nil {
		return fmt.Errorf("add frame %d: %w", step, err)
	}
	v.frames++
	return nil
}

// Frames reports how many frames were written.
func (v *Video) Frames() int { return v.frames }

// Close finalizes the AVI index.
func (v *Video) Close() error { return v.aw.Close() }
