// Package render turns grid statuses into pixels for the window and for
// video frames.
package render

import (
	"image"
	"image/color"

	"epi-ca/internal/epidemic"
	"epi-ca/internal/grid"
)

// fillPaletteRGBA converts status values into RGBA pixels using a palette.
// Values past the end of the palette take its last colour; an empty palette
// clears the buffer to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// Framer renders views into a reused image, one scale x scale block per cell.
type Framer struct {
	scale    int
	palette  []color.RGBA
	statuses []uint8
	base     []byte
	img      *image.RGBA
}

// NewFramer returns a framer using the status palette.
func NewFramer(scale int) *Framer {
	if scale < 1 {
		scale = 1
	}
	return &Framer{scale: scale, palette: epidemic.Palette()}
}

// Frame draws v. The returned image is overwritten by the next call.
func (f *Framer) Frame(v grid.View) *image.RGBA {
	w, h := v.Cols(), v.Rows()
	if f.img == nil || f.img.Rect.Dx() != w*f.scale || f.img.Rect.Dy() != h*f.scale {
		f.img = image.NewRGBA(image.Rect(0, 0, w*f.scale, h*f.scale))
		f.base = make([]byte, 4*w*h)
	}
	f.statuses = v.Statuses(f.statuses)
	fillPaletteRGBA(f.base, f.statuses, f.palette)

	s := f.scale
	for y := 0; y < h; y++ {
		src := f.base[y*w*4 : (y+1)*w*4]
		row := f.img.Pix[y*s*f.img.Stride : y*s*f.img.Stride+w*s*4]
		for x := 0; x < w; x++ {
			px := src[x*4 : x*4+4]
			for k := 0; k < s; k++ {
				copy(row[(x*s+k)*4:], px)
			}
		}
		for k := 1; k < s; k++ {
			copy(f.img.Pix[(y*s+k)*f.img.Stride:], row)
		}
	}
	return f.img
}
