package epidemic

import "image/color"

var statusPalette = [NumStatuses]color.RGBA{
	Empty:       {R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	Susceptible: {R: 0x00, G: 0x00, B: 0xFF, A: 0xFF},
	Exposed:     {R: 0xFF, G: 0xAA, B: 0x00, A: 0xFF},
	Contagious:  {R: 0xFF, G: 0x00, B: 0x00, A: 0xFF},
	Isolated:    {R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF},
	Cured:       {R: 0x00, G: 0xFF, B: 0x00, A: 0xFF},
	Dead:        {R: 0x00, G: 0x00, B: 0x00, A: 0xFF},
}

// Palette returns the display colour of every status, indexed by Status.
func Palette() []color.RGBA {
	out := make([]color.RGBA, NumStatuses)
	copy(out, statusPalette[:])
	return out
}

// Color returns the display colour of a status.
func (s Status) Color() color.RGBA {
	if int(s) < NumStatuses {
		return statusPalette[s]
	}
	return color.RGBA{A: 0xFF}
}
