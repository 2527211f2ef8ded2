package imaging

// Luminance weights in hundredths: 0.3 R + 0.59 G + 0.11 B.
const (
	weightR = 30
	weightG = 59
	weightB = 11
)

// ToGrayscale maps an RGB pixel to round(0.3R + 0.59G + 0.11B) in [0, 255].
//
// The sum is evaluated in integers, so the result is exact and rounds halves
// up. The clamp only matters if the weights are ever changed.
func ToGrayscale(r, g, b uint8) uint8 {
	sum := weightR*int(r) + weightG*int(g) + weightB*int(b)
	v := (sum + 50) / 100
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

// LuminanceGrid holds one brightness value per pixel, row-major.
type LuminanceGrid struct {
	Width  int
	Height int
	Values []uint8
}

// Len returns the number of pixels in the grid.
func (l LuminanceGrid) Len() int {
	return l.Width * l.Height
}

// Luminance converts every pixel of grid with ToGrayscale.
func Luminance(grid PixelGrid) LuminanceGrid {
	out := LuminanceGrid{
		Width:  grid.Width,
		Height: grid.Height,
		Values: make([]uint8, grid.Len()),
	}
	for i := range out.Values {
		p := grid.Pix[i*3 : i*3+3]
		out.Values[i] = ToGrayscale(p[0], p[1], p[2])
	}
	return out
}
