package imaging

import (
	"image"
	"image/color"
)

// PixelGrid is a decoded image as row-major RGB triples, one byte per channel.
type PixelGrid struct {
	Width  int
	Height int

	// Pix holds Width*Height*3 bytes: R, G, B for each pixel.
	Pix []uint8
}

// NewPixelGrid allocates a black grid of the given size.
func NewPixelGrid(width, height int) PixelGrid {
	return PixelGrid{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// At returns the RGB channels of the pixel at (x, y).
func (g PixelGrid) At(x, y int) (r, gr, b uint8) {
	i := (y*g.Width + x) * 3
	return g.Pix[i], g.Pix[i+1], g.Pix[i+2]
}

// Set stores the RGB channels of the pixel at (x, y).
func (g PixelGrid) Set(x, y int, r, gr, b uint8) {
	i := (y*g.Width + x) * 3
	g.Pix[i], g.Pix[i+1], g.Pix[i+2] = r, gr, b
}

// Len returns the number of pixels in the grid.
func (g PixelGrid) Len() int {
	return g.Width * g.Height
}

// FromImage converts any decoded image into a PixelGrid.
// Alpha is dropped without compositing, so a transparent pixel keeps its
// color channels. Grid coordinates start at (0, 0) whatever img.Bounds().Min is.
func FromImage(img image.Image) PixelGrid {
	b := img.Bounds()
	grid := NewPixelGrid(b.Dx(), b.Dy())

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < grid.Height; y++ {
			src := nrgba.Pix[nrgba.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := grid.Pix[y*grid.Width*3:]
			for x := 0; x < grid.Width; x++ {
				dst[x*3] = src[x*4]
				dst[x*3+1] = src[x*4+1]
				dst[x*3+2] = src[x*4+2]
			}
		}
		return grid
	}

	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			grid.Set(x, y, c.R, c.G, c.B)
		}
	}
	return grid
}
