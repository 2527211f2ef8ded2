package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Region is the rectangular area of interest analyzed in every image of an
// experiment. Coordinates are in pixels with the origin at the top-left corner.
//
// A nil *Region means "no region configured": the whole image is analyzed.
type Region struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Validate checks the region on its own, without reference to an image.
// Bounds against a concrete image are checked by the cropper.
func (r Region) Validate() error {
	if r.X < 0 || r.Y < 0 {
		return fmt.Errorf("%w: negative origin (%d, %d)", ErrInvalidRegion, r.X, r.Y)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: non-positive size %dx%d", ErrInvalidRegion, r.Width, r.Height)
	}
	if r.Width > math.MaxInt-r.X || r.Height > math.MaxInt-r.Y {
		return fmt.Errorf("%w: region %s overflows the coordinate range", ErrInvalidRegion, r)
	}
	return nil
}

// Area returns the number of pixels covered by the region.
func (r Region) Area() int {
	return r.Width * r.Height
}

// String formats the region as "x,y,w,h", the form accepted by ParseRegion.
func (r Region) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)
}

// Coords returns the region as the four-number array persisted by the
// experiment store.
func (r Region) Coords() []float64 {
	return []float64{float64(r.X), float64(r.Y), float64(r.Width), float64(r.Height)}
}

// RegionFromCoords builds a Region from the persisted [x, y, w, h] form.
// Fractional values are truncated toward zero. An empty slice yields nil
// (no region configured).
func RegionFromCoords(coords []float64) (*Region, error) {
	if len(coords) == 0 {
		return nil, nil
	}
	if len(coords) != 4 {
		return nil, fmt.Errorf("%w: expected 4 coordinates, got %d", ErrInvalidRegion, len(coords))
	}
	r := &Region{
		X:      int(coords[0]),
		Y:      int(coords[1]),
		Width:  int(coords[2]),
		Height: int(coords[3]),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// ParseRegion parses "x,y,w,h" (whitespace around values is ignored).
func ParseRegion(s string) (*Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: expected x,y,w,h, got %q", ErrInvalidRegion, s)
	}
	values := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidRegion, p)
		}
		values[i] = v
	}
	r := &Region{X: values[0], Y: values[1], Width: values[2], Height: values[3]}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
