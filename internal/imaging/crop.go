package imaging

import (
	"fmt"

	"github.com/nao1215/scratchindex/internal/model"
)

// InvalidRegionError reports a region that cannot be cut out of a grid.
type InvalidRegionError struct {
	Region model.Region
	Width  int
	Height int
	Reason string
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("%v %s for %dx%d image: %s", model.ErrInvalidRegion, e.Region, e.Width, e.Height, e.Reason)
}

// Is matches model.ErrInvalidRegion.
func (e *InvalidRegionError) Is(target error) bool { return target == model.ErrInvalidRegion }

// Crop returns the part of grid covered by region.
//
// A nil region returns grid itself. A region with no area, or one that
// reaches outside the grid even by one pixel, is rejected: the analyzed area
// must be identical across all images of an experiment, so it is never clamped.
func Crop(grid PixelGrid, region *model.Region) (PixelGrid, error) {
	if region == nil {
		return grid, nil
	}

	r := *region
	fail := func(reason string) (PixelGrid, error) {
		return PixelGrid{}, &InvalidRegionError{Region: r, Width: grid.Width, Height: grid.Height, Reason: reason}
	}

	if r.Width <= 0 || r.Height <= 0 {
		return fail("width and height must be positive")
	}
	if r.X < 0 || r.Y < 0 {
		return fail("origin must be non-negative")
	}
	// Compared by subtraction so huge values cannot overflow past the check.
	if r.Width > grid.Width-r.X || r.Height > grid.Height-r.Y {
		return fail("region exceeds image bounds")
	}

	out := NewPixelGrid(r.Width, r.Height)
	rowBytes := r.Width * 3
	for y := 0; y < r.Height; y++ {
		src := ((r.Y+y)*grid.Width + r.X) * 3
		copy(out.Pix[y*rowBytes:(y+1)*rowBytes], grid.Pix[src:src+rowBytes])
	}
	return out, nil
}
