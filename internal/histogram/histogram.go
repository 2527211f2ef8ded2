package histogram

import "github.com/nao1215/scratchindex/internal/imaging"

// Levels is the number of brightness levels (0..255).
const Levels = 256

// Histogram is the brightness distribution of one analyzed region.
// Every level is present in Counts; a zero count means no pixel has that level.
type Histogram struct {
	// Counts[q] is the number of pixels with brightness q.
	Counts [Levels]int

	// TotalPixels is the sum of Counts; it equals width*height of the region.
	TotalPixels int

	// DominantBrightness is the level with the highest count.
	// Ties resolve to the lowest level.
	DominantBrightness int

	// AverageBrightnessRatio is the dominant level's share: max count / TotalPixels.
	AverageBrightnessRatio float64

	// WeightedAverageBrightness is the mean brightness: Σ q·count / TotalPixels.
	WeightedAverageBrightness float64

	// LevelsCount is the number of levels with a non-zero count.
	LevelsCount int
}

// Build counts every luminance value of grid and derives the statistics.
func Build(grid imaging.LuminanceGrid) *Histogram {
	h := &Histogram{}
	for _, v := range grid.Values {
		h.Counts[v]++
	}
	h.derive()
	return h
}

// FromCounts builds a histogram from explicit per-level counts.
// Levels outside 0..255 and negative counts are ignored.
func FromCounts(counts map[int]int) *Histogram {
	h := &Histogram{}
	for level, c := range counts {
		if level < 0 || level >= Levels || c < 0 {
			continue
		}
		h.Counts[level] = c
	}
	h.derive()
	return h
}

// derive fills the statistics from Counts in a single sweep of the buckets.
func (h *Histogram) derive() {
	var total, weighted, maxCount, dominant, levels int
	for q, c := range h.Counts {
		if c == 0 {
			continue
		}
		total += c
		weighted += q * c
		levels++
		// strict > keeps the lowest level on ties
		if c > maxCount {
			maxCount = c
			dominant = q
		}
	}

	h.TotalPixels = total
	h.DominantBrightness = dominant
	h.LevelsCount = levels
	if total == 0 {
		h.AverageBrightnessRatio = 0
		h.WeightedAverageBrightness = 0
		return
	}
	h.AverageBrightnessRatio = float64(maxCount) / float64(total)
	h.WeightedAverageBrightness = float64(weighted) / float64(total)
}

// Ratio returns count(q) / TotalPixels, or 0 for an empty histogram.
func (h *Histogram) Ratio(level int) float64 {
	if h.TotalPixels == 0 || level < 0 || level >= Levels {
		return 0
	}
	return float64(h.Counts[level]) / float64(h.TotalPixels)
}

// Empty reports whether the histogram holds no pixels.
func (h *Histogram) Empty() bool {
	return h.TotalPixels == 0
}
