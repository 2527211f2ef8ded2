package histogram

import "strconv"

// Statistics is the summary block of the histogram payload.
type Statistics struct {
	DominantBrightness        int     `json:"dominant_brightness"`
	AverageBrightnessRatio    float64 `json:"average_brightness_ratio"`
	WeightedAverageBrightness float64 `json:"weighted_average_brightness"`
	TotalPixels               int     `json:"total_pixels"`
	BrightnessLevelsCount     int     `json:"brightness_levels_count"`
}

// Payload is the histogram as returned to callers: level → count for every
// non-zero level (absent levels have count 0), plus the statistics.
type Payload struct {
	ImageID    string         `json:"image_id,omitempty"`
	Histogram  map[string]int `json:"histogram"`
	Statistics Statistics     `json:"statistics"`
}

// Payload renders the histogram in its external form.
func (h *Histogram) Payload() Payload {
	levels := make(map[string]int, h.LevelsCount)
	for q, c := range h.Counts {
		if c > 0 {
			levels[strconv.Itoa(q)] = c
		}
	}
	return Payload{
		Histogram: levels,
		Statistics: Statistics{
			DominantBrightness:        h.DominantBrightness,
			AverageBrightnessRatio:    h.AverageBrightnessRatio,
			WeightedAverageBrightness: h.WeightedAverageBrightness,
			TotalPixels:               h.TotalPixels,
			BrightnessLevelsCount:     h.LevelsCount,
		},
	}
}

// Count returns the count for level in the payload, 0 when absent.
func (p Payload) Count(level int) int {
	return p.Histogram[strconv.Itoa(level)]
}
