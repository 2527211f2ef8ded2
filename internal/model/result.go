package model

import "sort"

// AnalysisResult is the scratch index computed for one image.
type AnalysisResult struct {
	// ImageID is the analyzed image.
	ImageID string `json:"image_id"`

	// Passes is copied from the image at analysis time.
	Passes int `json:"passes"`

	// ScratchIndex is the normalized damage score in [0, 1]; lower is better.
	ScratchIndex float64 `json:"scratch_index"`

	// TotalPixels is the number of pixels inside the analyzed region.
	TotalPixels int `json:"total_pixels"`
}

// ResultSet is the ordered collection of results of one experiment.
// Each image id appears at most once.
type ResultSet []AnalysisResult

// Find returns the index of the result for imageID, or -1.
func (s ResultSet) Find(imageID string) int {
	for i, r := range s {
		if r.ImageID == imageID {
			return i
		}
	}
	return -1
}

// Upsert returns a copy of the set with r replacing the entry for the same
// image, or appended when the image has no entry yet.
func (s ResultSet) Upsert(r AnalysisResult) ResultSet {
	out := s.Clone()
	if i := out.Find(r.ImageID); i >= 0 {
		out[i] = r
		return out
	}
	return append(out, r)
}

// Remove returns a copy of the set without the entry for imageID.
// The second return value reports whether an entry was removed.
func (s ResultSet) Remove(imageID string) (ResultSet, bool) {
	out := make(ResultSet, 0, len(s))
	removed := false
	for _, r := range s {
		if r.ImageID == imageID {
			removed = true
			continue
		}
		out = append(out, r)
	}
	return out, removed
}

// SortByPasses orders the set by pass count. Equal pass counts keep their
// relative order.
func (s ResultSet) SortByPasses() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Passes < s[j].Passes
	})
}

// Clone returns an independent copy of the set. A nil set clones to an empty one.
func (s ResultSet) Clone() ResultSet {
	out := make(ResultSet, len(s))
	copy(out, s)
	return out
}

// ScratchIndices returns the scratch index of every entry, in set order.
func (s ResultSet) ScratchIndices() []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = r.ScratchIndex
	}
	return out
}
