package scratch

import "github.com/nao1215/scratchindex/internal/histogram"

// Weighting assigns the diagnostic importance of one brightness level.
type Weighting interface {
	Weight(level int) float64
}

// WeightFunc adapts a plain function to Weighting.
type WeightFunc func(level int) float64

// Weight calls f(level).
func (f WeightFunc) Weight(level int) float64 { return f(level) }

// LinearWeighting is the default weighting w(q) = q/255: black counts for
// nothing, white for 1.
type LinearWeighting struct{}

// Weight returns level/255.
func (LinearWeighting) Weight(level int) float64 {
	return float64(level) / float64(histogram.Levels-1)
}

// weightTable evaluates w once per level.
func weightTable(w Weighting) (table [histogram.Levels]float64, maxWeight float64) {
	for q := range table {
		table[q] = w.Weight(q)
		if table[q] > maxWeight {
			maxWeight = table[q]
		}
	}
	return table, maxWeight
}
