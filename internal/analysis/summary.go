package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/nao1215/scratchindex/internal/model"
)

// Summary aggregates the scratch indices of a result set.
// All statistics are zero for an empty set.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

// Summarize computes count, mean, maximum and minimum scratch index.
func Summarize(set model.ResultSet) Summary {
	if len(set) == 0 {
		return Summary{}
	}
	indices := set.ScratchIndices()
	return Summary{
		Count:   len(indices),
		Average: stat.Mean(indices, nil),
		Max:     floats.Max(indices),
		Min:     floats.Min(indices),
	}
}
