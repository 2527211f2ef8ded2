package report

import (
	"time"

	"github.com/nao1215/scratchindex/internal/analysis"
	"github.com/nao1215/scratchindex/internal/model"
)

// ExperimentReport is everything a writer needs about one experiment.
type ExperimentReport struct {
	// ExperimentID identifies the experiment.
	ExperimentID string `json:"experiment_id"`

	// Name is the human-readable experiment name.
	Name string `json:"name,omitempty"`

	// Region is the analyzed area; nil means the whole image.
	Region *model.Region `json:"region,omitempty"`

	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time `json:"generated_at"`

	// Results are the stored results ordered by passes.
	Results model.ResultSet `json:"results"`

	// Summary aggregates the scratch indices of Results.
	Summary analysis.Summary `json:"summary"`
}

// NewExperimentReport assembles a report from a stored result set.
// The set is copied and ordered by passes; the summary is computed from it.
func NewExperimentReport(experimentID, name string, region *model.Region, set model.ResultSet) *ExperimentReport {
	results := set.Clone()
	results.SortByPasses()
	return &ExperimentReport{
		ExperimentID: experimentID,
		Name:         name,
		Region:       region,
		GeneratedAt:  time.Now(),
		Results:      results,
		Summary:      analysis.Summarize(results),
	}
}

// Band is a coarse damage class for a scratch index.
type Band int

const (
	// BandNone is an index of exactly zero, the reference itself.
	BandNone Band = iota
	// BandLight is an index below 0.25.
	BandLight
	// BandModerate is an index below 0.5.
	BandModerate
	// BandHeavy is an index of 0.5 or more.
	BandHeavy
)

// Bands lists every band from least to most damaged.
var Bands = []Band{BandNone, BandLight, BandModerate, BandHeavy}

// String returns the lower-case band name.
func (b Band) String() string {
	switch b {
	case BandNone:
		return "none"
	case BandLight:
		return "light"
	case BandModerate:
		return "moderate"
	case BandHeavy:
		return "heavy"
	default:
		return "unknown"
	}
}

// BandOf classifies a scratch index.
func BandOf(index float64) Band {
	switch {
	case index <= 0:
		return BandNone
	case index < 0.25:
		return BandLight
	case index < 0.5:
		return BandModerate
	default:
		return BandHeavy
	}
}

// BandCounts returns how many results fall into each band.
func (r *ExperimentReport) BandCounts() map[Band]int {
	counts := make(map[Band]int, len(Bands))
	for _, res := range r.Results {
		counts[BandOf(res.ScratchIndex)]++
	}
	return counts
}

// Worst returns the result with the highest scratch index.
// The second return value is false for an empty report.
func (r *ExperimentReport) Worst() (model.AnalysisResult, bool) {
	if len(r.Results) == 0 {
		return model.AnalysisResult{}, false
	}
	worst := r.Results[0]
	for _, res := range r.Results[1:] {
		if res.ScratchIndex > worst.ScratchIndex {
			worst = res
		}
	}
	return worst, true
}
