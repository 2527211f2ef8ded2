package report

import (
	"testing"

	"github.com/nao1215/scratchindex/internal/model"
)

func createTestReport() *ExperimentReport {
	set := model.ResultSet{
		{ImageID: "img-heavy", Passes: 100, ScratchIndex: 0.8, TotalPixels: 12000},
		{ImageID: "img-ref", Passes: 0, ScratchIndex: 0, TotalPixels: 12000},
		{ImageID: "img-light", Passes: 10, ScratchIndex: 0.1, TotalPixels: 12000},
		{ImageID: "img-moderate", Passes: 50, ScratchIndex: 0.3, TotalPixels: 12000},
	}
	return NewExperimentReport("exp-1", "PET film", &model.Region{X: 1, Y: 2, Width: 100, Height: 120}, set)
}

func TestNewExperimentReport(t *testing.T) {
	t.Parallel()

	t.Run("orders results and summarizes", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		wantOrder := []int{0, 10, 50, 100}
		for i, r := range report.Results {
			if r.Passes != wantOrder[i] {
				t.Errorf("position %d: expected passes %d, got %d", i, wantOrder[i], r.Passes)
			}
		}
		if report.Summary.Count != 4 || report.Summary.Max != 0.8 || report.Summary.Min != 0 {
			t.Errorf("unexpected summary: %+v", report.Summary)
		}
		if report.GeneratedAt.IsZero() {
			t.Error("expected generation time")
		}
	})

	t.Run("does not reorder the caller's set", func(t *testing.T) {
		t.Parallel()

		set := model.ResultSet{{ImageID: "b", Passes: 5}, {ImageID: "a", Passes: 0}}
		NewExperimentReport("exp", "", nil, set)
		if set[0].ImageID != "b" {
			t.Error("input set was modified")
		}
	})
}

func TestBandOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		index float64
		want  Band
	}{
		{0, BandNone},
		{0.0001, BandLight},
		{0.2499, BandLight},
		{0.25, BandModerate},
		{0.4999, BandModerate},
		{0.5, BandHeavy},
		{1, BandHeavy},
	}

	for _, tt := range tests {
		if got := BandOf(tt.index); got != tt.want {
			t.Errorf("BandOf(%v) = %s, want %s", tt.index, got, tt.want)
		}
	}
}

func TestBandCountsAndWorst(t *testing.T) {
	t.Parallel()

	report := createTestReport()
	counts := report.BandCounts()
	for _, b := range Bands {
		if counts[b] != 1 {
			t.Errorf("band %s: expected 1, got %d", b, counts[b])
		}
	}

	worst, ok := report.Worst()
	if !ok || worst.ImageID != "img-heavy" {
		t.Errorf("unexpected worst result %+v", worst)
	}

	empty := NewExperimentReport("exp", "", nil, nil)
	if _, ok := empty.Worst(); ok {
		t.Error("expected no worst result for an empty report")
	}
	if empty.Results == nil {
		t.Error("expected non-nil results for JSON output")
	}
}
