package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestResultSetUpsert(t *testing.T) {
	t.Parallel()

	base := ResultSet{
		{ImageID: "a", Passes: 0, ScratchIndex: 0},
		{ImageID: "b", Passes: 10, ScratchIndex: 0.2},
	}

	t.Run("appends unknown image", func(t *testing.T) {
		t.Parallel()
		got := base.Upsert(AnalysisResult{ImageID: "c", Passes: 20, ScratchIndex: 0.4})
		if len(got) != 3 {
			t.Fatalf("expected 3 results, got %d", len(got))
		}
		if got[2].ImageID != "c" {
			t.Errorf("expected c appended last, got %s", got[2].ImageID)
		}
		if len(base) != 2 {
			t.Error("upsert must not modify the receiver")
		}
	})

	t.Run("replaces existing image in place", func(t *testing.T) {
		t.Parallel()
		got := base.Upsert(AnalysisResult{ImageID: "a", Passes: 0, ScratchIndex: 0.5})
		if len(got) != 2 {
			t.Fatalf("expected 2 results, got %d", len(got))
		}
		if got[0].ScratchIndex != 0.5 {
			t.Errorf("expected replaced index 0.5, got %v", got[0].ScratchIndex)
		}
		if base[0].ScratchIndex != 0 {
			t.Error("upsert must not modify the receiver")
		}
	})

	t.Run("upsert on nil set", func(t *testing.T) {
		t.Parallel()
		var s ResultSet
		got := s.Upsert(AnalysisResult{ImageID: "x"})
		if len(got) != 1 || got.Find("x") != 0 {
			t.Errorf("expected single entry x, got %+v", got)
		}
	})
}

func TestResultSetRemove(t *testing.T) {
	t.Parallel()

	s := ResultSet{{ImageID: "a"}, {ImageID: "b"}}

	got, removed := s.Remove("a")
	if !removed {
		t.Error("expected removal")
	}
	if len(got) != 1 || got[0].ImageID != "b" {
		t.Errorf("unexpected set after removal: %+v", got)
	}

	_, removed = s.Remove("missing")
	if removed {
		t.Error("expected no removal for unknown id")
	}
}

func TestResultSetSortByPasses(t *testing.T) {
	t.Parallel()

	s := ResultSet{
		{ImageID: "c", Passes: 20},
		{ImageID: "a", Passes: 0},
		{ImageID: "b1", Passes: 10},
		{ImageID: "b2", Passes: 10},
	}
	s.SortByPasses()

	want := []string{"a", "b1", "b2", "c"}
	for i, id := range want {
		if s[i].ImageID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, s[i].ImageID)
		}
	}
}

func TestErrors(t *testing.T) {
	t.Parallel()

	t.Run("DecodeError matches ErrDecode and unwraps", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("bad header")
		err := fmt.Errorf("loading: %w", &DecodeError{ImageID: "img-1", Err: cause})
		if !errors.Is(err, ErrDecode) {
			t.Error("expected errors.Is(err, ErrDecode)")
		}
		if !errors.Is(err, cause) {
			t.Error("expected cause to be reachable")
		}
	})

	t.Run("RecomputeAbortedError carries the image id", func(t *testing.T) {
		t.Parallel()
		err := error(&RecomputeAbortedError{ExperimentID: "exp", ImageID: "img-2", Err: ErrDecode})
		if !errors.Is(err, ErrRecomputeAborted) {
			t.Error("expected errors.Is(err, ErrRecomputeAborted)")
		}
		if !errors.Is(err, ErrDecode) {
			t.Error("expected wrapped ErrDecode")
		}
		var aborted *RecomputeAbortedError
		if !errors.As(err, &aborted) || aborted.ImageID != "img-2" {
			t.Errorf("expected image id img-2, got %+v", aborted)
		}
	})
}
