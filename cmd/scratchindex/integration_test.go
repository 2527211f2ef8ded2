package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/scratchindex/internal/config"
	"github.com/nao1215/scratchindex/internal/database"
	"github.com/nao1215/scratchindex/internal/histogram"
	"github.com/nao1215/scratchindex/internal/model"
)

// runCLI executes the root command against dbDir and returns stdout.
func runCLI(t *testing.T, dbDir string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--db-dir", dbDir}, args...))

	err := cmd.Execute()
	return stdout.String(), err
}

func mustRun(t *testing.T, dbDir string, args ...string) string {
	t.Helper()

	out, err := runCLI(t, dbDir, args...)
	if err != nil {
		t.Fatalf("scratchindex %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// writeSolidImage writes a 20x20 single-color image and returns its path.
func writeSolidImage(t *testing.T, dir, name string, c color.NRGBA) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := range 20 {
		for x := range 20 {
			img.SetNRGBA(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if strings.HasSuffix(name, ".gif") {
		err = gif.Encode(f, img, nil)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

// field returns the n-th whitespace-separated word of the first line of out.
func field(t *testing.T, out string, n int) string {
	t.Helper()

	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	if len(fields) <= n {
		t.Fatalf("unexpected output %q", out)
	}
	return fields[n]
}

func TestWorkflow(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	files := t.TempDir()
	white := writeSolidImage(t, files, "ref.png", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	black := writeSolidImage(t, files, "black.png", color.NRGBA{A: 255})

	expID := field(t, mustRun(t, dbDir, "experiment", "create", "--name", "film"), 2)

	out := mustRun(t, dbDir, "image", "add", expID, "--passes", "0", white)
	refID := field(t, out, 4)
	if !strings.Contains(out, "scratch index 0.0000 over 400 pixels") {
		t.Errorf("unexpected add output for reference:\n%s", out)
	}

	out = mustRun(t, dbDir, "image", "add", expID, "--passes", "100", black)
	blackID := field(t, out, 4)
	if !strings.Contains(out, "scratch index 1.0000") {
		t.Errorf("unexpected add output for test image:\n%s", out)
	}

	t.Run("duplicate upload is rejected", func(t *testing.T) {
		if _, err := runCLI(t, dbDir, "image", "add", expID, "--passes", "5", black); err == nil {
			t.Error("expected duplicate image error")
		}
	})

	t.Run("second reference is rejected", func(t *testing.T) {
		gray := writeSolidImage(t, t.TempDir(), "gray.png", color.NRGBA{R: 128, G: 128, B: 128, A: 255})
		if _, err := runCLI(t, dbDir, "image", "add", expID, "--passes", "0", gray); !errors.Is(err, database.ErrReferenceExists) {
			t.Errorf("expected ErrReferenceExists, got %v", err)
		}
	})

	t.Run("recalc", func(t *testing.T) {
		out := mustRun(t, dbDir, "recalc", expID, "--json")

		var parsed recalcOutput
		if err := json.Unmarshal([]byte(out), &parsed); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if parsed.ExperimentID != expID || len(parsed.Results) != 2 {
			t.Fatalf("unexpected recalc output: %+v", parsed)
		}
		if parsed.Results[0].ImageID != refID || parsed.Results[1].ImageID != blackID {
			t.Errorf("results not ordered by passes: %+v", parsed.Results)
		}
		if parsed.Summary.Max != 1 || parsed.Summary.Average != 0.5 {
			t.Errorf("unexpected summary: %+v", parsed.Summary)
		}
	})

	t.Run("analyze", func(t *testing.T) {
		out := mustRun(t, dbDir, "analyze", blackID, "--json")

		var result model.AnalysisResult
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if result.ScratchIndex != 1 || result.Passes != 100 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("quick", func(t *testing.T) {
		out := mustRun(t, dbDir, "quick", expID)
		if !strings.Contains(out, refID) || !strings.Contains(out, blackID) {
			t.Errorf("expected both images in quick output:\n%s", out)
		}
	})

	t.Run("image list", func(t *testing.T) {
		out := mustRun(t, dbDir, "image", "list", expID)
		if !strings.Contains(out, "ref.png") || !strings.Contains(out, "black.png") {
			t.Errorf("expected both files listed:\n%s", out)
		}
	})

	t.Run("markdown report to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reports", "film.md")
		out := mustRun(t, dbDir, "report", expID, "--markdown", "-o", path)
		if !strings.Contains(out, "Report written to") {
			t.Errorf("unexpected output %q", out)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		if !strings.Contains(string(content), "# Scratch Index Report: film") {
			t.Errorf("unexpected report:\n%s", content)
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		_, err := runCLI(t, dbDir, "report", expID, "--json", "--markdown")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("region change recomputes", func(t *testing.T) {
		out := mustRun(t, dbDir, "experiment", "region", expID, "0,0,10,10")
		if !strings.Contains(out, "Region set to 0,0,10,10") || !strings.Contains(out, " 100\n") {
			t.Errorf("unexpected region output:\n%s", out)
		}

		if got := mustRun(t, dbDir, "experiment", "region", expID); strings.TrimSpace(got) != "0,0,10,10" {
			t.Errorf("expected stored region, got %q", got)
		}

		_, err := runCLI(t, dbDir, "experiment", "region", expID, "15,15,10,10")
		if !errors.Is(err, model.ErrRecomputeAborted) {
			t.Errorf("expected aborted recompute for out-of-bounds region, got %v", err)
		}
	})

	t.Run("histogram", func(t *testing.T) {
		out := mustRun(t, dbDir, "histogram", blackID, "--json")

		var payload histogram.Payload
		if err := json.Unmarshal([]byte(out), &payload); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if payload.Statistics.TotalPixels != 100 || payload.Count(0) != 100 {
			t.Errorf("unexpected histogram: %+v", payload)
		}
	})

	t.Run("remove test image", func(t *testing.T) {
		out := mustRun(t, dbDir, "image", "remove", blackID)
		if !strings.Contains(out, "Removed image "+blackID) || strings.Contains(out, blackID+" ") {
			t.Errorf("unexpected remove output:\n%s", out)
		}
	})

	t.Run("experiment list", func(t *testing.T) {
		out := mustRun(t, dbDir, "experiment", "list")
		if !strings.Contains(out, expID) || !strings.Contains(out, "film") {
			t.Errorf("expected experiment in list:\n%s", out)
		}
	})
}

func TestCommandErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown image", func(t *testing.T) {
		t.Parallel()
		_, err := runCLI(t, t.TempDir(), "analyze", "missing")
		if !errors.Is(err, model.ErrImageNotFound) {
			t.Errorf("expected ErrImageNotFound, got %v", err)
		}
	})

	t.Run("unknown experiment", func(t *testing.T) {
		t.Parallel()
		_, err := runCLI(t, t.TempDir(), "report", "missing")
		if !errors.Is(err, model.ErrExperimentNotFound) {
			t.Errorf("expected ErrExperimentNotFound, got %v", err)
		}
	})

	t.Run("invalid region argument", func(t *testing.T) {
		t.Parallel()
		_, err := runCLI(t, t.TempDir(), "experiment", "create", "--name", "x", "--region", "1,2,3")
		if !errors.Is(err, model.ErrInvalidRegion) {
			t.Errorf("expected ErrInvalidRegion, got %v", err)
		}
	})

	t.Run("format outside the accepted list", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		expID := field(t, mustRun(t, dbDir, "experiment", "create", "--name", "gif"), 2)
		path := writeSolidImage(t, t.TempDir(), "ref.gif", color.NRGBA{R: 10, A: 255})

		_, err := runCLI(t, dbDir, "image", "add", expID, path)
		if err == nil || !strings.Contains(err.Error(), "not accepted") {
			t.Errorf("expected format rejection, got %v", err)
		}
	})

	t.Run("several files as reference", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		expID := field(t, mustRun(t, dbDir, "experiment", "create", "--name", "two refs"), 2)
		files := t.TempDir()
		first := writeSolidImage(t, files, "a.png", color.NRGBA{R: 1, A: 255})
		second := writeSolidImage(t, files, "b.png", color.NRGBA{R: 2, A: 255})

		if _, err := runCLI(t, dbDir, "image", "add", expID, "--passes", "0", first, second); err == nil {
			t.Fatal("expected error for two reference files")
		}
		out := mustRun(t, dbDir, "image", "list", expID)
		if strings.Contains(out, "a.png") {
			t.Errorf("nothing should be stored:\n%s", out)
		}
	})

	t.Run("test image before reference is stored", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		expID := field(t, mustRun(t, dbDir, "experiment", "create", "--name", "late ref"), 2)
		files := t.TempDir()
		first := writeSolidImage(t, files, "a.png", color.NRGBA{R: 1, A: 255})
		second := writeSolidImage(t, files, "b.png", color.NRGBA{R: 2, A: 255})

		mustRun(t, dbDir, "image", "add", expID, "--passes", "10", "--no-analyze", first)
		out := mustRun(t, dbDir, "image", "add", expID, "--passes", "20", second)
		if !strings.Contains(out, "no reference image yet") {
			t.Errorf("expected missing reference notice:\n%s", out)
		}
	})

	t.Run("explicit config file must exist", func(t *testing.T) {
		t.Parallel()
		_, err := runCLI(t, t.TempDir(), "--config", filepath.Join(t.TempDir(), "missing.yaml"), "experiment", "list")
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}
