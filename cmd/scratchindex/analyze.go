package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/scratchindex/internal/analysis"
	"github.com/nao1215/scratchindex/internal/model"
	"github.com/nao1215/scratchindex/internal/report"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <image-id>",
		Short: "Analyze one image against its reference and store the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			result, err := a.orch.AnalyzeSingleImage(ctx, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				_, err = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).WriteValue(result)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Image %s (passes %d): scratch index %.4f over %d pixels\n",
				result.ImageID, result.Passes, result.ScratchIndex, result.TotalPixels)
			return nil
		},
	}
	addJSONFlag(cmd)
	return cmd
}

// recalcOutput is the JSON form of a full recompute.
type recalcOutput struct {
	ExperimentID string           `json:"experiment_id"`
	Results      model.ResultSet  `json:"results"`
	Summary      analysis.Summary `json:"summary"`
}

// NewRecalcCmd creates the recalc command.
func NewRecalcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recalc <experiment-id>",
		Short: "Recompute every result of an experiment",
		Long: `Recompute every result of an experiment against its reference.

Images are analyzed in parallel. If any image fails, nothing is stored and
the previous results stay in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			set, err := a.orch.RecalculateExperiment(ctx, args[0])
			if err != nil {
				return err
			}
			summary := analysis.Summarize(set)

			out := cmd.OutOrStdout()
			if asJSON {
				_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(recalcOutput{
					ExperimentID: args[0],
					Results:      set,
					Summary:      summary,
				})
				return err
			}

			printResultSet(out, set)
			fmt.Fprintf(out, "\n%d images, average %.4f, min %.4f, max %.4f\n",
				summary.Count, summary.Average, summary.Min, summary.Max)
			return nil
		},
	}
	addJSONFlag(cmd)
	return cmd
}

// NewHistogramCmd creates the histogram command.
func NewHistogramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "histogram <image-id>",
		Short: "Print the brightness histogram of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			payload, err := a.orch.GetImageHistogram(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(payload)
				return err
			}

			s := payload.Statistics
			fmt.Fprintf(out, "Image %s\n", payload.ImageID)
			fmt.Fprintf(out, "  total pixels:        %d\n", s.TotalPixels)
			fmt.Fprintf(out, "  dominant brightness: %d\n", s.DominantBrightness)
			fmt.Fprintf(out, "  dominant ratio:      %.4f\n", s.AverageBrightnessRatio)
			fmt.Fprintf(out, "  weighted average:    %.2f\n", s.WeightedAverageBrightness)
			fmt.Fprintf(out, "  levels present:      %d\n\n", s.BrightnessLevelsCount)

			levels := make([]int, 0, len(payload.Histogram))
			for k := range payload.Histogram {
				if q, err := strconv.Atoi(k); err == nil {
					levels = append(levels, q)
				}
			}
			sort.Ints(levels)
			for _, q := range levels {
				fmt.Fprintf(out, "  %3d  %d\n", q, payload.Count(q))
			}
			return nil
		},
	}
	addJSONFlag(cmd)
	return cmd
}

// NewQuickCmd creates the quick command.
func NewQuickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quick <experiment-id>",
		Short: "Show per-image brightness statistics without scoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			quick, err := a.orch.QuickAnalysis(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(quick)
				return err
			}

			if quick.Count == 0 {
				fmt.Fprintln(out, "No images")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %6s  %10s  %8s  %6s\n", "IMAGE", "PASSES", "PIXELS", "DOMINANT", "LEVELS")
			for _, s := range quick.Images {
				fmt.Fprintf(out, "%-36s  %6d  %10d  %8d  %6d\n",
					s.ImageID, s.Passes, s.TotalPixels, s.DominantBrightness, s.LevelsCount)
			}
			return nil
		},
	}
	addJSONFlag(cmd)
	return cmd
}

func addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
}
