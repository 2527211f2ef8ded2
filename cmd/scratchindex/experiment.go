package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/scratchindex/internal/model"
)

// NewExperimentCmd creates the experiment command group.
func NewExperimentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Create, list and configure experiments",
	}

	cmd.AddCommand(newExperimentCreateCmd())
	cmd.AddCommand(newExperimentListCmd())
	cmd.AddCommand(newExperimentRegionCmd())
	cmd.AddCommand(newExperimentDeleteCmd())

	return cmd
}

func newExperimentCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new experiment",
		Long: `Create a new experiment, optionally with a region of interest.

Examples:
  scratchindex experiment create --name "PET 50um"
  scratchindex experiment create --name "PET 50um" --region 120,80,640,480`,
		Args: cobra.NoArgs,
		RunE: runExperimentCreate,
	}

	cmd.Flags().StringP("name", "n", "", "Experiment name")
	cmd.Flags().StringP("region", "r", "", "Region of interest as x,y,width,height")
	_ = cmd.MarkFlagRequired("name") //nolint:errcheck // flag is defined above

	return cmd
}

func runExperimentCreate(cmd *cobra.Command, _ []string) error {
	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}
	regionArg, err := cmd.Flags().GetString("region")
	if err != nil {
		return err
	}

	var region *model.Region
	if regionArg != "" {
		if region, err = model.ParseRegion(regionArg); err != nil {
			return err
		}
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	exp, err := a.db.CreateExperiment(ctx, name, region)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created experiment %s (%s)\n", exp.ID, exp.Name)
	return nil
}

func newExperimentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List experiments, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			experiments, err := a.db.ListExperiments(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(experiments) == 0 {
				fmt.Fprintln(out, "No experiments")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %6s  %-18s  %s\n", "ID", "IMAGES", "REGION", "NAME")
			for _, e := range experiments {
				fmt.Fprintf(out, "%-36s  %6d  %-18s  %s\n", e.ID, e.ImageCount, formatRegion(e.Region), e.Name)
			}
			return nil
		},
	}
}

func newExperimentRegionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "region <experiment-id> [x,y,width,height]",
		Short: "Show or change the region of interest",
		Long: `Show the experiment's region, or change it and recompute every result.

The new region is only stored when every image can be analyzed with it.

Examples:
  scratchindex experiment region 3f2a...
  scratchindex experiment region 3f2a... 120,80,640,480
  scratchindex experiment region 3f2a... --clear`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runExperimentRegion,
	}

	cmd.Flags().Bool("clear", false, "Remove the region and analyze whole images")

	return cmd
}

func runExperimentRegion(cmd *cobra.Command, args []string) error {
	clearRegion, err := cmd.Flags().GetBool("clear")
	if err != nil {
		return err
	}
	if clearRegion && len(args) == 2 {
		return errors.New("--clear cannot be combined with a region")
	}

	var region *model.Region
	if len(args) == 2 {
		if region, err = model.ParseRegion(args[1]); err != nil {
			return err
		}
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	experimentID := args[0]
	out := cmd.OutOrStdout()

	if len(args) == 1 && !clearRegion {
		current, err := a.db.GetRegion(ctx, experimentID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatRegion(current))
		return nil
	}

	set, err := a.orch.UpdateRegion(ctx, experimentID, region)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Region set to %s\n\n", formatRegion(region))
	printResultSet(out, set)
	return nil
}

func newExperimentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <experiment-id>",
		Short: "Delete an experiment with all its images and results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			if err := a.db.DeleteExperiment(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted experiment %s\n", args[0])
			return nil
		},
	}
}

func formatRegion(r *model.Region) string {
	if r == nil {
		return "whole image"
	}
	return r.String()
}

// printResultSet writes one aligned line per result.
func printResultSet(w io.Writer, set model.ResultSet) {
	if len(set) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}
	fmt.Fprintf(w, "%-36s  %6s  %8s  %10s\n", "IMAGE", "PASSES", "INDEX", "PIXELS")
	for _, r := range set {
		fmt.Fprintf(w, "%-36s  %6d  %8.4f  %10d\n", r.ImageID, r.Passes, r.ScratchIndex, r.TotalPixels)
	}
}
