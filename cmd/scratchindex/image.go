package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nao1215/scratchindex/internal/database"
	"github.com/nao1215/scratchindex/internal/imaging"
	"github.com/nao1215/scratchindex/internal/model"
)

// NewImageCmd creates the image command group.
func NewImageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Add, list and remove experiment images",
	}

	cmd.AddCommand(newImageAddCmd())
	cmd.AddCommand(newImageListCmd())
	cmd.AddCommand(newImageRemoveCmd())

	return cmd
}

func newImageAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <experiment-id> <file>...",
		Short: "Add images taken after the same number of passes",
		Long: `Add one or more image files to an experiment and analyze each of them.

Use --passes 0 for the untouched reference image. Images added before the
experiment has a reference are stored without a result; run "recalc" once
the reference is in place.

Examples:
  scratchindex image add 3f2a... --passes 0 reference.png
  scratchindex image add 3f2a... --passes 50 sample-50-*.jpg`,
		Args: cobra.MinimumNArgs(2),
		RunE: runImageAdd,
	}

	cmd.Flags().IntP("passes", "p", 0, "Abrasion passes applied before the images were taken")
	cmd.Flags().Bool("no-analyze", false, "Store the images without analyzing them")

	return cmd
}

func runImageAdd(cmd *cobra.Command, args []string) error {
	passes, err := cmd.Flags().GetInt("passes")
	if err != nil {
		return err
	}
	noAnalyze, err := cmd.Flags().GetBool("no-analyze")
	if err != nil {
		return err
	}
	if passes < 0 {
		return fmt.Errorf("passes must be non-negative, got %d", passes)
	}
	if passes == 0 && len(args) > 2 {
		return fmt.Errorf("an experiment has one reference image, got %d files with --passes 0", len(args)-1)
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

	for _, path := range args[1:] {
		data, err := readImageFile(path, a.cfg.MaxImageBytes, a.cfg.Formats)
		if err != nil {
			return err
		}

		img, err := a.db.AddImage(ctx, database.NewImage{
			ExperimentID: experimentID,
			Passes:       passes,
			Filename:     filepath.Base(path),
			Data:         data,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(out, "Added %s as image %s (passes %d)\n", filepath.Base(path), img.ID, img.Passes)

		if noAnalyze {
			continue
		}

		result, err := a.orch.AnalyzeSingleImage(ctx, img.ID)
		switch {
		case errors.Is(err, model.ErrMissingReferenceImage):
			fmt.Fprintln(out, "  no reference image yet; run recalc after adding it")
		case err != nil:
			return fmt.Errorf("%s: %w", path, err)
		default:
			fmt.Fprintf(out, "  scratch index %.4f over %d pixels\n", result.ScratchIndex, result.TotalPixels)
		}
	}

	return nil
}

// readImageFile reads path after checking its size, and checks the format
// against the accepted list.
func readImageFile(path string, maxBytes int64, formats []string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%s: file is %d bytes, limit is %d", path, info.Size(), maxBytes)
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-provided image path is intentional
	if err != nil {
		return nil, err
	}

	format, err := imaging.Format(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !slices.Contains(formats, format) {
		return nil, fmt.Errorf("%s: format %q is not accepted (allowed: %v)", path, format, formats)
	}
	return data, nil
}

func newImageListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <experiment-id>",
		Short: "List the images of an experiment ordered by passes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			images, err := a.db.ListImages(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(images) == 0 {
				fmt.Fprintln(out, "No images")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %6s  %-5s  %9s  %-12s  %s\n", "ID", "PASSES", "TYPE", "BYTES", "SHA3", "FILE")
			for _, img := range images {
				fmt.Fprintf(out, "%-36s  %6d  %-5s  %9d  %-12s  %s\n",
					img.ID, img.Passes, img.Format, img.Size, img.Fingerprint[:12], img.Filename)
				if !img.Capture.IsZero() {
					fmt.Fprintf(out, "    camera: %s %s", img.Capture.CameraMake, img.Capture.CameraModel)
					if !img.Capture.CapturedAt.IsZero() {
						fmt.Fprintf(out, ", taken %s", img.Capture.CapturedAt.Format("2006-01-02 15:04:05"))
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}
}

func newImageRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <image-id>",
		Short: "Remove an image and its result",
		Long: `Remove an image from its experiment and drop its result.

Removing the reference image recomputes the experiment against the remaining
reference, or clears all results when there is none.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			ref, err := a.db.DeleteImage(ctx, args[0])
			if err != nil {
				return err
			}

			set, err := a.orch.RemoveImageResult(ctx, ref.ExperimentID, ref.ID)
			if err != nil {
				return fmt.Errorf("image removed but results not updated: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed image %s\n\n", ref.ID)
			printResultSet(out, set)
			return nil
		},
	}
}
