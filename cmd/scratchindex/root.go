package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for scratchindex.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scratchindex",
		Short: "Measure abrasion damage on film samples from photographs",
		Long: `scratchindex compares photographs of abraded film samples against an
untouched reference and reports a scratch index between 0 (no change) and 1.

Images live in experiments stored in a local SQLite database. Each experiment
has one reference image (passes = 0) and an optional region of interest that
is applied to every image.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .scratchindex in current or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"Directory holding the database (default: XDG data directory)")

	cmd.AddCommand(NewExperimentCmd())
	cmd.AddCommand(NewImageCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewRecalcCmd())
	cmd.AddCommand(NewHistogramCmd())
	cmd.AddCommand(NewQuickCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
