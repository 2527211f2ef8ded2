package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/scratchindex/internal/config"
	"github.com/nao1215/scratchindex/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <experiment-id>",
		Short: "Write a report of the stored results of an experiment",
		Long: `Report prints the stored results of an experiment with summary statistics.

Examples:
  # Text report on the terminal
  scratchindex report 3f2a...

  # Markdown report with a damage pie chart
  scratchindex report 3f2a... --markdown -o reports/pet50.md

  # JSON for further processing
  scratchindex report 3f2a... --json`,
		Args: cobra.ExactArgs(1),
		RunE: runReportCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if a.cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if a.cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	exp, err := a.db.GetExperiment(ctx, args[0])
	if err != nil {
		return err
	}
	set, err := a.db.GetResultSet(ctx, exp.ID)
	if err != nil {
		return err
	}

	r := report.NewExperimentReport(exp.ID, exp.Name, exp.Region, set)
	return outputReport(cmd, a.cfg, r)
}

// outputReport writes the report to stdout or to cfg.ReportFile.
func outputReport(cmd *cobra.Command, cfg *config.Config, r *report.ExperimentReport) error {
	out := cmd.OutOrStdout()

	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.Create(cfg.ReportFile)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out)
	}

	if _, err := w.Write(r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.ReportFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", cfg.ReportFile)
	}
	return nil
}
