package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MarkdownWriter outputs reports as GitHub-flavored Markdown.
// This format is meant for lab notes and pull requests that track a film
// test series.
//
// Design decision: we use the nao1215/markdown builder which provides:
// 1. Tables with alignment for the result rows
// 2. Mermaid pie charts for the damage band distribution
// 3. GitHub alerts to flag heavy damage at the top of the page
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *ExperimentReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeResults(md, report)
	w.writeSummary(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *ExperimentReport) {
	title := "Scratch Index Report"
	if report.Name != "" {
		title += ": " + report.Name
	}
	md.H1(title)
	md.PlainText("")

	region := "whole image"
	if report.Region != nil {
		region = "`" + report.Region.String() + "`"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Experiment", "`" + report.ExperimentID + "`"},
			{"Region", region},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Images", strconv.Itoa(len(report.Results))},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeResults(md *markdown.Markdown, report *ExperimentReport) {
	md.H2("Results")
	md.PlainText("")

	if len(report.Results) == 0 {
		md.PlainText("No results stored for this experiment.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Results))
	for i, r := range report.Results {
		rows[i] = []string{
			strconv.Itoa(r.Passes),
			strconv.FormatFloat(r.ScratchIndex, 'f', 4, 64),
			BandOf(r.ScratchIndex).String(),
			strconv.Itoa(r.TotalPixels),
			"`" + r.ImageID + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Passes", "Scratch Index", "Damage", "Pixels", "Image"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *ExperimentReport) {
	md.H2("Summary")
	md.PlainText("")

	s := report.Summary
	md.Table(markdown.TableSet{
		Header: []string{"Statistic", "Value"},
		Rows: [][]string{
			{"Count", strconv.Itoa(s.Count)},
			{"Average", strconv.FormatFloat(s.Average, 'f', 4, 64)},
			{"Min", strconv.FormatFloat(s.Min, 'f', 4, 64)},
			{"Max", strconv.FormatFloat(s.Max, 'f', 4, 64)},
		},
	})
	md.PlainText("")

	if len(report.Results) > 0 {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of the damage bands.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *ExperimentReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Damage Distribution"),
		piechart.WithShowData(true),
	)

	title := cases.Title(language.English)
	counts := report.BandCounts()
	for _, b := range Bands {
		if counts[b] > 0 {
			chart.LabelAndIntValue(title.String(b.String()), uint64(counts[b]))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *ExperimentReport) {
	worst, ok := report.Worst()
	switch {
	case !ok:
		md.Note("No images have been analyzed yet.")
	case BandOf(worst.ScratchIndex) == BandHeavy:
		md.Warningf("Heavy damage: image %s reached %.4f after %d passes.",
			worst.ImageID, worst.ScratchIndex, worst.Passes)
	case worst.ScratchIndex > 0:
		md.Importantf("Highest index %.4f after %d passes.", worst.ScratchIndex, worst.Passes)
	default:
		md.Tip("No measurable damage relative to the reference.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by scratchindex*")
}
