package report

import (
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const ruleWidth = 60

// SimpleWriter outputs aligned plain text for the terminal.
//
// Numbers are formatted through an x/text message.Printer, so pixel counts
// get the digit grouping of the selected language. English is the default.
type SimpleWriter struct {
	baseWriter

	printer *message.Printer

	// showEmpty prints band lines even when no result falls into them.
	showEmpty bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty bands.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithLanguage selects the locale used for number formatting.
func WithLanguage(tag language.Tag) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.printer = message.NewPrinter(tag)
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
// Numbers are formatted for English unless WithLanguage says otherwise.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable form.
func (w *SimpleWriter) Write(report *ExperimentReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeResults(&sb, report)
	w.writeSummary(&sb, report)

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *ExperimentReport) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("SCRATCH INDEX REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	if report.Name != "" {
		sb.WriteString(w.printer.Sprintf("Experiment: %s (%s)\n", report.Name, report.ExperimentID))
	} else {
		sb.WriteString(w.printer.Sprintf("Experiment: %s\n", report.ExperimentID))
	}
	if report.Region != nil {
		sb.WriteString(w.printer.Sprintf("Region:     %s\n", report.Region.String()))
	} else {
		sb.WriteString("Region:     whole image\n")
	}
	sb.WriteString(w.printer.Sprintf("Generated:  %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
}

func (w *SimpleWriter) writeResults(sb *strings.Builder, report *ExperimentReport) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\nRESULTS\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")

	if len(report.Results) == 0 {
		sb.WriteString("  No results\n\n")
		return
	}

	sb.WriteString(w.printer.Sprintf("  %-8s %-10s %12s  %s\n", "PASSES", "INDEX", "PIXELS", "IMAGE"))
	for _, r := range report.Results {
		sb.WriteString(w.printer.Sprintf("  %-8d %-10.4f %12d  %s\n", r.Passes, r.ScratchIndex, r.TotalPixels, r.ImageID))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *ExperimentReport) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\nSUMMARY\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")

	s := report.Summary
	sb.WriteString(w.printer.Sprintf("  Images:  %d\n", s.Count))
	sb.WriteString(w.printer.Sprintf("  Average: %.4f\n", s.Average))
	sb.WriteString(w.printer.Sprintf("  Min:     %.4f\n", s.Min))
	sb.WriteString(w.printer.Sprintf("  Max:     %.4f\n\n", s.Max))

	title := cases.Title(language.English)
	counts := report.BandCounts()
	for _, b := range Bands {
		if counts[b] == 0 && !w.showEmpty {
			continue
		}
		sb.WriteString(w.printer.Sprintf("  %-9s %d\n", title.String(b.String())+":", counts[b]))
	}
	sb.WriteString("\n")
}
