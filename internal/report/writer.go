package report

import (
	"io"
)

// Writer renders an experiment report to its destination.
//
// Design decision: writers are bound to an io.Writer at construction and
// take only the report on Write. The same report can then go to stdout and
// a file through MultiWriter without the caller knowing the formats.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *ExperimentReport) (int, error)
}

// MultiWriter writes the same report to several Writers, e.g. the terminal
// and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every writer in order and stops on the first error.
func (m *MultiWriter) Write(report *ExperimentReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the output destination shared by all writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
