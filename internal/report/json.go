package report

import (
	"encoding/json"
	"io"
)

// JSONWriter outputs reports in JSON format for scripts and other tools.
// The field names match the JSON emitted by the analyze and recalc commands,
// so one decoder reads both.
//
// Design decision: we use encoding/json rather than a third-party encoder
// because:
// 1. Results are small flat structs with no hot path
// 2. The model types already carry json tags
// 3. Output stays identical to the database's stored result sets
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output; compact otherwise.
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report as one JSON document followed by a newline.
func (w *JSONWriter) Write(report *ExperimentReport) (int, error) {
	return w.WriteValue(report)
}

// WriteValue encodes any value with the writer's settings. The CLI uses it for
// histogram and quick-analysis payloads.
func (w *JSONWriter) WriteValue(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
