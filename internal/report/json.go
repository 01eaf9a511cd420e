package report

import (
	"encoding/json"
	"io"
)

// JSONWriter outputs diagnoses in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library. The model types already implement json.Marshaler where the
// wire shape differs from the Go shape (Status, Description).
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stamped on batch reports.
	version string
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

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion stamps batch reports with the plantdoc version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs a single diagnosis as a JSON object.
func (w *JSONWriter) Write(d *Diagnosis) (int, error) {
	return w.writeJSON(d)
}

// BatchReport wraps several diagnoses with a summary.
type BatchReport struct {
	// Version is the plantdoc version that generated this report.
	Version string `json:"version,omitempty"`

	// Summary counts diagnoses per status.
	Summary Summary `json:"summary"`

	// Diagnoses are in input order.
	Diagnoses []*Diagnosis `json:"diagnoses"`
}

// WriteBatch outputs a BatchReport.
func (w *JSONWriter) WriteBatch(ds []*Diagnosis) (int, error) {
	ds = nonNil(ds)
	return w.writeJSON(BatchReport{
		Version:   w.version,
		Summary:   Summarize(ds),
		Diagnoses: ds,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
