package report

import (
	"io"

	"golang.org/x/text/language"

	"github.com/nao1215/plantdoc/internal/locale"
)

// Writer defines the interface for report output.
// Implementations write diagnoses in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. The CLI writes to stdout or a file with the same API.
type Writer interface {
	// Write outputs a single diagnosis.
	// Returns the number of bytes written and any error encountered.
	Write(d *Diagnosis) (int, error)

	// WriteBatch outputs several diagnoses followed by a summary.
	WriteBatch(ds []*Diagnosis) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the diagnosis to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(d *Diagnosis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(d)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the diagnoses to all configured Writers.
func (m *MultiWriter) WriteBatch(ds []*Diagnosis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(ds)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output   io.Writer
	messages locale.Messages
}

// newBaseWriter creates a baseWriter with the given output destination
// and English labels.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output, messages: locale.For(language.English)}
}

// nonNil drops nil entries.
func nonNil(ds []*Diagnosis) []*Diagnosis {
	out := make([]*Diagnosis, 0, len(ds))
	for _, d := range ds {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}
