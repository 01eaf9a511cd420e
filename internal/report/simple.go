package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/nao1215/plantdoc/internal/locale"
	"github.com/nao1215/plantdoc/internal/model"
)

// ruleWidth is the width of section separators.
const ruleWidth = 70

// barWidth is the width of a 100% prediction bar.
const barWidth = 30

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII rules rather than ANSI
// colors. It works in all terminals and is easy to pipe to files. The
// status badge emoji carries the color cue instead.
type SimpleWriter struct {
	baseWriter

	// verbose adds image details and the record ID.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithMessages sets the localized labels, such as the low-confidence badge.
func WithMessages(m locale.Messages) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.messages = m
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs a single diagnosis in human-readable format.
func (w *SimpleWriter) Write(d *Diagnosis) (int, error) {
	var sb strings.Builder
	w.writeDiagnosis(&sb, d)
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

// WriteBatch outputs every diagnosis followed by a status summary.
func (w *SimpleWriter) WriteBatch(ds []*Diagnosis) (int, error) {
	ds = nonNil(ds)

	var sb strings.Builder
	for _, d := range ds {
		w.writeDiagnosis(&sb, d)
	}
	w.writeSummary(&sb, Summarize(ds))
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeDiagnosis(sb *strings.Builder, d *Diagnosis) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                         PLANTDOC DIAGNOSIS\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Source:      %s\n", d.Source)
	if !d.DiagnosedAt.IsZero() {
		fmt.Fprintf(sb, "Date:        %s\n", d.DiagnosedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if d.Error != "" {
		fmt.Fprintf(sb, "Error:       %s\n\n", d.Error)
		return
	}

	rec := d.Record
	fmt.Fprintf(sb, "Status:      %s\n", rec.Status.Badge())
	fmt.Fprintf(sb, "Diagnosis:   %s\n", d.Title())
	fmt.Fprintf(sb, "Confidence:  %s", formatPercent(rec.Confidence))
	if rec.LowConfidence() {
		fmt.Fprintf(sb, "  %s", w.messages.LowConfidence)
	}
	sb.WriteString("\n")
	if w.verbose && rec.ID != "" {
		fmt.Fprintf(sb, "Record ID:   %s\n", rec.ID)
	}
	sb.WriteString("\n")

	w.writeSection(sb, "ADVICE")
	if rec.Description.IsList() {
		for _, item := range rec.Description.Items() {
			fmt.Fprintf(sb, "  - %s\n", item)
		}
	} else {
		fmt.Fprintf(sb, "  %s\n", rec.Description.Text())
	}
	sb.WriteString("\n")

	if len(rec.Predictions) > 0 {
		w.writeSection(sb, "PREDICTIONS")
		nameWidth := 0
		for _, p := range rec.Predictions {
			nameWidth = max(nameWidth, len([]rune(p.Name)))
		}
		for _, p := range rec.Predictions {
			pad := strings.Repeat(" ", nameWidth-len([]rune(p.Name)))
			fmt.Fprintf(sb, "  %s%s  %6s  %s\n", p.Name, pad, formatPercent(p.Probability), bar(p.Probability))
		}
		sb.WriteString("\n")
	}

	if w.verbose && d.Image != nil {
		w.writeImage(sb, d.Image)
	}

	switch {
	case d.HeatmapFile != "":
		fmt.Fprintf(sb, "Heatmap:     saved to %s\n\n", d.HeatmapFile)
	case d.Heatmap != nil:
		fmt.Fprintf(sb, "Heatmap:     available (%s)\n\n", d.Heatmap.MediaType)
	case w.verbose && d.Image != nil:
		sb.WriteString("Heatmap:     not available\n\n")
	}
}

func (w *SimpleWriter) writeImage(sb *strings.Builder, img *model.ImageRef) {
	w.writeSection(sb, "IMAGE")
	fmt.Fprintf(sb, "  Name:        %s\n", img.Name)
	fmt.Fprintf(sb, "  Type:        %s\n", img.ContentType)
	fmt.Fprintf(sb, "  Size:        %d bytes\n", img.Size)
	fmt.Fprintf(sb, "  SHA3-256:    %s\n", img.Fingerprint)
	if m := img.Metadata; m != nil {
		if camera := m.Camera(); camera != "" {
			fmt.Fprintf(sb, "  Camera:      %s\n", camera)
		}
		if !m.CapturedAt.IsZero() {
			fmt.Fprintf(sb, "  Captured:    %s\n", m.CapturedAt.Format("2006-01-02 15:04:05"))
		}
		if m.HasGPS {
			sb.WriteString("  GPS:         present\n")
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, s Summary) {
	w.writeSection(sb, "SUMMARY")
	fmt.Fprintf(sb, "  HEALTHY:  %d\n", s.Healthy)
	fmt.Fprintf(sb, "  WARNING:  %d\n", s.Warning)
	fmt.Fprintf(sb, "  DANGER:   %d\n", s.Danger)
	if s.Failed > 0 {
		fmt.Fprintf(sb, "  FAILED:   %d\n", s.Failed)
	}
	fmt.Fprintf(sb, "\n  TOTAL:    %d images\n\n", s.Total)
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by plantdoc\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

// formatPercent renders 88 as "88%" and 41.25 as "41.3%".
func formatPercent(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f%%", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}

// bar draws a proportional bar for a percentage.
func bar(percent float64) string {
	n := int(math.Round(model.ClampPercent(percent) / 100 * barWidth))
	return strings.Repeat("#", n)
}
