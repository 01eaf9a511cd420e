package report

import (
	"io"
	"math"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/plantdoc/internal/locale"
	"github.com/nao1215/plantdoc/internal/model"
)

// MarkdownWriter outputs diagnoses in Markdown format.
// This format is designed for sharing a diagnosis, e.g. in an issue or a
// garden journal.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation: tables, mermaid pie charts and GitHub-flavored alerts.
type MarkdownWriter struct {
	baseWriter
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownMessages sets the localized labels.
func WithMarkdownMessages(m locale.Messages) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.messages = m
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs a single diagnosis in Markdown format.
func (w *MarkdownWriter) Write(d *Diagnosis) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Plant Diagnosis Report")
	md.PlainText("")
	w.writeDiagnosis(md, d)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteBatch outputs every diagnosis with a summary table first.
func (w *MarkdownWriter) WriteBatch(ds []*Diagnosis) (int, error) {
	ds = nonNil(ds)

	md := markdown.NewMarkdown(w.output)
	md.H1("Plant Diagnosis Report")
	md.PlainText("")
	w.writeSummary(md, Summarize(ds))
	for _, d := range ds {
		w.writeDiagnosis(md, d)
	}
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s Summary) {
	md.H2("Summary")
	md.PlainText("")

	rows := [][]string{
		{"🟢 Healthy", strconv.Itoa(s.Healthy)},
		{"🟠 Warning", strconv.Itoa(s.Warning)},
		{"🔴 Danger", strconv.Itoa(s.Danger)},
	}
	if s.Failed > 0 {
		rows = append(rows, []string{"❌ Failed", strconv.Itoa(s.Failed)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(s.Total) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Images"},
		Rows:   rows,
	})
	md.PlainText("")

	if s.Danger > 0 {
		md.Cautionf("%d plant(s) need immediate attention.", s.Danger)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeDiagnosis(md *markdown.Markdown, d *Diagnosis) {
	md.H2(d.Source)
	md.PlainText("")

	if d.Error != "" {
		md.Cautionf("Could not diagnose this image: %s", d.Error)
		md.PlainText("")
		return
	}

	rec := d.Record
	confidence := formatPercent(rec.Confidence)
	if rec.LowConfidence() {
		confidence += " " + w.messages.LowConfidence
	}
	rows := [][]string{
		{"Diagnosis", d.Title()},
		{"Status", rec.Status.Badge()},
		{"Confidence", confidence},
	}
	if !d.DiagnosedAt.IsZero() {
		rows = append(rows, []string{"Date", d.DiagnosedAt.Format("2006-01-02 15:04:05 MST")})
	}
	if d.Image != nil {
		rows = append(rows, []string{"Image", "`" + d.Image.Name + "`"})
		if camera := d.Image.Metadata.Camera(); camera != "" {
			rows = append(rows, []string{"Camera", camera})
		}
	}
	switch {
	case d.HeatmapFile != "":
		rows = append(rows, []string{"Heatmap", "`" + d.HeatmapFile + "`"})
	case d.Heatmap != nil:
		rows = append(rows, []string{"Heatmap", "available (" + d.Heatmap.MediaType + ")"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, rec)

	md.H3("Advice")
	md.PlainText("")
	if rec.Description.IsList() {
		md.BulletList(rec.Description.Items()...)
	} else {
		md.PlainText(rec.Description.Text())
	}
	md.PlainText("")

	if len(rec.Predictions) > 0 {
		w.writePredictions(md, rec.Predictions)
	}
}

// writeAlert writes an alert matching the record status.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, rec model.DiagnosticRecord) {
	switch rec.Status {
	case model.StatusDanger:
		md.Cautionf("%s: act quickly to protect the rest of your plants.", rec.Title)
	case model.StatusWarning:
		md.Warningf("%s: keep a close eye on this plant.", rec.Title)
	default:
		md.Tip("Your plant looks healthy.")
	}
	md.PlainText("")

	if rec.LowConfidence() {
		md.Importantf("Confidence is only %s. Take a clearer photo to confirm.", formatPercent(rec.Confidence))
		md.PlainText("")
	}
}

// writePredictions writes the ranked classes as a table and a pie chart.
func (w *MarkdownWriter) writePredictions(md *markdown.Markdown, predictions []model.Prediction) {
	md.H3("Predictions")
	md.PlainText("")

	rows := make([][]string, len(predictions))
	for i, p := range predictions {
		rows[i] = []string{strconv.Itoa(i + 1), p.Name, formatPercent(p.Probability)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Class", "Probability"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Prediction Distribution"),
		piechart.WithShowData(true),
	)
	slices := 0
	for _, p := range predictions {
		value := uint64(math.Round(model.ClampPercent(p.Probability)))
		if value == 0 {
			continue
		}
		chart.LabelAndIntValue(p.Name, value)
		slices++
	}
	if slices == 0 {
		return
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [plantdoc](https://github.com/nao1215/plantdoc)*")
}
